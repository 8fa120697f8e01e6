package datasource

import (
	"bufio"
	"io"
)

// lineReader hands out only complete newline-terminated lines, holding back
// a trailing partial line until its newline arrives. This lets a CSV parser
// follow a file that is still being appended to without ever seeing half a
// record.
type lineReader struct {
	src     *bufio.Reader
	partial []byte
	ready   []byte
}

var _ io.Reader = (*lineReader)(nil)

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		src: bufio.NewReader(r),
	}
}

// Read returns io.EOF whenever no complete line is available. Reading again
// after more data was written resumes where the partial line left off.
func (l *lineReader) Read(b []byte) (int, error) {
	if len(l.ready) == 0 {
		line, err := l.src.ReadBytes('\n')
		l.partial = append(l.partial, line...)
		if err != nil {
			return 0, err
		}
		l.ready, l.partial = l.partial, l.ready[:0]
	}
	n := copy(b, l.ready)
	l.ready = l.ready[n:]
	return n, nil
}
