package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"git.sr.ht/~whereswaldon/timeline-chart/chart"
)

// bell plays the selection sound as a terminal bell. Sound files are not
// supported. Rings closer together than minGap are dropped so that fast
// scrolling does not flood the terminal.
type bell struct {
	w      io.Writer
	minGap time.Duration

	lock sync.Mutex
	last time.Time
	now  func() time.Time
}

var _ chart.SoundPlayer = (*bell)(nil)

func newBell(w io.Writer) *bell {
	return &bell{w: w, minGap: 40 * time.Millisecond, now: time.Now}
}

func (b *bell) Play(source string) error {
	if source != chart.SystemSound {
		return fmt.Errorf("unsupported sound source %q", source)
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	now := b.now()
	if now.Sub(b.last) < b.minGap {
		return nil
	}
	b.last = now
	_, err := io.WriteString(b.w, "\a")
	return err
}
