package viewport

import (
	"log"
	"time"
	"unicode/utf8"

	"gioui.org/f32"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
)

// Measurer sizes a tick label as the renderer will draw it.
type Measurer interface {
	Measure(text string, f dataset.TickFormat) f32.Point
}

// TextSizes are the nominal text sizes of the three label formats, growing
// with the granularity of the label.
var TextSizes = map[dataset.TickFormat]float32{
	dataset.Seconds:     8,
	dataset.HourMinutes: 12,
	dataset.Day:         20,
}

// ApproxMeasurer estimates label sizes from the character count, for
// renderers without a text shaper.
type ApproxMeasurer struct {
	// Scale multiplies TextSizes, typically the pixels per sp.
	Scale float32
}

func (a ApproxMeasurer) Measure(text string, f dataset.TickFormat) f32.Point {
	scale := a.Scale
	if scale <= 0 {
		scale = 1
	}
	size := TextSizes[f] * scale
	return f32.Pt(float32(utf8.RuneCountInString(text))*size*0.6, size*1.2)
}

// Formats returns the label formats a snapshot may use.
func Formats(needsDay bool) []dataset.TickFormat {
	if needsDay {
		return dataset.TickFormats
	}
	return dataset.TickFormats[:2]
}

// EnsureBarWidth widens the bars so that the widest label of the given
// formats fits inside a column.
func EnsureBarWidth(g Geometry, m Measurer, formats []dataset.TickFormat) Geometry {
	var widest float32
	for _, f := range formats {
		widest = max(widest, m.Measure(f.Sample(), f).X)
	}
	if widest > g.BarWidth {
		log.Printf("bar width %.1f is narrower than the tick labels, using %.1f", g.BarWidth, widest)
		g.BarWidth = ceil(widest)
	}
	return g
}

// FooterHeight is the configured height, grown to fit the tallest label of
// the given formats.
func FooterHeight(configured float32, m Measurer, formats []dataset.TickFormat) float32 {
	h := configured
	for _, f := range formats {
		h = max(h, m.Measure(f.Sample(), f).Y)
	}
	return h
}

// Label is a positioned footer text.
type Label struct {
	Text   string
	Format dataset.TickFormat
	// Center is where the middle of the text goes.
	Center f32.Point
	Size   f32.Point
	// Alpha fades the labels out while the chart zooms.
	Alpha float32
}

// Labels lays out one tick label per visible column inside the footer.
func (v *Viewport) Labels(dst []Label, s *dataset.Snapshot, a Areas, offset float32, m Measurer, loc *time.Location, alpha float32) []Label {
	if a.Footer.Empty() || s.Len() == 0 {
		return dst
	}
	first, last := v.VisibleRange(s.Len(), offset)
	cx := a.CenterX()
	cy := a.Footer.Center().Y
	for i := last; i >= first; i-- {
		ts := s.Timestamp(i)
		f := dataset.TickFormatOf(ts, loc)
		text := dataset.TickLabel(ts, f, loc)
		dst = append(dst, Label{
			Text:   text,
			Format: f,
			Center: f32.Pt(v.ColumnCenter(cx, offset, s.Len(), i), cy),
			Size:   m.Measure(text, f),
			Alpha:  alpha,
		})
	}
	return dst
}
