package config

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.sr.ht/~whereswaldon/timeline-chart/backend"
	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/palette"
)

func TestDefaultsMatchOptions(t *testing.T) {
	o, err := Default().Options()
	if err != nil {
		t.Fatalf("failed converting defaults: %v", err)
	}
	d := chart.DefaultOptions()
	if o.Mode != d.Mode || o.BarWidth != d.BarWidth || o.BarSpacing != d.BarSpacing {
		t.Errorf("expected default sizing, got %+v", o)
	}
	if o.GraphBackground != d.GraphBackground || o.FooterBackground != d.FooterBackground {
		t.Errorf("expected default colours, got %v %v", o.GraphBackground, o.FooterBackground)
	}
	if o.Gesture != d.Gesture {
		t.Errorf("expected %+v, got %+v", d.Gesture, o.Gesture)
	}
	if o.Strategy.Name() != d.Strategy.Name() {
		t.Errorf("expected strategy %s, got %s", d.Strategy.Name(), o.Strategy.Name())
	}
}

func TestDecode(t *testing.T) {
	doc := `
graph:
  mode: stack
  bar_width: 20
  palette: ["#ff0000", "#00ff0080"]
footer:
  show: false
behavior:
  follow_position: true
  overscroll: never
  strategy: append-only
gesture:
  long_press_timeout_ms: 800
`
	a, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("failed decoding: %v", err)
	}
	o, err := a.Options()
	if err != nil {
		t.Fatalf("failed converting: %v", err)
	}
	if o.Mode != dataset.Stack || o.BarWidth != 20 || o.BarSpacing != 4 {
		t.Errorf("expected stack at 20/4, got %v %v/%v", o.Mode, o.BarWidth, o.BarSpacing)
	}
	expected := []color.NRGBA{{R: 0xff, A: 0xff}, {G: 0xff, A: 0x80}}
	if !palette.Equal(o.UserPalette, expected) {
		t.Errorf("expected %v, got %v", expected, o.UserPalette)
	}
	if o.ShowFooter || !o.FollowPosition || o.Overscroll != gesture.OverscrollNever {
		t.Errorf("expected footer off, follow on, overscroll never, got %+v", o)
	}
	if _, ok := o.Strategy.(backend.AppendOnly); !ok {
		t.Errorf("expected append only strategy, got %T", o.Strategy)
	}
	if o.Gesture.LongPressTimeout != 800*time.Millisecond || o.Gesture.TapTimeout != 50*time.Millisecond {
		t.Errorf("expected 800ms/50ms, got %v/%v", o.Gesture.LongPressTimeout, o.Gesture.TapTimeout)
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
	}{
		{name: "unknown key", doc: "graph:\n  colour: red\n"},
		{name: "bad mode", doc: "graph:\n  mode: pie\n"},
		{name: "bad colour", doc: "footer:\n  background: \"#12\"\n"},
		{name: "bad alpha", doc: "graph:\n  background: \"#123456zz\"\n"},
		{name: "zero width", doc: "graph:\n  bar_width: 0\n"},
		{name: "bad style", doc: "graph:\n  palette_style: neon\n"},
		{name: "tap after long press", doc: "gesture:\n  tap_timeout_ms: 600\n"},
		{name: "bad strategy", doc: "behavior:\n  strategy: sometimes\n"},
	} {
		if _, err := Decode(strings.NewReader(tc.doc)); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestDistinctPalette(t *testing.T) {
	a := Default()
	a.Graph.PaletteStyle = StyleDistinct
	a.Graph.Palette = []string{"#000000"}
	o, err := a.Options()
	if err != nil {
		t.Fatalf("failed converting: %v", err)
	}
	if len(o.UserPalette) != distinctSlots {
		t.Fatalf("expected %d colours, got %d", distinctSlots, len(o.UserPalette))
	}
	if o.UserPalette[0] != palette.Black || o.UserPalette[1] != palette.Distinct(distinctSlots)[1] {
		t.Errorf("expected user colour then distinct hues, got %v", o.UserPalette[:2])
	}
}

func TestLoadRoundTrip(t *testing.T) {
	a := Default()
	a.Graph.Mode = dataset.SideBySide.String()
	a.Footer.Background = "#10203040"
	var buf bytes.Buffer
	if err := a.Write(&buf); err != nil {
		t.Fatalf("failed writing: %v", err)
	}
	path := filepath.Join(t.TempDir(), "chart.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed writing file: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed loading: %v", err)
	}
	if loaded.Graph.Mode != "side-by-side" || loaded.Footer.Background != "#10203040" {
		t.Errorf("expected values to survive, got %+v", loaded)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected missing file to fail")
	}
	if d, err := Load(""); err != nil || d.Graph.BarWidth != Default().Graph.BarWidth {
		t.Errorf("expected defaults for empty path, got %+v %v", d, err)
	}
}

func TestFormatColor(t *testing.T) {
	for _, c := range []color.NRGBA{palette.White, {R: 1, G: 2, B: 3, A: 4}} {
		got, err := ParseColor(FormatColor(c))
		if err != nil || got != c {
			t.Errorf("expected %v, got %v (%v)", c, got, err)
		}
	}
}
