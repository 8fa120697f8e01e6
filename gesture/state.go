// Package gesture interprets single-pointer input and per-frame ticks as
// scroll motion over a one dimensional offset, with taps, long presses,
// flings, programmatic scrolls and the zoom transition used when the chart
// swaps its data.
package gesture

import (
	"fmt"
	"strings"
	"time"

	"gioui.org/f32"
)

// State is the phase of the gesture machine. The order matters: every state
// from Moving onwards counts as motion started by the user or the program.
type State uint8

const (
	Idle State = iota
	// Initialize is a pressed pointer that has not moved past the slop.
	Initialize
	Moving
	Flinging
	Scrolling
	// SettlingOverscroll is the end of a fling that hit a bound while the
	// edge glow absorbs the remaining velocity.
	SettlingOverscroll
	// Zooming plays the data swap transition and ignores all input.
	Zooming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initialize:
		return "initialize"
	case Moving:
		return "moving"
	case Flinging:
		return "flinging"
	case Scrolling:
		return "scrolling"
	case SettlingOverscroll:
		return "settling-overscroll"
	case Zooming:
		return "zooming"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Config holds the gesture thresholds.
type Config struct {
	// TouchSlop is the horizontal distance in pixels a pointer must travel
	// before a press becomes a drag.
	TouchSlop float32
	// LongPressTimeout is how long a press must be held to fire a long
	// press.
	LongPressTimeout time.Duration
	// TapTimeout debounces taps: shorter presses emit nothing.
	TapTimeout time.Duration
	// MaxFlingVelocity caps the release velocity in pixels per second.
	MaxFlingVelocity float32
}

// DefaultConfig returns the thresholds of a typical touch screen.
func DefaultConfig() Config {
	return Config{
		TouchSlop:        4,
		LongPressTimeout: 500 * time.Millisecond,
		TapTimeout:       50 * time.Millisecond,
		MaxFlingVelocity: 8000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TouchSlop <= 0 {
		c.TouchSlop = d.TouchSlop
	}
	if c.LongPressTimeout <= 0 {
		c.LongPressTimeout = d.LongPressTimeout
	}
	if c.TapTimeout < 0 {
		c.TapTimeout = d.TapTimeout
	}
	if c.MaxFlingVelocity <= 0 {
		c.MaxFlingVelocity = d.MaxFlingVelocity
	}
	return c
}

// OverscrollMode selects when the edge glow is shown.
type OverscrollMode uint8

const (
	OverscrollIfContentScrolls OverscrollMode = iota
	OverscrollAlways
	OverscrollNever
)

func (o OverscrollMode) String() string {
	switch o {
	case OverscrollAlways:
		return "always"
	case OverscrollNever:
		return "never"
	default:
		return "if-content-scrolls"
	}
}

// ParseOverscrollMode accepts the names produced by String.
func ParseOverscrollMode(s string) (OverscrollMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "if-content-scrolls", "":
		return OverscrollIfContentScrolls, nil
	case "always":
		return OverscrollAlways, nil
	case "never":
		return OverscrollNever, nil
	}
	return OverscrollIfContentScrolls, fmt.Errorf("unknown overscroll mode %q", s)
}

// Kind is the type of a pointer event.
type Kind uint8

const (
	Press Kind = iota
	Drag
	Release
	Cancel
	// Scroll is a wheel or trackpad scroll carrying a Delta.
	Scroll
)

// Event is a pointer event in widget coordinates.
type Event struct {
	Kind     Kind
	ID       int
	Position f32.Point
	// Delta is the horizontal scroll amount of a Scroll event.
	Delta float32
	Time  time.Time
}

// ActionKind is the type of a resolved gesture.
type ActionKind uint8

const (
	Tap ActionKind = iota
	LongPress
)

func (k ActionKind) String() string {
	if k == LongPress {
		return "long-press"
	}
	return "tap"
}

// Action is a tap or long press waiting to be resolved against the chart.
type Action struct {
	Kind     ActionKind
	Position f32.Point
	// Offset is the scroll offset when the action fired.
	Offset float32
}
