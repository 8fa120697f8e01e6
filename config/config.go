// Package config loads chart attributes from YAML.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"git.sr.ht/~whereswaldon/timeline-chart/backend"
	"git.sr.ht/~whereswaldon/timeline-chart/chart"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/palette"
)

// Palette styles for the generated series colours.
const (
	// StyleMaterial blends the graph background towards white and black.
	StyleMaterial = "material"
	// StyleDistinct spreads hues evenly at a fixed saturation and value.
	StyleDistinct = "distinct"
)

// distinctSlots is how many colours StyleDistinct provides before the
// background spectrum takes over.
const distinctSlots = 16

// Attributes is the YAML form of the chart options.
type Attributes struct {
	Graph struct {
		Mode       string  `yaml:"mode"`        // overlap, stack or side-by-side
		BarWidth   float32 `yaml:"bar_width"`   // Width of a column in pixels
		BarSpacing float32 `yaml:"bar_spacing"` // Gap between columns in pixels
		Background string  `yaml:"background"`  // #rrggbb or #rrggbbaa
		// Palette colours the leading series. Missing entries are generated.
		Palette      []string `yaml:"palette"`
		PaletteStyle string   `yaml:"palette_style"` // material or distinct
	} `yaml:"graph"`
	Footer struct {
		Show       bool    `yaml:"show"`
		Height     float32 `yaml:"height"` // Minimum height; grows to fit the labels
		Background string  `yaml:"background"`
	} `yaml:"footer"`
	Behavior struct {
		PlaySelectionSound   bool   `yaml:"play_selection_sound"`
		SelectionSoundSource string `yaml:"selection_sound_source"` // "system" or a file path
		AnimateTransitions   bool   `yaml:"animate_transitions"`
		FollowPosition       bool   `yaml:"follow_position"`
		EnsureSelection      bool   `yaml:"ensure_selection"`
		Overscroll           string `yaml:"overscroll"` // if-content-scrolls, always or never
		Strategy             string `yaml:"strategy"`   // full, preserve-no-deletes or append-only
	} `yaml:"behavior"`
	Gesture struct {
		TouchSlop          float32 `yaml:"touch_slop"`
		LongPressTimeoutMS int     `yaml:"long_press_timeout_ms"`
		TapTimeoutMS       int     `yaml:"tap_timeout_ms"`
		MaxFlingVelocity   float32 `yaml:"max_fling_velocity"`
	} `yaml:"gesture"`
}

// Default returns the attributes of chart.DefaultOptions.
func Default() Attributes {
	o := chart.DefaultOptions()
	var a Attributes
	a.Graph.Mode = o.Mode.String()
	a.Graph.BarWidth = o.BarWidth
	a.Graph.BarSpacing = o.BarSpacing
	a.Graph.Background = FormatColor(o.GraphBackground)
	a.Graph.PaletteStyle = StyleMaterial
	a.Footer.Show = o.ShowFooter
	a.Footer.Height = o.FooterHeight
	a.Footer.Background = FormatColor(o.FooterBackground)
	a.Behavior.SelectionSoundSource = o.SelectionSoundSource
	a.Behavior.AnimateTransitions = o.AnimateTransitions
	a.Behavior.Overscroll = o.Overscroll.String()
	a.Behavior.Strategy = o.Strategy.Name()
	a.Gesture.TouchSlop = o.Gesture.TouchSlop
	a.Gesture.LongPressTimeoutMS = int(o.Gesture.LongPressTimeout / time.Millisecond)
	a.Gesture.TapTimeoutMS = int(o.Gesture.TapTimeout / time.Millisecond)
	a.Gesture.MaxFlingVelocity = o.Gesture.MaxFlingVelocity
	return a
}

// Load reads the attributes at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (Attributes, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Attributes{}, fmt.Errorf("failed opening config: %w", err)
	}
	defer f.Close()
	a, err := Decode(f)
	if err != nil {
		return Attributes{}, fmt.Errorf("failed loading %s: %w", path, err)
	}
	return a, nil
}

// Decode reads attributes from r over the defaults. Unknown keys are an
// error.
func Decode(r io.Reader) (Attributes, error) {
	a := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil && !errors.Is(err, io.EOF) {
		return Attributes{}, fmt.Errorf("failed parsing config: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Attributes{}, err
	}
	return a, nil
}

// Write encodes a as YAML.
func (a Attributes) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed encoding config: %w", err)
	}
	return enc.Close()
}

// Validate reports every invalid attribute.
func (a Attributes) Validate() error {
	_, err := a.Options()
	return err
}

// Options converts the attributes into chart options. Callbacks, the sound
// player and the text measurer are left for the caller.
func (a Attributes) Options() (chart.Options, error) {
	var errs []error
	o := chart.DefaultOptions()

	var err error
	if o.Mode, err = dataset.ParseMode(a.Graph.Mode); err != nil {
		errs = append(errs, err)
	}
	if a.Graph.BarWidth <= 0 {
		errs = append(errs, fmt.Errorf("bar_width must be positive, got %v", a.Graph.BarWidth))
	}
	if a.Graph.BarSpacing < 0 {
		errs = append(errs, fmt.Errorf("bar_spacing must not be negative, got %v", a.Graph.BarSpacing))
	}
	o.BarWidth = a.Graph.BarWidth
	o.BarSpacing = a.Graph.BarSpacing
	if o.GraphBackground, err = ParseColor(a.Graph.Background); err != nil {
		errs = append(errs, fmt.Errorf("graph background: %w", err))
	}
	for i, s := range a.Graph.Palette {
		c, err := ParseColor(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("palette entry %d: %w", i, err))
			continue
		}
		o.UserPalette = append(o.UserPalette, c)
	}
	switch strings.ToLower(a.Graph.PaletteStyle) {
	case "", StyleMaterial:
	case StyleDistinct:
		if len(o.UserPalette) < distinctSlots {
			o.UserPalette = append(o.UserPalette, palette.Distinct(distinctSlots)[len(o.UserPalette):]...)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown palette_style %q", a.Graph.PaletteStyle))
	}

	if a.Footer.Height < 0 {
		errs = append(errs, fmt.Errorf("footer height must not be negative, got %v", a.Footer.Height))
	}
	o.ShowFooter = a.Footer.Show
	o.FooterHeight = a.Footer.Height
	if o.FooterBackground, err = ParseColor(a.Footer.Background); err != nil {
		errs = append(errs, fmt.Errorf("footer background: %w", err))
	}

	o.PlaySelectionSound = a.Behavior.PlaySelectionSound
	o.SelectionSoundSource = a.Behavior.SelectionSoundSource
	o.AnimateTransitions = a.Behavior.AnimateTransitions
	o.FollowPosition = a.Behavior.FollowPosition
	o.EnsureSelection = a.Behavior.EnsureSelection
	if o.Overscroll, err = gesture.ParseOverscrollMode(a.Behavior.Overscroll); err != nil {
		errs = append(errs, err)
	}
	if o.Strategy, err = backend.ParseStrategy(a.Behavior.Strategy); err != nil {
		errs = append(errs, err)
	}

	g := a.Gesture
	if g.TouchSlop < 0 || g.LongPressTimeoutMS < 0 || g.TapTimeoutMS < 0 || g.MaxFlingVelocity < 0 {
		errs = append(errs, errors.New("gesture thresholds must not be negative"))
	}
	if g.LongPressTimeoutMS > 0 && g.TapTimeoutMS >= g.LongPressTimeoutMS {
		errs = append(errs, fmt.Errorf("tap_timeout_ms %d must be below long_press_timeout_ms %d", g.TapTimeoutMS, g.LongPressTimeoutMS))
	}
	o.Gesture = gesture.Config{
		TouchSlop:        g.TouchSlop,
		LongPressTimeout: time.Duration(g.LongPressTimeoutMS) * time.Millisecond,
		TapTimeout:       time.Duration(g.TapTimeoutMS) * time.Millisecond,
		MaxFlingVelocity: g.MaxFlingVelocity,
	}

	if len(errs) > 0 {
		return chart.Options{}, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return o, nil
}

// ParseColor accepts #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	alpha := uint8(0xff)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in colour %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	if len(s) != 7 {
		return color.NRGBA{}, fmt.Errorf("colour %q is not #rrggbb or #rrggbbaa", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// FormatColor is the inverse of ParseColor. Opaque colours omit the alpha.
func FormatColor(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
