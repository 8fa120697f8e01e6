package chart

import (
	"image/color"
	"time"

	"git.sr.ht/~whereswaldon/timeline-chart/backend"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

// SystemSound selects the platform click as the selection sound.
const SystemSound = "system"

// SoundPlayer plays the selection sound effect.
type SoundPlayer interface {
	Play(source string) error
}

// Options configures a Chart. Every field can be changed later through the
// matching setter.
type Options struct {
	Mode       dataset.Mode
	BarWidth   float32
	BarSpacing float32

	ShowFooter   bool
	FooterHeight float32

	GraphBackground  color.NRGBA
	FooterBackground color.NRGBA
	// UserPalette colours the leading series. Missing entries are generated
	// from the graph background.
	UserPalette []color.NRGBA

	PlaySelectionSound   bool
	SelectionSoundSource string
	Sound                SoundPlayer

	// AnimateTransitions plays the zoom transition when the observed table
	// is replaced or reloaded with animation.
	AnimateTransitions bool
	// FollowPosition keeps the newest row selected across data updates when
	// the chart is scrolled to it.
	FollowPosition bool
	// EnsureSelection snaps to the nearest column whenever the chart comes
	// to rest between two columns.
	EnsureSelection bool
	Overscroll      gesture.OverscrollMode
	Gesture         gesture.Config
	Integrator      gesture.Integrator

	// Strategy is used by Observe when none is given.
	Strategy backend.Strategy
	Location *time.Location
	Measurer viewport.Measurer
	// Invalidate is called from any goroutine when the chart needs a new
	// frame.
	Invalidate func()
	// Clock returns the current time for operations that are not handed
	// one.
	Clock func() time.Time
}

// DefaultOptions returns the configuration of a chart on a dark background.
func DefaultOptions() Options {
	return Options{
		Mode:                 dataset.Overlap,
		BarWidth:             32,
		BarSpacing:           4,
		ShowFooter:           true,
		FooterHeight:         48,
		GraphBackground:      color.NRGBA{R: 0x37, G: 0x47, B: 0x4f, A: 0xff},
		FooterBackground:     color.NRGBA{R: 0x26, G: 0x32, B: 0x38, A: 0xff},
		SelectionSoundSource: SystemSound,
		AnimateTransitions:   true,
		Gesture:              gesture.DefaultConfig(),
		Strategy:             backend.Full{},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BarWidth <= 0 {
		o.BarWidth = d.BarWidth
	}
	if o.BarSpacing < 0 {
		o.BarSpacing = d.BarSpacing
	}
	if o.FooterHeight < 0 {
		o.FooterHeight = d.FooterHeight
	}
	if o.Strategy == nil {
		o.Strategy = d.Strategy
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Measurer == nil {
		o.Measurer = viewport.ApproxMeasurer{Scale: 1}
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Invalidate == nil {
		o.Invalidate = func() {}
	}
	if o.SelectionSoundSource == "" {
		o.SelectionSoundSource = SystemSound
	}
	return o
}
