package chart

import (
	"image/color"
	"slices"

	"git.sr.ht/~whereswaldon/timeline-chart/backend"
	"git.sr.ht/~whereswaldon/timeline-chart/dataset"
	"git.sr.ht/~whereswaldon/timeline-chart/gesture"
	"git.sr.ht/~whereswaldon/timeline-chart/palette"
	"git.sr.ht/~whereswaldon/timeline-chart/viewport"
)

// Options returns the current configuration.
func (c *Chart) Options() Options {
	o := c.opts
	o.UserPalette = slices.Clone(o.UserPalette)
	return o
}

// SetMode changes the graph mode. The snapshot is rebuilt without
// animation.
func (c *Chart) SetMode(mode dataset.Mode) {
	if mode == c.opts.Mode {
		return
	}
	c.opts.Mode = mode
	c.source.Write(func(s *source) {
		s.mode = mode
	})
	c.Reload(false)
}

// SetStrategy changes the recompute strategy used for future reloads.
func (c *Chart) SetStrategy(strategy backend.Strategy) {
	if strategy == nil {
		return
	}
	c.opts.Strategy = strategy
	c.source.Write(func(s *source) {
		s.strategy = strategy
	})
}

func (c *Chart) SetBarWidth(width float32) {
	if width <= 0 || width == c.opts.BarWidth {
		return
	}
	c.opts.BarWidth = width
	c.relayout()
}

func (c *Chart) SetBarSpacing(spacing float32) {
	if spacing < 0 || spacing == c.opts.BarSpacing {
		return
	}
	c.opts.BarSpacing = spacing
	c.relayout()
}

func (c *Chart) SetShowFooter(show bool) {
	if show == c.opts.ShowFooter {
		return
	}
	c.opts.ShowFooter = show
	c.relayout()
}

func (c *Chart) SetFooterHeight(height float32) {
	if height < 0 || height == c.opts.FooterHeight {
		return
	}
	c.opts.FooterHeight = height
	c.relayout()
}

func (c *Chart) SetOverscrollMode(mode gesture.OverscrollMode) {
	c.opts.Overscroll = mode
	c.relayout()
}

func (c *Chart) relayout() {
	c.layout()
	c.opts.Invalidate()
}

// SetUserPalette sets the colours of the leading series.
func (c *Chart) SetUserPalette(p []color.NRGBA) {
	if palette.Equal(p, c.opts.UserPalette) {
		return
	}
	c.opts.UserPalette = slices.Clone(p)
	c.repaint()
}

func (c *Chart) SetGraphBackground(bg color.NRGBA) {
	if bg == c.opts.GraphBackground {
		return
	}
	c.opts.GraphBackground = bg
	c.repaint()
}

func (c *Chart) SetFooterBackground(bg color.NRGBA) {
	c.opts.FooterBackground = bg
	c.opts.Invalidate()
}

// repaint regenerates the series palette.
func (c *Chart) repaint() {
	var (
		changed bool
		pal     []color.NRGBA
	)
	c.shared.Write(func(s *shared) {
		pal = palette.Series(c.opts.GraphBackground, c.opts.UserPalette, s.snapshot.SeriesCount())
		changed = !palette.Equal(pal, s.palette)
		s.palette = pal
		s.highlight = palette.Highlights(pal)
	})
	if changed {
		c.notifyPalette(pal)
	}
	c.opts.Invalidate()
}

func (c *Chart) SetPlaySelectionSound(play bool) {
	c.opts.PlaySelectionSound = play
}

// SetSelectionSoundSource sets what the SoundPlayer plays: SystemSound or a
// player specific resource such as a file path.
func (c *Chart) SetSelectionSoundSource(source string) {
	if source == "" {
		source = SystemSound
	}
	c.opts.SelectionSoundSource = source
}

func (c *Chart) SetAnimateTransitions(animate bool) {
	c.opts.AnimateTransitions = animate
	c.source.Write(func(s *source) {
		s.animate = animate
	})
}

func (c *Chart) SetFollowPosition(follow bool) {
	c.opts.FollowPosition = follow
}

func (c *Chart) SetEnsureSelection(ensure bool) {
	c.opts.EnsureSelection = ensure
	c.opts.Invalidate()
}

// SetMeasurer changes how tick labels are sized, typically after the pixel
// density changed.
func (c *Chart) SetMeasurer(m viewport.Measurer) {
	if m == nil {
		return
	}
	c.opts.Measurer = m
	c.relayout()
}
