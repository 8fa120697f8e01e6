package gesture

import "time"

// Edge identifies a bound of the scroll range.
type Edge int

const (
	// Oldest is the left edge, reached at the maximum offset.
	Oldest Edge = iota
	// Newest is the right edge, reached at offset 0.
	Newest
)

const (
	glowDecay = 600 * time.Millisecond
	// glowAbsorbVelocity is the impact speed that lights the glow fully.
	glowAbsorbVelocity = 4000
)

// EdgeGlow is the overscroll cue at both ends of the scroll range. Each edge
// carries an intensity in [0, 1] that grows while the user pulls past the
// bound or a fling hits it, and fades once released.
type EdgeGlow struct {
	amount   [2]float32
	pulled   [2]float32
	held     [2]bool
	absorbed [2]bool
	last     time.Time
}

// Pull grows the glow of an edge while a drag is held past it. overscroll is
// the distance past the bound and extent the size of the view.
func (g *EdgeGlow) Pull(e Edge, overscroll, extent float32) {
	if extent <= 0 {
		return
	}
	delta := overscroll - g.pulled[e]
	g.pulled[e] = overscroll
	if delta > 0 {
		g.amount[e] = min(1, g.amount[e]+delta/extent)
	}
	g.held[e] = true
}

// Absorb lights an edge from the speed of a fling that hit it. An edge
// absorbs once until the next Release.
func (g *EdgeGlow) Absorb(e Edge, velocity float32, now time.Time) bool {
	if g.absorbed[e] || velocity <= 0 {
		return false
	}
	g.absorbed[e] = true
	g.amount[e] = max(g.amount[e], min(1, velocity/glowAbsorbVelocity))
	g.last = now
	return true
}

// Release lets both edges fade.
func (g *EdgeGlow) Release(now time.Time) {
	g.pulled = [2]float32{}
	g.held = [2]bool{}
	g.absorbed = [2]bool{}
	g.last = now
}

// Step fades released edges up to now.
func (g *EdgeGlow) Step(now time.Time) {
	dt := now.Sub(g.last)
	g.last = now
	if dt <= 0 {
		return
	}
	fade := float32(dt) / float32(glowDecay)
	for e := range g.amount {
		if g.held[e] {
			continue
		}
		g.amount[e] = max(0, g.amount[e]-fade)
	}
}

// Amounts returns the intensity of the Oldest and Newest edges.
func (g *EdgeGlow) Amounts() [2]float32 {
	return g.amount
}

// Finished reports whether both edges are dark.
func (g *EdgeGlow) Finished() bool {
	return g.amount[Oldest] == 0 && g.amount[Newest] == 0
}
