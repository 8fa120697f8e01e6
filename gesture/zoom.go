package gesture

import "time"

const (
	MinZoom = 1
	MaxZoom = 4
	// ZoomDuration is the length of each half of the transition.
	ZoomDuration = 350 * time.Millisecond
)

// zoomTransition shrinks the chart away, calls a midpoint function, then
// brings it back. The zoom factor runs 1 to 4 and back with a decelerating
// curve.
type zoomTransition struct {
	running  bool
	out      bool
	start    time.Time
	value    float32
	midpoint func()
}

func (z *zoomTransition) begin(now time.Time, midpoint func()) {
	z.running = true
	z.out = true
	z.start = now
	z.value = MinZoom
	z.midpoint = midpoint
}

// step advances the transition and reports whether it is still running.
func (z *zoomTransition) step(now time.Time) bool {
	if !z.running {
		return false
	}
	t := float32(now.Sub(z.start)) / float32(ZoomDuration)
	if t >= 1 {
		if z.out {
			z.out = false
			z.start = now
			z.value = MaxZoom
			if fn := z.midpoint; fn != nil {
				z.midpoint = nil
				fn()
			}
			return true
		}
		z.running = false
		z.value = MinZoom
		return false
	}
	progress := decelerate(max(t, 0))
	if z.out {
		z.value = MinZoom + (MaxZoom-MinZoom)*progress
	} else {
		z.value = MaxZoom - (MaxZoom-MinZoom)*progress
	}
	return true
}

// cancel stops the transition without calling a midpoint not yet reached.
func (z *zoomTransition) cancel() {
	z.midpoint = nil
	z.running = false
	z.value = MinZoom
}

func decelerate(t float32) float32 {
	return 1 - (1-t)*(1-t)
}

// LabelAlpha is the opacity of the tick labels at the given zoom factor.
func LabelAlpha(zoom float32) float32 {
	return max(0, min(1, (MaxZoom-zoom)/(MaxZoom-MinZoom)))
}
