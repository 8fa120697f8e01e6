package gesture

import "time"

// velocityWindow is how far back the tracker looks when estimating the
// release velocity.
const velocityWindow = 100 * time.Millisecond

type sample struct {
	t time.Time
	x float32
}

// VelocityTracker estimates the horizontal pointer velocity from recent
// samples.
type VelocityTracker struct {
	samples []sample
}

func (v *VelocityTracker) Reset() {
	v.samples = v.samples[:0]
}

// Add records the pointer position at t, dropping samples that fell out of
// the window.
func (v *VelocityTracker) Add(t time.Time, x float32) {
	v.samples = append(v.samples, sample{t: t, x: x})
	cut := 0
	for cut < len(v.samples)-1 && t.Sub(v.samples[cut].t) > velocityWindow {
		cut++
	}
	v.samples = v.samples[cut:]
}

// Velocity returns the velocity in pixels per second, clamped to
// [-limit, limit].
func (v *VelocityTracker) Velocity(limit float32) float32 {
	if len(v.samples) < 2 {
		return 0
	}
	first, last := v.samples[0], v.samples[len(v.samples)-1]
	dt := last.t.Sub(first.t).Seconds()
	if dt <= 0 {
		return 0
	}
	vel := (last.x - first.x) / float32(dt)
	return max(-limit, min(vel, limit))
}
