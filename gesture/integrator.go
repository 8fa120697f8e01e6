package gesture

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// Integrator produces the offset curve of a fling or a programmatic scroll.
type Integrator interface {
	// Fling starts inertial motion from start with the given velocity in
	// pixels per second, never leaving [min, max].
	Fling(start, velocity, min, max float32, now time.Time)
	// StartScroll moves from start by delta.
	StartScroll(start, delta float32, now time.Time)
	// Step advances the motion to now and returns the current position.
	// finished is true once the motion has come to rest.
	Step(now time.Time) (pos float32, finished bool)
	ForceFinished()
	Finished() bool
	// Velocity is the current speed in pixels per second. After a fling
	// stopped at a bound it is the speed the motion had when it hit.
	Velocity() float32
}

const (
	springFPS = 60
	// flingProjection is how far ahead in seconds of constant velocity a
	// fling travels.
	flingProjection = 0.3
	flingFrequency  = 6.0
	scrollFrequency = 16.0
	// maxCatchUp bounds the number of physics steps run for one frame after
	// a stall.
	maxCatchUp = 2 * springFPS
)

// SpringIntegrator drives flings and scrolls with a critically damped
// spring. A fling springs towards a target projected from the release
// velocity; a scroll springs from rest to its destination.
type SpringIntegrator struct {
	fling  harmonica.Spring
	scroll harmonica.Spring
	active *harmonica.Spring

	pos, vel       float64
	target         float64
	lo, hi         float64
	last           time.Time
	finished       bool
	impactVelocity float64
}

var _ Integrator = (*SpringIntegrator)(nil)

func NewSpringIntegrator() *SpringIntegrator {
	return &SpringIntegrator{
		fling:    harmonica.NewSpring(harmonica.FPS(springFPS), flingFrequency, 1),
		scroll:   harmonica.NewSpring(harmonica.FPS(springFPS), scrollFrequency, 1),
		finished: true,
	}
}

func (s *SpringIntegrator) Fling(start, velocity, lo, hi float32, now time.Time) {
	s.active = &s.fling
	s.pos, s.vel = float64(start), float64(velocity)
	s.lo, s.hi = float64(lo), float64(hi)
	s.target = math.Max(s.lo, math.Min(s.pos+s.vel*flingProjection, s.hi))
	s.start(now)
}

func (s *SpringIntegrator) StartScroll(start, delta float32, now time.Time) {
	s.active = &s.scroll
	s.pos, s.vel = float64(start), 0
	s.target = float64(start + delta)
	s.lo, s.hi = math.Min(s.pos, s.target), math.Max(s.pos, s.target)
	s.start(now)
}

func (s *SpringIntegrator) start(now time.Time) {
	s.last = now
	s.impactVelocity = 0
	s.finished = s.pos == s.target && s.vel == 0
}

func (s *SpringIntegrator) Step(now time.Time) (float32, bool) {
	if s.finished {
		return float32(s.pos), true
	}
	frame := time.Second / springFPS
	steps := int(now.Sub(s.last) / frame)
	if steps <= 0 {
		return float32(s.pos), false
	}
	s.last = s.last.Add(time.Duration(steps) * frame)
	for i, n := 0, min(steps, maxCatchUp); i < n; i++ {
		s.pos, s.vel = s.active.Update(s.pos, s.vel, s.target)
		if s.pos < s.lo || s.pos > s.hi {
			s.impactVelocity = math.Abs(s.vel)
			s.pos = math.Max(s.lo, math.Min(s.pos, s.hi))
			s.vel = 0
			s.finished = true
			break
		}
		if math.Abs(s.pos-s.target) < 0.5 && math.Abs(s.vel) < 5 {
			s.pos, s.vel = s.target, 0
			s.finished = true
			break
		}
	}
	return float32(s.pos), s.finished
}

func (s *SpringIntegrator) ForceFinished() {
	s.vel = 0
	s.finished = true
}

func (s *SpringIntegrator) Finished() bool {
	return s.finished
}

func (s *SpringIntegrator) Velocity() float32 {
	if s.finished {
		return float32(s.impactVelocity)
	}
	return float32(math.Abs(s.vel))
}
