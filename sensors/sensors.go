// Package sensors samples named value sources into timeline tables.
package sensors

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

type Unit uint8

func (u Unit) String() string {
	switch u {
	case Joules:
		return "J"
	case Watts:
		return "W"
	case Amps:
		return "A"
	case Volts:
		return "V"
	default:
		return "?"
	}
}

const (
	Joules Unit = iota
	Watts
	Amps
	Volts
	Unknown
)

const (
	// MicroToUnprefixed is the conversion factor from a micro SI unit to an unprefixed
	// one.
	MicroToUnprefixed = 1.0 / 1_000_000
)

type Sensor interface {
	Name() string
	Unit() Unit
	Read() (float64, error)
}

// Sine oscillates between Base and Base+2*Amplitude.
type Sine struct {
	Label     string
	Period    time.Duration
	Amplitude float64
	Base      float64
	Phase     float64
	Clock     func() time.Time
}

func (s *Sine) Name() string { return s.Label }
func (s *Sine) Unit() Unit   { return Watts }

func (s *Sine) Read() (float64, error) {
	if s.Period <= 0 {
		return 0, fmt.Errorf("sensor %s has no period", s.Label)
	}
	now := s.Clock()
	turns := float64(now.UnixNano()%int64(s.Period)) / float64(s.Period)
	return s.Base + s.Amplitude*(1+math.Sin(2*math.Pi*turns+s.Phase)), nil
}

// Walk is a random walk clamped to [Min, Max].
type Walk struct {
	Label    string
	Step     float64
	Min, Max float64
	rand     *rand.Rand
	value    float64
}

func NewWalk(label string, step, lo, hi float64, seed int64) *Walk {
	r := rand.New(rand.NewSource(seed))
	return &Walk{
		Label: label,
		Step:  step,
		Min:   lo,
		Max:   hi,
		rand:  r,
		value: lo + (hi-lo)*r.Float64(),
	}
}

func (w *Walk) Name() string { return w.Label }
func (w *Walk) Unit() Unit   { return Joules }

func (w *Walk) Read() (float64, error) {
	w.value += (w.rand.Float64()*2 - 1) * w.Step
	w.value = max(w.Min, min(w.value, w.Max))
	return w.value, nil
}

// Synthetic returns n sensors alternating between sine waves of growing
// period and random walks.
func Synthetic(n int, seed int64, clock func() time.Time) []Sensor {
	out := make([]Sensor, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out = append(out, &Sine{
				Label:     fmt.Sprintf("wave %d", i/2),
				Period:    time.Duration(i/2+1) * 10 * time.Second,
				Amplitude: 20 + 5*float64(i),
				Base:      5,
				Phase:     float64(i),
				Clock:     clock,
			})
			continue
		}
		out = append(out, NewWalk(fmt.Sprintf("walk %d", i/2), 4, 0, 60, seed+int64(i)))
	}
	return out
}
