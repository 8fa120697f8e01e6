package gesture

import (
	"time"

	"gioui.org/f32"
)

type press struct {
	active      bool
	id          int
	startOffset float32
	start       f32.Point
	last        f32.Point
	time        time.Time
	longPressAt time.Time
	longPressed bool
}

// Machine is the gesture state machine. It owns the scroll offset and is
// driven from a single goroutine: pointer events through Pointer, frames
// through Update.
type Machine struct {
	cfg        Config
	integrator Integrator
	tracker    VelocityTracker
	glow       EdgeGlow
	zoom       zoomTransition

	state     State
	offset    float32
	maxOffset float32
	width     float32

	overscroll     OverscrollMode
	contentScrolls bool

	press   press
	actions []Action
}

// NewMachine creates an idle machine. A nil integrator uses a
// SpringIntegrator.
func NewMachine(cfg Config, integrator Integrator) *Machine {
	if integrator == nil {
		integrator = NewSpringIntegrator()
	}
	return &Machine{
		cfg:        cfg.withDefaults(),
		integrator: integrator,
	}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Offset() float32 {
	return m.offset
}

func (m *Machine) MaxOffset() float32 {
	return m.maxOffset
}

func (m *Machine) Config() Config {
	return m.cfg
}

func (m *Machine) SetConfig(cfg Config) {
	m.cfg = cfg.withDefaults()
}

// SetMaxOffset updates the scroll range, pulling the offset back inside it.
func (m *Machine) SetMaxOffset(maxOffset float32) {
	m.maxOffset = max(0, maxOffset)
	m.offset = max(0, min(m.offset, m.maxOffset))
}

// SetWidth sets the extent of the view, used to scale the edge glow.
func (m *Machine) SetWidth(width float32) {
	m.width = width
}

// SetOverscroll configures the edge glow. contentScrolls tells whether there
// is enough content for IfContentScrolls to show the glow.
func (m *Machine) SetOverscroll(mode OverscrollMode, contentScrolls bool) {
	m.overscroll = mode
	m.contentScrolls = contentScrolls
	if !m.overscrollEnabled() {
		m.glow = EdgeGlow{}
	}
}

func (m *Machine) overscrollEnabled() bool {
	switch m.overscroll {
	case OverscrollAlways:
		return true
	case OverscrollIfContentScrolls:
		return m.contentScrolls
	}
	return false
}

// InMotion reports whether the offset is being moved by a drag, a fling or a
// programmatic scroll.
func (m *Machine) InMotion() bool {
	return m.state >= Moving && m.state != Zooming
}

// Pointer feeds one pointer event. It returns false when the event is not
// part of a horizontal gesture so that an enclosing scroller may claim it.
func (m *Machine) Pointer(ev Event) bool {
	if m.state == Zooming {
		return true
	}
	m.checkLongPress(ev.Time)
	pos := ev.Position
	switch ev.Kind {
	case Press:
		if m.press.active && ev.ID != m.press.id {
			return true
		}
		m.tracker.Reset()
		m.tracker.Add(ev.Time, pos.X)
		m.integrator.ForceFinished()
		m.glow.Release(ev.Time)
		m.state = Initialize
		m.press = press{
			active:      true,
			id:          ev.ID,
			startOffset: m.offset,
			start:       pos,
			last:        pos,
			time:        ev.Time,
			longPressAt: ev.Time.Add(m.cfg.LongPressTimeout),
		}
		return true

	case Drag:
		if !m.press.active || ev.ID != m.press.id {
			return false
		}
		m.press.last = pos
		if m.press.longPressed {
			return true
		}
		m.tracker.Add(ev.Time, pos.X)
		dx := pos.X - m.press.start.X
		dy := pos.Y - m.press.start.Y
		if abs(dx) > m.cfg.TouchSlop || m.state >= Moving {
			m.press.longPressAt = time.Time{}
			m.moveTo(m.press.startOffset + dx)
			m.state = Moving
		} else if abs(dy) > m.cfg.TouchSlop && m.state < Moving {
			m.press.longPressAt = time.Time{}
			return false
		}
		return true

	case Release, Cancel:
		if !m.press.active || (ev.Kind == Release && ev.ID != m.press.id) {
			return false
		}
		m.press.active = false
		m.press.longPressAt = time.Time{}
		m.press.last = pos
		if m.press.longPressed {
			m.state = Idle
			return true
		}
		if m.state >= Moving {
			velocity := m.tracker.Velocity(m.cfg.MaxFlingVelocity)
			m.integrator.ForceFinished()
			m.glow.Release(ev.Time)
			m.state = Flinging
			m.integrator.Fling(m.offset, velocity, 0, m.maxOffset, ev.Time)
			return true
		}
		m.state = Idle
		if ev.Kind == Release {
			held := ev.Time.Sub(m.press.time)
			if held > m.cfg.TapTimeout && held < m.cfg.LongPressTimeout {
				m.emit(Tap, pos)
			}
		}
		return true

	case Scroll:
		if m.press.active || ev.Delta == 0 {
			return false
		}
		m.integrator.ForceFinished()
		m.state = Idle
		m.offset = max(0, min(m.offset+ev.Delta, m.maxOffset))
		return true
	}
	return false
}

// moveTo sets the drag offset, lighting the glow when it crosses a bound.
func (m *Machine) moveTo(raw float32) {
	m.offset = max(0, min(raw, m.maxOffset))
	if !m.overscrollEnabled() {
		return
	}
	extent := m.width
	if extent <= 0 {
		extent = 1
	}
	switch {
	case raw > m.maxOffset:
		m.glow.Pull(Oldest, raw-m.maxOffset, extent)
	case raw < 0:
		m.glow.Pull(Newest, -raw, extent)
	}
}

func (m *Machine) checkLongPress(now time.Time) {
	p := &m.press
	if !p.active || p.longPressed || p.longPressAt.IsZero() || now.Before(p.longPressAt) {
		return
	}
	p.longPressed = true
	p.longPressAt = time.Time{}
	m.emit(LongPress, p.last)
}

func (m *Machine) emit(kind ActionKind, pos f32.Point) {
	m.actions = append(m.actions, Action{Kind: kind, Position: pos, Offset: m.offset})
}

// Actions returns and clears the taps and long presses resolved so far.
func (m *Machine) Actions() []Action {
	out := m.actions
	m.actions = nil
	return out
}

// Step is the outcome of one Update.
type Step struct {
	// Moved is set while the integrator is still producing positions.
	Moved bool
	// Settled is set on the update that ended a fling or a scroll.
	Settled bool
}

// Update advances timers and animations to now.
func (m *Machine) Update(now time.Time) Step {
	if m.state == Zooming {
		if !m.zoom.step(now) {
			m.state = Idle
		}
		return Step{}
	}
	m.checkLongPress(now)
	m.glow.Step(now)

	var st Step
	switch m.state {
	case Flinging, Scrolling:
		pos, finished := m.integrator.Step(now)
		if pos >= 0 && pos <= m.maxOffset {
			m.offset = pos
		}
		if !finished {
			st.Moved = true
			return st
		}
		if m.state == Flinging && m.overscrollEnabled() && m.absorb(now) {
			m.state = SettlingOverscroll
			return st
		}
		m.state = Idle
		st.Settled = true
	case SettlingOverscroll:
		if m.glow.Finished() {
			m.state = Idle
			st.Settled = true
		}
	}
	return st
}

func (m *Machine) absorb(now time.Time) bool {
	v := m.integrator.Velocity()
	switch {
	case m.offset >= m.maxOffset:
		return m.glow.Absorb(Oldest, v, now)
	case m.offset <= 0:
		return m.glow.Absorb(Newest, v, now)
	}
	return false
}

// ScrollTo jumps to offset. It is ignored while zooming.
func (m *Machine) ScrollTo(offset float32) bool {
	if m.state == Zooming {
		return false
	}
	offset = max(0, min(offset, m.maxOffset))
	if offset == m.offset {
		return false
	}
	m.offset = offset
	return true
}

// SmoothScrollTo starts a programmatic scroll to offset. It is ignored while
// zooming or when already there.
func (m *Machine) SmoothScrollTo(offset float32, now time.Time) bool {
	if m.state == Zooming {
		return false
	}
	offset = max(0, min(offset, m.maxOffset))
	if offset == m.offset {
		return false
	}
	m.integrator.ForceFinished()
	m.state = Scrolling
	m.integrator.StartScroll(m.offset, offset-m.offset, now)
	return true
}

// Halt stops a fling, a scroll or the zoom transition, as a data swap does.
// A pressed pointer keeps its gesture.
func (m *Machine) Halt() {
	m.integrator.ForceFinished()
	switch m.state {
	case Zooming:
		m.zoom.cancel()
		m.state = Idle
	case Flinging, Scrolling, SettlingOverscroll:
		m.state = Idle
	}
}

// SetOffset moves the offset without animation, shifting a drag in progress
// along with it.
func (m *Machine) SetOffset(offset float32) {
	offset = max(0, min(offset, m.maxOffset))
	if m.press.active {
		m.press.startOffset += offset - m.offset
	}
	m.offset = offset
}

// StartZoom plays the zoom transition, calling midpoint when the chart is
// fully shrunk. A running transition is restarted and its midpoint dropped.
func (m *Machine) StartZoom(now time.Time, midpoint func()) {
	if m.zoom.running {
		m.zoom.cancel()
	}
	m.integrator.ForceFinished()
	m.press = press{}
	m.state = Zooming
	m.zoom.begin(now, midpoint)
}

// Zoom is the current zoom factor, MinZoom outside of a transition.
func (m *Machine) Zoom() float32 {
	if !m.zoom.running {
		return MinZoom
	}
	return m.zoom.value
}

// Glow returns the edge glow intensities of the Oldest and Newest edges.
func (m *Machine) Glow() [2]float32 {
	return m.glow.Amounts()
}

// NextDeadline returns when the machine next needs an Update: now for a
// running animation, the long press time for a held pointer.
func (m *Machine) NextDeadline(now time.Time) (time.Time, bool) {
	switch {
	case m.state == Zooming, m.state == Flinging, m.state == Scrolling, m.state == SettlingOverscroll:
		return now, true
	case !m.glow.Finished():
		return now, true
	case m.press.active && !m.press.longPressAt.IsZero():
		return m.press.longPressAt, true
	}
	return time.Time{}, false
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
