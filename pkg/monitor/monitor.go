package monitor

import (
	"fmt"

	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/failure"
)

// Temperature classifies a monitor state per §4.4. A monitor observed in
// a Hot state for too long without cooling off is a liveness bug.
type Temperature int

const (
	Cold Temperature = iota
	Hot
)

func (t Temperature) String() string {
	if t == Hot {
		return "hot"
	}
	return "cold"
}

// Context is the reduced surface a monitor's handlers use: monitors
// don't send events or create actors, they only assert invariants and
// transition between states. The concrete implementation lives in
// package runtime.
type Context interface {
	Goto(state string)
	Assert(cond bool, format string, args ...any)
	Sink() failure.Sink
}

// Handler reacts to one observed event while its state is active.
type Handler func(ctx Context, e event.Event) error

// State is one node of a Monitor.
type State struct {
	Name        string
	Temperature Temperature
	handlers    map[event.Type]Handler
	onEntry     func(ctx Context) error
}

// StateBuilder builds a monitor State fluently.
type StateBuilder struct {
	s *State
}

// NewState starts building a state named name with the given temperature.
func NewState(name string, temp Temperature) *StateBuilder {
	return &StateBuilder{s: &State{Name: name, Temperature: temp, handlers: make(map[event.Type]Handler)}}
}

// On registers h as the handler for t while this state is active.
// Events with no registered handler are silently ignored by Observe.
func (b *StateBuilder) On(t event.Type, h Handler) *StateBuilder {
	b.s.handlers[t] = h
	return b
}

// OnEntry registers the action run when this state becomes active.
func (b *StateBuilder) OnEntry(f func(ctx Context) error) *StateBuilder {
	b.s.onEntry = f
	return b
}

// Build finalizes and returns the State.
func (b *StateBuilder) Build() *State { return b.s }

// Monitor is a named, flat specification state machine. The zero value
// is not usable; build one with NewMonitor.
type Monitor struct {
	name     string
	states   map[string]*State
	initial  string
	current  *State
	hotSteps int
}

// Builder constructs a Monitor fluently.
type Builder struct {
	m *Monitor
}

// NewMonitor starts building a monitor named name.
func NewMonitor(name string) *Builder {
	return &Builder{m: &Monitor{name: name, states: make(map[string]*State)}}
}

// AddState registers s as one of the monitor's states.
func (b *Builder) AddState(s *State) *Builder {
	b.m.states[s.Name] = s
	return b
}

// Start designates the monitor's initial state by name.
func (b *Builder) Start(name string) *Builder {
	b.m.initial = name
	return b
}

// Build finalizes the Monitor, entering its initial state.
func (b *Builder) Build() (*Monitor, error) {
	start, ok := b.m.states[b.m.initial]
	if !ok {
		return nil, fmt.Errorf("monitor: %s: unknown start state %q", b.m.name, b.m.initial)
	}
	b.m.current = start
	return b.m, nil
}

// Name returns the monitor's label.
func (m *Monitor) Name() string { return m.name }

// CurrentState returns the active state's name.
func (m *Monitor) CurrentState() string { return m.current.Name }

// IsHot reports whether the active state is tagged Hot.
func (m *Monitor) IsHot() bool { return m.current.Temperature == Hot }

// HotSteps returns the number of consecutive scheduling steps the
// monitor has spent in a hot state, per StepTemperature.
func (m *Monitor) HotSteps() int { return m.hotSteps }

// StepTemperature advances the liveness clock by one scheduling step:
// it increments while the active state is hot and resets to zero the
// moment the monitor transitions to, or starts in, a cold state. The
// scheduler's driver loop calls this once per scheduling step.
func (m *Monitor) StepTemperature() {
	if m.IsHot() {
		m.hotSteps++
	} else {
		m.hotSteps = 0
	}
}

// Observe delivers e to the current state's handler for its event type,
// if one is registered. Unmatched events are not an error: a monitor
// only reacts to the event types it declared interest in.
func (m *Monitor) Observe(ctx Context, e event.Event) error {
	h, ok := m.current.handlers[e.EventType()]
	if !ok {
		return nil
	}
	return h(ctx, e)
}

// Goto transitions the monitor to the named state, running its entry
// action. Monitor states have no exit actions: per §4.4 a monitor is a
// pure observer, so there is nothing to unwind on the way out.
func (m *Monitor) Goto(ctx Context, name string) error {
	target, ok := m.states[name]
	if !ok {
		return fmt.Errorf("monitor: %s: goto unknown state %q", m.name, name)
	}
	m.current = target
	if target.onEntry != nil {
		if err := target.onEntry(ctx); err != nil {
			return fmt.Errorf("monitor: %s: entry action for %q: %w", m.name, target.Name, err)
		}
	}
	return nil
}
