package statemachine

import (
	"fmt"

	"github.com/latticeforge/conclave/pkg/actor"
	"github.com/latticeforge/conclave/pkg/event"
)

// Machine is a named collection of states plus the active stack. The
// zero value is not usable; build one with NewMachine.
type Machine struct {
	name    string
	states  map[string]*State
	initial string
	stack   []*State
	onHalt  func(ctx Context) error

	// transitioned and inExitAction bound each action (a handler, entry
	// action, or exit action invocation) to at most one Goto/Push/Pop,
	// and forbid any transition while an exit action is running.
	transitioned bool
	inExitAction bool
}

// Builder constructs a Machine fluently.
type Builder struct {
	m *Machine
}

// NewMachine starts building a machine named name (the owning actor
// type, used in trace output and bug reports).
func NewMachine(name string) *Builder {
	return &Builder{m: &Machine{name: name, states: make(map[string]*State)}}
}

// AddState registers s as one of the machine's states.
func (b *Builder) AddState(s *State) *Builder {
	b.m.states[s.Name] = s
	return b
}

// Start designates the machine's initial state by name.
func (b *Builder) Start(name string) *Builder {
	b.m.initial = name
	return b
}

// OnHalt registers f to run once a HaltEvent is dequeued or Pop empties
// the stack, before the queue is closed. Halting does not run the active
// state's exit action; this hook runs regardless of which state was
// active when the halt arrived.
func (b *Builder) OnHalt(f func(ctx Context) error) *Builder {
	b.m.onHalt = f
	return b
}

// Build finalizes the Machine, putting the initial state on the stack.
func (b *Builder) Build() (*Machine, error) {
	start, ok := b.m.states[b.m.initial]
	if !ok {
		return nil, fmt.Errorf("statemachine: %s: unknown start state %q", b.m.name, b.m.initial)
	}
	b.m.stack = []*State{start}
	return b.m, nil
}

// Name returns the machine's label.
func (m *Machine) Name() string { return m.name }

// CurrentState returns the active (top-of-stack) state's name, or
// "<halted>" once Pop has emptied the stack.
func (m *Machine) CurrentState() string {
	top := m.top()
	if top == nil {
		return "<halted>"
	}
	return top.Name
}

func (m *Machine) top() *State {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// StackDepth returns the number of frames on the state stack, for
// diagnostics and tests.
func (m *Machine) StackDepth() int { return len(m.stack) }

// IsEventIgnored searches the stack top-down: the first frame that
// either ignores, defers, or explicitly handles t decides the outcome.
func (m *Machine) IsEventIgnored(t event.Type) bool {
	for i := len(m.stack) - 1; i >= 0; i-- {
		s := m.stack[i]
		if s.Behavior.IsIgnored(t) {
			return true
		}
		if s.Behavior.IsDeferred(t) {
			return false
		}
		if _, ok := s.Behavior.HandlerFor(t); ok {
			return false
		}
	}
	return false
}

// IsEventDeferred mirrors IsEventIgnored for the deferred policy.
func (m *Machine) IsEventDeferred(t event.Type) bool {
	for i := len(m.stack) - 1; i >= 0; i-- {
		s := m.stack[i]
		if s.Behavior.IsDeferred(t) {
			return true
		}
		if s.Behavior.IsIgnored(t) {
			return false
		}
		if _, ok := s.Behavior.HandlerFor(t); ok {
			return false
		}
	}
	return false
}

// HasDefaultHandler reports whether any frame on the stack, top-down,
// has a default handler.
func (m *Machine) HasDefaultHandler() bool {
	for i := len(m.stack) - 1; i >= 0; i-- {
		if m.stack[i].Behavior.HasDefault() {
			return true
		}
	}
	return false
}

// Dispatch finds the handler for t: an exact match searched top-down,
// then a wildcard match searched top-down, then the first default
// handler found searching top-down. It returns the state whose Behavior supplied the handler,
// for trace/bug-report attribution.
func (m *Machine) Dispatch(e event.Event) (actor.Handler, *State, bool) {
	t := e.EventType()
	for i := len(m.stack) - 1; i >= 0; i-- {
		s := m.stack[i]
		if h, ok := s.Behavior.HandlerFor(t); ok {
			return h, s, true
		}
	}
	if t != event.WildCardEventType {
		for i := len(m.stack) - 1; i >= 0; i-- {
			s := m.stack[i]
			if h, ok := s.Behavior.HandlerFor(event.WildCardEventType); ok {
				return h, s, true
			}
		}
	}
	for i := len(m.stack) - 1; i >= 0; i-- {
		s := m.stack[i]
		if h, ok := s.Behavior.DefaultHandler(); ok {
			return h, s, true
		}
	}
	return nil, nil, false
}

// EnterInitialState runs the root state's entry action. The runtime
// calls this once, right after spawning a state-machine actor, since
// Build puts the initial state on the stack without running its entry
// action (there is no prior state to exit from).
func (m *Machine) EnterInitialState(ctx Context) error {
	top := m.top()
	if top.OnEntry == nil {
		return nil
	}
	m.BeginAction()
	if err := top.OnEntry(ctx); err != nil {
		return fmt.Errorf("statemachine: %s: entry action for %q: %w", m.name, top.Name, err)
	}
	return nil
}

// BeginAction resets the transition budget for the action about to run:
// a handler invocation or an entry action. The caller (the runtime, for
// handler invocations; Machine itself, for entry actions it invokes)
// calls this immediately before running the action's code, so each
// action gets its own fresh allowance of at most one Goto/Push/Pop. Exit
// actions get no allowance: any transition issued from one is rejected.
func (m *Machine) BeginAction() {
	m.transitioned = false
}

// checkTransition enforces that at most one transition happens per
// action and that no transition happens from inside an exit action.
// It marks the budget spent on success.
func (m *Machine) checkTransition(desc string) error {
	if m.inExitAction {
		return fmt.Errorf("statemachine: %s: %s issued from inside an exit action", m.name, desc)
	}
	if m.transitioned {
		return fmt.Errorf("statemachine: %s: %s is a second transition issued by the same action", m.name, desc)
	}
	m.transitioned = true
	return nil
}

// Halt runs the machine's halt hook, if one was registered with OnHalt.
func (m *Machine) Halt(ctx Context) error {
	if m.onHalt == nil {
		return nil
	}
	return m.onHalt(ctx)
}

// Goto replaces the top of the stack with the named state: the current
// top's exit action runs, then the target's entry action.
func (m *Machine) Goto(ctx Context, name string) error {
	if err := m.checkTransition(fmt.Sprintf("goto %q", name)); err != nil {
		return err
	}
	target, ok := m.states[name]
	if !ok {
		return fmt.Errorf("statemachine: %s: goto to unknown state %q", m.name, name)
	}
	top := m.top()
	if top == nil {
		return fmt.Errorf("statemachine: %s: goto %q issued after the machine halted", m.name, name)
	}
	if top.OnExit != nil {
		m.inExitAction = true
		err := top.OnExit(ctx)
		m.inExitAction = false
		if err != nil {
			return fmt.Errorf("statemachine: %s: exit action for %q: %w", m.name, top.Name, err)
		}
	}
	m.stack[len(m.stack)-1] = target
	if target.OnEntry != nil {
		m.BeginAction()
		err := target.OnEntry(ctx)
		// The entry action had its own budget; the action that issued
		// this Goto has still spent its one transition.
		m.transitioned = true
		if err != nil {
			return fmt.Errorf("statemachine: %s: entry action for %q: %w", m.name, target.Name, err)
		}
	}
	return nil
}

// Push adds the named state above the current top; only the target's
// entry action runs, leaving the frame beneath it intact.
func (m *Machine) Push(ctx Context, name string) error {
	if err := m.checkTransition(fmt.Sprintf("push %q", name)); err != nil {
		return err
	}
	target, ok := m.states[name]
	if !ok {
		return fmt.Errorf("statemachine: %s: push of unknown state %q", m.name, name)
	}
	m.stack = append(m.stack, target)
	if target.OnEntry != nil {
		m.BeginAction()
		err := target.OnEntry(ctx)
		// As in Goto: the issuing action's budget stays spent.
		m.transitioned = true
		if err != nil {
			return fmt.Errorf("statemachine: %s: entry action for %q: %w", m.name, target.Name, err)
		}
	}
	return nil
}

// Pop removes the top state, running its exit action, and resumes the
// state beneath it. Popping the last frame empties the stack and
// reports halted=true; the caller (the runtime) is responsible for
// halting the actor exactly as it would for an explicit HaltEvent.
func (m *Machine) Pop(ctx Context) (halted bool, err error) {
	if err := m.checkTransition("pop"); err != nil {
		return false, err
	}
	top := m.top()
	if top == nil {
		return false, fmt.Errorf("statemachine: %s: pop issued after the machine halted", m.name)
	}
	if top.OnExit != nil {
		m.inExitAction = true
		exitErr := top.OnExit(ctx)
		m.inExitAction = false
		if exitErr != nil {
			return false, fmt.Errorf("statemachine: %s: exit action for %q: %w", m.name, top.Name, exitErr)
		}
	}
	m.stack = m.stack[:len(m.stack)-1]
	return len(m.stack) == 0, nil
}
