package statemachine

import (
	"github.com/latticeforge/conclave/pkg/actor"
	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
)

// Context is the surface a state's handlers and entry/exit actions use.
// It extends actor.Context with the stack transitions unique to a state
// machine. The concrete implementation lives in package runtime.
type Context interface {
	actor.Context
	// CreateMachine spawns a new state-machine actor. factory is called
	// once per spawned instance so each actor gets its own independent
	// state stack instead of sharing one Machine's mutable stack across
	// instances; a typical factory is a closure that rebuilds the
	// Machine from its Builder every call.
	CreateMachine(name string, factory func() (*Machine, error), params any) coreid.ActorId
	// Goto replaces the active state (the top of the stack) with the
	// named state, running the current state's exit action then the
	// target's entry action.
	Goto(state string)
	// Push adds the named state above the active state, running only the
	// target's entry action. The pushed-under state remains on the stack
	// and may still handle events the new top state doesn't.
	Push(state string)
	// Pop removes the active state, running its exit action, and
	// resumes the state beneath it. Popping the root state empties the
	// stack and halts the actor, running its OnHalt hook exactly like
	// an explicit HaltEvent.
	Pop()
	// CurrentState returns the name of the active (top-of-stack) state.
	CurrentState() string
}

// EntryExit is a state's optional entry or exit action.
type EntryExit func(ctx Context) error

// Handler processes one event while this state, or a state pushed above
// it, is active. It is distinct from actor.Handler so state code gets
// Goto/Push/Pop directly, without an assertion of its own; Build wraps
// each Handler into the actor.Handler the underlying Behavior stores.
type Handler func(ctx Context, e event.Event) error

// wrap adapts a statemachine Handler to actor.Handler so it can be
// stored in the state's actor.Behavior. The type assertion always
// succeeds: every Context the runtime hands to a handler is a
// statemachine.Context under the hood, even when the static parameter
// type is the narrower actor.Context.
func wrap(h Handler) actor.Handler {
	return func(ctx actor.Context, e event.Event) error {
		return h(ctx.(Context), e)
	}
}

// State is one node of a Machine: its own event Behavior plus the
// actions that run when it becomes, or stops being, the active state.
type State struct {
	Name     string
	Behavior *actor.Behavior
	OnEntry  EntryExit
	OnExit   EntryExit
}

// StateBuilder builds a State fluently, wrapping an actor.Builder for
// the event-dispatch half.
type StateBuilder struct {
	s   *State
	bld *actor.Builder
}

// NewState starts building a state named name.
func NewState(name string) *StateBuilder {
	return &StateBuilder{s: &State{Name: name}, bld: actor.NewBuilder(name)}
}

// OnEntry registers the state's entry action.
func (b *StateBuilder) OnEntry(f EntryExit) *StateBuilder {
	b.s.OnEntry = f
	return b
}

// OnExit registers the state's exit action.
func (b *StateBuilder) OnExit(f EntryExit) *StateBuilder {
	b.s.OnExit = f
	return b
}

// On registers h as the handler for t while this state is active.
func (b *StateBuilder) On(t event.Type, h Handler) *StateBuilder {
	b.bld.On(t, wrap(h))
	return b
}

// OnWildCard registers h as the catch-all handler for any event type
// this state (or a state pushed above it) doesn't otherwise handle.
func (b *StateBuilder) OnWildCard(h Handler) *StateBuilder {
	b.bld.On(event.WildCardEventType, wrap(h))
	return b
}

// Ignore marks each of types as ignored while this state is active.
func (b *StateBuilder) Ignore(types ...event.Type) *StateBuilder {
	b.bld.Ignore(types...)
	return b
}

// Defer marks each of types as deferred while this state is active.
func (b *StateBuilder) Defer(types ...event.Type) *StateBuilder {
	b.bld.Defer(types...)
	return b
}

// OnDefault registers the state's default handler.
func (b *StateBuilder) OnDefault(h Handler) *StateBuilder {
	b.bld.OnDefault(wrap(h))
	return b
}

// Build finalizes and returns the State.
func (b *StateBuilder) Build() *State {
	b.s.Behavior = b.bld.Build()
	return b.s
}
