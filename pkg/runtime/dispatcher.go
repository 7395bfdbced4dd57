package runtime

import (
	"github.com/latticeforge/conclave/pkg/actor"
	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/queue"
	"github.com/latticeforge/conclave/pkg/statemachine"
)

// dispatcher unifies a flat actor.Behavior and a hierarchical
// statemachine.Machine behind one interface, so instance and the
// handler loop don't need to know which kind of actor they're driving.
type dispatcher interface {
	queue.Hooks
	Dispatch(e event.Event) (actor.Handler, string, bool)

	// Start runs the owning actor's creation hook, if any. For a flat
	// actor this is its Behavior's OnStart; a state machine has no
	// separate start hook, since EnterInitialState already covers the
	// root state's entry action.
	Start(ctx *actorContext, params any) error

	// Halt runs the owning actor's halt hook, if any, before the queue
	// is closed.
	Halt(ctx *actorContext) error
}

type behaviorDispatcher struct {
	b      *actor.Behavior
	onDrop func(event.Entry, string)
}

func (d *behaviorDispatcher) Start(ctx *actorContext, params any) error { return d.b.Start(ctx, params) }
func (d *behaviorDispatcher) Halt(ctx *actorContext) error              { return d.b.Halt(ctx) }

func (d *behaviorDispatcher) IsEventIgnored(t event.Type) bool  { return d.b.IsIgnored(t) }
func (d *behaviorDispatcher) IsEventDeferred(t event.Type) bool { return d.b.IsDeferred(t) }
func (d *behaviorDispatcher) HasDefaultHandler() bool           { return d.b.HasDefault() }

func (d *behaviorDispatcher) OnEventDropped(e event.Entry, reason string) {
	if d.onDrop != nil {
		d.onDrop(e, reason)
	}
}

func (d *behaviorDispatcher) Dispatch(e event.Event) (actor.Handler, string, bool) {
	t := e.EventType()
	if h, ok := d.b.HandlerFor(t); ok {
		return h, d.b.Name(), true
	}
	if t != event.WildCardEventType {
		if h, ok := d.b.HandlerFor(event.WildCardEventType); ok {
			return h, d.b.Name(), true
		}
	}
	if h, ok := d.b.DefaultHandler(); ok {
		return h, d.b.Name(), true
	}
	return nil, d.b.Name(), false
}

type machineDispatcher struct {
	m      *statemachine.Machine
	onDrop func(event.Entry, string)
}

// Start is a no-op for a state machine: the runtime runs
// Machine.EnterInitialState directly right after spawning, since
// there is no per-machine "creation params" hook distinct from the
// root state's own entry action.
func (d *machineDispatcher) Start(ctx *actorContext, params any) error { return nil }
func (d *machineDispatcher) Halt(ctx *actorContext) error              { return d.m.Halt(ctx) }

func (d *machineDispatcher) IsEventIgnored(t event.Type) bool  { return d.m.IsEventIgnored(t) }
func (d *machineDispatcher) IsEventDeferred(t event.Type) bool { return d.m.IsEventDeferred(t) }
func (d *machineDispatcher) HasDefaultHandler() bool           { return d.m.HasDefaultHandler() }

func (d *machineDispatcher) OnEventDropped(e event.Entry, reason string) {
	if d.onDrop != nil {
		d.onDrop(e, reason)
	}
}

func (d *machineDispatcher) Dispatch(e event.Event) (actor.Handler, string, bool) {
	h, s, ok := d.m.Dispatch(e)
	if !ok {
		return nil, d.m.CurrentState(), false
	}
	return h, s.Name, true
}
