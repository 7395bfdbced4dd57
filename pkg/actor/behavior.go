package actor

import (
	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/failure"
)

// Context is the surface a Handler uses to act on the runtime: send and
// raise events, create child actors, and make scheduler-controlled
// random choices. The concrete implementation lives in package runtime;
// this package only depends on the interface, so actor never imports
// runtime.
type Context interface {
	Self() coreid.ActorId
	Group() coreid.EventGroup

	Send(to coreid.ActorId, e event.Event)
	Raise(e event.Event)
	CreateActor(name string, behavior *Behavior, params any) coreid.ActorId

	// Receive blocks the calling handler until an entry matching one of
	// types (and predicate, if non-nil) arrives, per §4.1. It is itself
	// a scheduling decision point: the runtime marks this operation
	// BlockedReceive and may run other operations while it waits.
	Receive(predicate event.Predicate, types ...event.Type) event.Event

	RandomBool() bool
	RandomInteger(max int) int

	// Monitor delivers e synchronously to every monitor registered on
	// the runtime, per §4.4. A monitor with no handler for e's type
	// simply ignores it.
	Monitor(e event.Event)

	Sink() failure.Sink
}

// Handler processes one event delivered to an actor. A non-nil error is
// an ordinary failure (e.g. a handler-level precondition violation the
// caller should see returned); protocol-fatal conditions go through
// ctx.Sink() instead, per §7.
type Handler func(ctx Context, e event.Event) error

// Behavior is an immutable event-dispatch table: the handler for each
// event type, which types are deferred or ignored, and the optional
// default handler invoked when nothing else is dequeuable. Build one
// with NewBuilder.
type Behavior struct {
	name     string
	handlers map[event.Type]Handler
	ignored  map[event.Type]bool
	deferred map[event.Type]bool
	def      Handler
	onStart  func(ctx Context, params any) error
	onHalt   func(ctx Context) error
}

// Name returns the behavior's label, normally the user-facing state or
// actor type name, used in trace output and bug reports.
func (b *Behavior) Name() string { return b.name }

// HandlerFor returns the handler registered for t, if any.
func (b *Behavior) HandlerFor(t event.Type) (Handler, bool) {
	h, ok := b.handlers[t]
	return h, ok
}

// DefaultHandler returns the behavior's default handler, if any.
func (b *Behavior) DefaultHandler() (Handler, bool) {
	if b.def == nil {
		return nil, false
	}
	return b.def, true
}

// IsIgnored reports whether t is declared ignored.
func (b *Behavior) IsIgnored(t event.Type) bool { return b.ignored[t] }

// IsDeferred reports whether t is declared deferred.
func (b *Behavior) IsDeferred(t event.Type) bool { return b.deferred[t] }

// HasDefault reports whether a default handler is registered.
func (b *Behavior) HasDefault() bool { return b.def != nil }

// Start runs the actor's creation hook, if one was registered with
// OnStart. params is whatever the creator passed to CreateActor.
func (b *Behavior) Start(ctx Context, params any) error {
	if b.onStart == nil {
		return nil
	}
	return b.onStart(ctx, params)
}

// Halt runs the actor's halt hook, if one was registered with OnHalt.
func (b *Behavior) Halt(ctx Context) error {
	if b.onHalt == nil {
		return nil
	}
	return b.onHalt(ctx)
}

// Builder constructs a Behavior fluently. The zero value is not usable;
// call NewBuilder.
type Builder struct {
	b *Behavior
}

// NewBuilder starts building a Behavior named name (the owning state or
// actor type name, used only for diagnostics).
func NewBuilder(name string) *Builder {
	return &Builder{b: &Behavior{
		name:     name,
		handlers: make(map[event.Type]Handler),
		ignored:  make(map[event.Type]bool),
		deferred: make(map[event.Type]bool),
	}}
}

// On registers h as the handler for t, replacing any prior registration.
func (bld *Builder) On(t event.Type, h Handler) *Builder {
	delete(bld.b.ignored, t)
	delete(bld.b.deferred, t)
	bld.b.handlers[t] = h
	return bld
}

// Ignore marks each of types as ignored: matching inbox entries are
// discarded without invoking a handler.
func (bld *Builder) Ignore(types ...event.Type) *Builder {
	for _, t := range types {
		delete(bld.b.handlers, t)
		delete(bld.b.deferred, t)
		bld.b.ignored[t] = true
	}
	return bld
}

// Defer marks each of types as deferred: matching inbox entries are
// skipped in place until a transition removes the deferral.
func (bld *Builder) Defer(types ...event.Type) *Builder {
	for _, t := range types {
		delete(bld.b.handlers, t)
		delete(bld.b.ignored, t)
		bld.b.deferred[t] = true
	}
	return bld
}

// OnDefault registers h as the handler invoked when the inbox holds
// nothing dequeuable.
func (bld *Builder) OnDefault(h Handler) *Builder {
	bld.b.def = h
	return bld
}

// OnStart registers f to run once, synchronously, right after the
// actor is created and before it dequeues its first event.
func (bld *Builder) OnStart(f func(ctx Context, params any) error) *Builder {
	bld.b.onStart = f
	return bld
}

// OnHalt registers f to run once a HaltEvent is dequeued, before the
// actor's queue is closed.
func (bld *Builder) OnHalt(f func(ctx Context) error) *Builder {
	bld.b.onHalt = f
	return bld
}

// Build finalizes and returns the Behavior.
func (bld *Builder) Build() *Behavior {
	return bld.b
}

// QueueHooks adapts a Behavior to queue.Hooks, the interface package
// queue uses to consult ignore/defer/default policy without depending
// on package actor. OnDrop is called whenever an entry is discarded
// (e.g. an ignored event, or an enqueue onto a halted queue); it may be
// nil.
type QueueHooks struct {
	Behavior *Behavior
	OnDrop   func(entry event.Entry, reason string)
}

func (h *QueueHooks) IsEventIgnored(t event.Type) bool  { return h.Behavior.IsIgnored(t) }
func (h *QueueHooks) IsEventDeferred(t event.Type) bool { return h.Behavior.IsDeferred(t) }
func (h *QueueHooks) HasDefaultHandler() bool           { return h.Behavior.HasDefault() }

func (h *QueueHooks) OnEventDropped(entry event.Entry, reason string) {
	if h.OnDrop != nil {
		h.OnDrop(entry, reason)
	}
}
