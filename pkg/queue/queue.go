package queue

import (
	"fmt"
	"sync"

	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/trace"
)

// EnqueueOutcome reports what Enqueue did with an incoming event, so the
// caller knows whether it is now responsible for starting a handler task.
type EnqueueOutcome int

const (
	// Received means the event satisfied a pending ReceiveEventAsync call
	// directly; it never touched the FIFO.
	Received EnqueueOutcome = iota
	// Dropped means the queue is closed and the event was discarded.
	Dropped
	// EventHandlerRunning means the event was appended to the FIFO and a
	// handler task is already active; the caller need not start one.
	EventHandlerRunning
	// EventHandlerNotRunning means the event was appended to the FIFO and
	// no handler task is active; the caller must start one.
	EventHandlerNotRunning
)

func (o EnqueueOutcome) String() string {
	switch o {
	case Received:
		return "received"
	case Dropped:
		return "dropped"
	case EventHandlerRunning:
		return "handler-running"
	case EventHandlerNotRunning:
		return "handler-not-running"
	default:
		return "unknown"
	}
}

// DequeueKind classifies what Dequeue handed back.
type DequeueKind int

const (
	// DequeueRaised means the entry came from the single-slot raise
	// buffer, which always takes priority over the FIFO.
	DequeueRaised DequeueKind = iota
	// DequeueSuccess means the entry came from the FIFO.
	DequeueSuccess
	// DequeueDefault means the FIFO held nothing dequeuable and a default
	// handler is registered, so a synthetic event.DefaultEvent was
	// produced.
	DequeueDefault
	// DequeueNotAvailable means there is nothing to dequeue: the FIFO is
	// empty or holds only deferred entries, there is no raised event, and
	// no default handler is registered. The handler task must stop.
	DequeueNotAvailable
)

// DequeueResult is the outcome of one Dequeue call. Entry is only valid
// when Kind is not DequeueNotAvailable.
type DequeueResult struct {
	Kind  DequeueKind
	Entry event.Entry
}

// Hooks lets the queue consult actor-specific policy without depending on
// package actor. An Actor implements this to answer "is this event type
// ignored in the current state", "is it deferred", and "is there a
// default handler right now".
type Hooks interface {
	IsEventIgnored(t event.Type) bool
	IsEventDeferred(t event.Type) bool
	HasDefaultHandler() bool
	// OnEventDropped notifies that entry was discarded and why (e.g.
	// "halted" or "ignored"). Implementations may use this purely for
	// diagnostics; it must not block.
	OnEventDropped(entry event.Entry, reason string)
}

type pendingReceive struct {
	types     map[event.Type]struct{}
	predicate event.Predicate
	result    chan event.Entry
}

func (p *pendingReceive) matches(e event.Event) bool {
	if _, ok := p.types[e.EventType()]; !ok {
		return false
	}
	if p.predicate != nil {
		return p.predicate(e)
	}
	return true
}

// Queue is one actor's event inbox: a FIFO, a single-slot raise buffer,
// and at most one pending receive. All exported methods are safe for
// concurrent use, though in practice only the owning actor's handler
// goroutine calls Dequeue/Raise/Receive while any goroutine may Enqueue.
type Queue struct {
	mu             sync.Mutex
	actorID        coreid.ActorId
	hooks          Hooks
	trace          *trace.Recorder
	fifo           []event.Entry
	raised         *event.Entry
	receive        *pendingReceive
	handlerRunning bool
	halted         bool
}

// New creates a Queue for actorID. rec may be nil to disable tracing.
func New(actorID coreid.ActorId, hooks Hooks, rec *trace.Recorder) *Queue {
	return &Queue{actorID: actorID, hooks: hooks, trace: rec}
}

// Enqueue appends e to the inbox, or satisfies a pending receive directly.
func (q *Queue) Enqueue(e event.Entry) EnqueueOutcome {
	q.mu.Lock()

	if q.halted {
		q.mu.Unlock()
		q.hooks.OnEventDropped(e, "halted")
		return Dropped
	}

	if q.receive != nil && q.receive.matches(e.Event) {
		pr := q.receive
		q.receive = nil
		q.mu.Unlock()
		if q.trace != nil {
			q.trace.Enqueue(q.actorID, e.Event.EventType())
		}
		pr.result <- e
		return Received
	}

	q.fifo = append(q.fifo, e)
	wasRunning := q.handlerRunning
	if !wasRunning {
		q.handlerRunning = true
	}
	q.mu.Unlock()

	if q.trace != nil {
		q.trace.Enqueue(q.actorID, e.Event.EventType())
	}
	if wasRunning {
		return EventHandlerRunning
	}
	return EventHandlerNotRunning
}

// Dequeue returns the next entry in priority order: raised, then the
// first non-ignored/non-deferred FIFO entry, then a synthesized default,
// then DequeueNotAvailable. Ignored entries encountered along the way are
// removed and reported via Hooks.OnEventDropped before the scan
// continues.
func (q *Queue) Dequeue() DequeueResult {
	q.mu.Lock()

	if q.raised != nil {
		e := *q.raised
		q.raised = nil
		q.mu.Unlock()
		q.traceDequeue(e.Event.EventType(), "raised")
		return DequeueResult{Kind: DequeueRaised, Entry: e}
	}

	for i, e := range q.fifo {
		t := e.Event.EventType()
		if q.hooks.IsEventDeferred(t) {
			continue
		}
		if q.hooks.IsEventIgnored(t) {
			q.fifo = append(q.fifo[:i:i], q.fifo[i+1:]...)
			q.mu.Unlock()
			q.hooks.OnEventDropped(e, "ignored")
			q.traceDequeue(t, "ignored-dropped")
			return q.Dequeue()
		}
		q.fifo = append(q.fifo[:i:i], q.fifo[i+1:]...)
		q.mu.Unlock()
		q.traceDequeue(t, "success")
		return DequeueResult{Kind: DequeueSuccess, Entry: e}
	}

	if q.hooks.HasDefaultHandler() {
		q.mu.Unlock()
		q.traceDequeue(event.DefaultEventType, "default")
		return DequeueResult{Kind: DequeueDefault, Entry: event.Entry{Event: event.DefaultEvent{}}}
	}

	q.handlerRunning = false
	q.mu.Unlock()
	return DequeueResult{Kind: DequeueNotAvailable}
}

func (q *Queue) traceDequeue(t event.Type, outcome string) {
	if q.trace != nil {
		q.trace.Dequeue(q.actorID, t, outcome)
	}
}

// Raise installs e in the single-slot raise buffer. It fails if a raised
// event is already pending, since only one RaiseEvent may be outstanding
// per handler per §4.1.
func (q *Queue) Raise(e event.Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.raised != nil {
		return fmt.Errorf("queue: actor %s already has a raised event pending", q.actorID)
	}
	q.raised = &e
	return nil
}

// Receive looks for a matching entry already in the FIFO. If one is
// found it is removed and returned with ok=true. Otherwise a pending
// receive is installed and Receive returns a channel that will carry the
// next matching entry once Enqueue observes it; the caller must not
// invoke Receive again until that channel has fired.
func (q *Queue) Receive(types []event.Type, predicate event.Predicate) (e event.Entry, ok bool, wait <-chan event.Entry) {
	typeSet := make(map[event.Type]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}
	pr := &pendingReceive{types: typeSet, predicate: predicate, result: make(chan event.Entry, 1)}

	q.mu.Lock()
	defer q.mu.Unlock()

	for i, entry := range q.fifo {
		if pr.matches(entry.Event) {
			q.fifo = append(q.fifo[:i:i], q.fifo[i+1:]...)
			return entry, true, nil
		}
	}

	if q.receive != nil {
		panic(fmt.Sprintf("queue: actor %s already has a pending receive", q.actorID))
	}
	q.receive = pr
	return event.Entry{}, false, pr.result
}

// Close halts the queue: further Enqueue calls are dropped, and it
// reports whether a receive was left pending (a caller-visible protocol
// violation if the actor wasn't expecting to be torn down mid-receive).
func (q *Queue) Close() (hadPendingReceive bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.halted = true
	hadPendingReceive = q.receive != nil
	q.receive = nil
	return hadPendingReceive
}

// MarkHandlerStarted flags the queue as already having an active
// handler task. The runtime calls this once at actor creation, since it
// starts the first handler goroutine itself rather than waiting for an
// Enqueue call to report EventHandlerNotRunning.
func (q *Queue) MarkHandlerStarted() {
	q.mu.Lock()
	q.handlerRunning = true
	q.mu.Unlock()
}

// Len reports the current FIFO length, for diagnostics and tests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fifo)
}
