package event

import (
	"fmt"

	"github.com/latticeforge/conclave/pkg/coreid"
)

// Type is the stable dispatch key for an event value. Two events with the
// same Type are treated as dispatch-equivalent by actors, state machines,
// and monitors, regardless of payload.
type Type string

// Event is an opaque, immutable, user-supplied message. Implementations
// must be comparable-free value types (or pointers to values the sender
// no longer mutates) once handed to Enqueue — the contract in §3 of the
// design: "Events are immutable once sent."
type Event interface {
	// EventType returns this event's dispatch key.
	EventType() Type
}

// Built-in event type tags.
const (
	// HaltEventType requests that the receiving actor halt after
	// processing it, or is raised by action code to do the same.
	HaltEventType Type = "conclave.Halt"

	// WildCardEventType is never carried by an actual Event value; it is
	// only ever used as a dispatch-table key meaning "anything not
	// otherwise matched in this state".
	WildCardEventType Type = "conclave.WildCard"

	// DefaultEventType tags the synthetic event the queue manufactures
	// when its FIFO is empty (or fully deferred) and a default handler
	// is installed.
	DefaultEventType Type = "conclave.Default"
)

// HaltEvent is the built-in event that halts an actor. Sending it is
// equivalent to the actor raising it on itself with Raise.
type HaltEvent struct{}

// EventType implements Event.
func (HaltEvent) EventType() Type { return HaltEventType }

// DefaultEvent is synthesized by the queue's Dequeue when nothing else is
// runnable and a default handler is installed. User code never
// constructs one directly.
type DefaultEvent struct{}

// EventType implements Event.
func (DefaultEvent) EventType() Type { return DefaultEventType }

// Predicate filters candidate events for ReceiveEventAsync.
type Predicate func(Event) bool

// Info is the metadata the queue records for every enqueued event,
// independent of the event's own payload. It is what trace records and
// diagnostics read from, so the original event type need not expose
// anything beyond EventType().
type Info struct {
	// OriginActor is the id of the actor whose handler performed the
	// send (the zero ActorId for sends issued before any actor exists,
	// e.g. a test harness's initial send).
	OriginActor coreid.ActorId

	// OriginState is the name of the state (for a state machine) or
	// empty (for a plain actor) active when the send was issued.
	OriginState string

	// OriginGroup is the event group active on the sender at the moment
	// of the send; it seeds the Entry's own Group unless overridden.
	OriginGroup coreid.EventGroup

	// SendSequence is a per-runtime monotonically increasing counter
	// stamped at send time, used to break ties when diagnosing
	// out-of-order delivery across senders.
	SendSequence uint64
}

// String renders Info the way trace payloads embed it: "from Origin (state State) seq N".
func (i Info) String() string {
	state := i.OriginState
	if state == "" {
		state = "-"
	}
	return fmt.Sprintf("from %s (state %s) seq %d", i.OriginActor, state, i.SendSequence)
}

// Entry is one occupant of an actor's inbox: the event itself, the
// causal group attached to this particular send (which may differ from
// Info.OriginGroup if the sender overrode it), and the send metadata.
type Entry struct {
	Event Event
	Group coreid.EventGroup
	Info  Info
}
