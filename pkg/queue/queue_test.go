package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
)

type pingEvent struct{}

func (pingEvent) EventType() event.Type { return "Ping" }

type pongEvent struct{}

func (pongEvent) EventType() event.Type { return "Pong" }

// flagEvent carries a payload so Receive's predicate has something to
// discriminate on.
type flagEvent struct{ v bool }

func (flagEvent) EventType() event.Type { return "Flag" }

type fakeHooks struct {
	ignored  map[event.Type]bool
	deferred map[event.Type]bool
	def      bool
	dropped  []event.Entry
}

func newFakeHooks() *fakeHooks {
	return &fakeHooks{ignored: map[event.Type]bool{}, deferred: map[event.Type]bool{}}
}

func (h *fakeHooks) IsEventIgnored(t event.Type) bool  { return h.ignored[t] }
func (h *fakeHooks) IsEventDeferred(t event.Type) bool { return h.deferred[t] }
func (h *fakeHooks) HasDefaultHandler() bool           { return h.def }
func (h *fakeHooks) OnEventDropped(e event.Entry, reason string) {
	h.dropped = append(h.dropped, e)
}

func newTestQueue() (*Queue, *fakeHooks) {
	hooks := newFakeHooks()
	id := coreid.NewGenerator().Next("Server")
	return New(id, hooks, nil), hooks
}

func TestEnqueueStartsHandlerOnce(t *testing.T) {
	q, _ := newTestQueue()

	outcome := q.Enqueue(event.Entry{Event: pingEvent{}})
	assert.Equal(t, EventHandlerNotRunning, outcome)

	outcome = q.Enqueue(event.Entry{Event: pingEvent{}})
	assert.Equal(t, EventHandlerRunning, outcome)
}

func TestDequeueFIFOOrder(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(event.Entry{Event: pingEvent{}})
	q.Enqueue(event.Entry{Event: pongEvent{}})

	r1 := q.Dequeue()
	require.Equal(t, DequeueSuccess, r1.Kind)
	assert.Equal(t, event.Type("Ping"), r1.Entry.Event.EventType())

	r2 := q.Dequeue()
	require.Equal(t, DequeueSuccess, r2.Kind)
	assert.Equal(t, event.Type("Pong"), r2.Entry.Event.EventType())

	r3 := q.Dequeue()
	assert.Equal(t, DequeueNotAvailable, r3.Kind)
}

func TestDequeueSkipsDeferredAndDropsIgnored(t *testing.T) {
	q, hooks := newTestQueue()
	hooks.deferred["Ping"] = true
	hooks.ignored["Pong"] = true

	q.Enqueue(event.Entry{Event: pingEvent{}})
	q.Enqueue(event.Entry{Event: pongEvent{}})

	r := q.Dequeue()
	assert.Equal(t, DequeueNotAvailable, r.Kind, "Ping deferred, Pong ignored and dropped")
	assert.Len(t, hooks.dropped, 1)
	assert.Equal(t, 1, q.Len(), "the deferred Ping stays in the FIFO")
}

func TestDequeueSynthesizesDefault(t *testing.T) {
	q, hooks := newTestQueue()
	hooks.def = true

	r := q.Dequeue()
	require.Equal(t, DequeueDefault, r.Kind)
	assert.Equal(t, event.DefaultEventType, r.Entry.Event.EventType())
}

func TestRaiseTakesPriorityOverFIFO(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(event.Entry{Event: pingEvent{}})
	require.NoError(t, q.Raise(event.Entry{Event: pongEvent{}}))

	r := q.Dequeue()
	require.Equal(t, DequeueRaised, r.Kind)
	assert.Equal(t, event.Type("Pong"), r.Entry.Event.EventType())

	r2 := q.Dequeue()
	require.Equal(t, DequeueSuccess, r2.Kind)
	assert.Equal(t, event.Type("Ping"), r2.Entry.Event.EventType())
}

func TestRaiseRejectsSecondPending(t *testing.T) {
	q, _ := newTestQueue()
	require.NoError(t, q.Raise(event.Entry{Event: pingEvent{}}))
	assert.Error(t, q.Raise(event.Entry{Event: pongEvent{}}))
}

func TestReceiveMatchesFIFOImmediately(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(event.Entry{Event: pingEvent{}})

	e, ok, wait := q.Receive([]event.Type{"Ping"}, nil)
	require.True(t, ok)
	assert.Nil(t, wait)
	assert.Equal(t, event.Type("Ping"), e.Event.EventType())
}

func TestReceiveWaitsForMatchingEnqueue(t *testing.T) {
	q, _ := newTestQueue()

	_, ok, wait := q.Receive([]event.Type{"Pong"}, nil)
	require.False(t, ok)
	require.NotNil(t, wait)

	outcome := q.Enqueue(event.Entry{Event: pongEvent{}})
	assert.Equal(t, Received, outcome)

	e := <-wait
	assert.Equal(t, event.Type("Pong"), e.Event.EventType())
}

// TestReceivePredicateSkipsNonMatchingFIFOEntry exercises Receive's
// predicate parameter: a false-flagged event already queued does not
// satisfy a receive waiting on true, a true-flagged event arriving
// later does, and the false one is left in the FIFO for ordinary
// dispatch.
func TestReceivePredicateSkipsNonMatchingFIFOEntry(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(event.Entry{Event: flagEvent{v: false}})

	isTrue := event.Predicate(func(e event.Event) bool {
		return e.(flagEvent).v
	})

	_, ok, wait := q.Receive([]event.Type{"Flag"}, isTrue)
	require.False(t, ok, "the queued false-flagged event must not satisfy the predicate")
	require.NotNil(t, wait)
	assert.Equal(t, 1, q.Len(), "the non-matching entry stays in the FIFO")

	outcome := q.Enqueue(event.Entry{Event: flagEvent{v: true}})
	assert.Equal(t, Received, outcome)

	e := <-wait
	assert.True(t, e.Event.(flagEvent).v)

	r := q.Dequeue()
	require.Equal(t, DequeueSuccess, r.Kind)
	assert.False(t, r.Entry.Event.(flagEvent).v, "the earlier false-flagged event remains for later dispatch")
}

func TestEnqueueAfterCloseIsDropped(t *testing.T) {
	q, hooks := newTestQueue()
	q.Close()

	outcome := q.Enqueue(event.Entry{Event: pingEvent{}})
	assert.Equal(t, Dropped, outcome)
	assert.Len(t, hooks.dropped, 1)
}

func TestCloseReportsPendingReceive(t *testing.T) {
	q, _ := newTestQueue()
	_, ok, _ := q.Receive([]event.Type{"Ping"}, nil)
	require.False(t, ok)

	assert.True(t, q.Close())
}
