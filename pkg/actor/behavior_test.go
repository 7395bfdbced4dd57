package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/conclave/pkg/event"
)

type tickEvent struct{}

func (tickEvent) EventType() event.Type { return "Tick" }

func TestBuilderRegistersHandler(t *testing.T) {
	var invoked bool
	behavior := NewBuilder("Counting").
		On("Tick", func(ctx Context, e event.Event) error {
			invoked = true
			return nil
		}).
		Build()

	h, ok := behavior.HandlerFor("Tick")
	require.True(t, ok)
	require.NoError(t, h(nil, tickEvent{}))
	assert.True(t, invoked)
	assert.Equal(t, "Counting", behavior.Name())
}

func TestIgnoreAndDeferAreMutuallyExclusive(t *testing.T) {
	behavior := NewBuilder("S").
		On("Tick", func(Context, event.Event) error { return nil }).
		Ignore("Tick").
		Build()

	assert.True(t, behavior.IsIgnored("Tick"))
	_, ok := behavior.HandlerFor("Tick")
	assert.False(t, ok, "registering Ignore after On must clear the handler")

	behavior2 := NewBuilder("S").Ignore("Tick").Defer("Tick").Build()
	assert.False(t, behavior2.IsIgnored("Tick"))
	assert.True(t, behavior2.IsDeferred("Tick"))
}

func TestDefaultHandler(t *testing.T) {
	behavior := NewBuilder("S").Build()
	assert.False(t, behavior.HasDefault())

	behavior = NewBuilder("S").OnDefault(func(Context, event.Event) error { return nil }).Build()
	assert.True(t, behavior.HasDefault())
	_, ok := behavior.DefaultHandler()
	assert.True(t, ok)
}

func TestQueueHooksAdaptsBehavior(t *testing.T) {
	behavior := NewBuilder("S").Ignore("Tick").Build()
	var dropped []string
	hooks := &QueueHooks{
		Behavior: behavior,
		OnDrop: func(entry event.Entry, reason string) {
			dropped = append(dropped, reason)
		},
	}

	assert.True(t, hooks.IsEventIgnored("Tick"))
	assert.False(t, hooks.IsEventDeferred("Tick"))
	assert.False(t, hooks.HasDefaultHandler())

	hooks.OnEventDropped(event.Entry{Event: tickEvent{}}, "ignored")
	assert.Equal(t, []string{"ignored"}, dropped)
}
