package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/failure"
)

type requestEvent struct{}

func (requestEvent) EventType() event.Type { return "Request" }

type responseEvent struct{}

func (responseEvent) EventType() event.Type { return "Response" }

type fakeMonitorCtx struct {
	m        *Monitor
	failures []failure.Failure
}

func (c *fakeMonitorCtx) Goto(name string) { _ = c.m.Goto(c, name) }

func (c *fakeMonitorCtx) Assert(cond bool, format string, args ...any) {
	if !cond {
		c.failures = append(c.failures, failure.Failure{Kind: failure.KindInvariant, Message: "assertion failed"})
	}
}

func (c *fakeMonitorCtx) Sink() failure.Sink {
	return failure.SinkFunc(func(kind failure.Kind, msg string) {
		c.failures = append(c.failures, failure.Failure{Kind: kind, Message: msg})
	})
}

func buildRequestMonitor(t *testing.T) *Monitor {
	t.Helper()
	waiting := NewState("Waiting", Cold).
		On("Request", func(ctx Context, e event.Event) error {
			ctx.Goto("Pending")
			return nil
		}).
		Build()

	pending := NewState("Pending", Hot).
		On("Response", func(ctx Context, e event.Event) error {
			ctx.Goto("Waiting")
			return nil
		}).
		Build()

	m, err := NewMonitor("RequestResponse").
		AddState(waiting).
		AddState(pending).
		Start("Waiting").
		Build()
	require.NoError(t, err)
	return m
}

func TestMonitorStartsCold(t *testing.T) {
	m := buildRequestMonitor(t)
	assert.Equal(t, "Waiting", m.CurrentState())
	assert.False(t, m.IsHot())
}

func TestMonitorTransitionsToHotOnRequest(t *testing.T) {
	m := buildRequestMonitor(t)
	ctx := &fakeMonitorCtx{m: m}
	require.NoError(t, m.Observe(ctx, requestEvent{}))
	assert.Equal(t, "Pending", m.CurrentState())
	assert.True(t, m.IsHot())
}

func TestMonitorCoolsOnResponse(t *testing.T) {
	m := buildRequestMonitor(t)
	ctx := &fakeMonitorCtx{m: m}
	require.NoError(t, m.Observe(ctx, requestEvent{}))
	require.NoError(t, m.Observe(ctx, responseEvent{}))
	assert.Equal(t, "Waiting", m.CurrentState())
	assert.False(t, m.IsHot())
}

func TestUnmatchedEventIsSilentlyIgnored(t *testing.T) {
	m := buildRequestMonitor(t)
	ctx := &fakeMonitorCtx{m: m}
	require.NoError(t, m.Observe(ctx, responseEvent{})) // Waiting has no Response handler
	assert.Equal(t, "Waiting", m.CurrentState())
}

func TestStepTemperatureTracksConsecutiveHotSteps(t *testing.T) {
	m := buildRequestMonitor(t)
	ctx := &fakeMonitorCtx{m: m}
	require.NoError(t, m.Observe(ctx, requestEvent{}))

	m.StepTemperature()
	m.StepTemperature()
	m.StepTemperature()
	assert.Equal(t, 3, m.HotSteps())

	require.NoError(t, m.Observe(ctx, responseEvent{}))
	m.StepTemperature()
	assert.Equal(t, 0, m.HotSteps())
}

func TestGotoUnknownStateFails(t *testing.T) {
	m := buildRequestMonitor(t)
	ctx := &fakeMonitorCtx{m: m}
	assert.Error(t, m.Goto(ctx, "Nonexistent"))
}
