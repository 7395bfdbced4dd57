package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/conclave/pkg/actor"
	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/scheduler"
	"github.com/latticeforge/conclave/pkg/statemachine"
)

type pingEvent struct {
	from coreid.ActorId
}

func (pingEvent) EventType() event.Type { return "Ping" }

type pongEvent struct{}

func (pongEvent) EventType() event.Type { return "Pong" }

func newTestScheduler() *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{Strategy: scheduler.NewRandom(1)})
}

// TestPingPongRunsToCompletionThroughRuntime drives one actor that pings
// itself a fixed number of times, then halts, entirely through the
// runtime's send/receive plumbing and the scheduler's baton protocol.
func TestPingPongRunsToCompletionThroughRuntime(t *testing.T) {
	sched := newTestScheduler()
	rt := New(sched, nil, nil)

	rounds := 0

	server := actor.NewBuilder("server").
		OnStart(func(ctx actor.Context, params any) error {
			ctx.Send(ctx.Self(), pingEvent{})
			return nil
		}).
		On("Ping", func(ctx actor.Context, e event.Event) error {
			rounds++
			if rounds >= 3 {
				ctx.Raise(event.HaltEvent{})
				return nil
			}
			ctx.Send(ctx.Self(), pingEvent{})
			return nil
		}).
		Build()

	serverID := rt.NewActor("server", server, nil)

	sched.Start(serverID)

	bug := sched.Wait()
	assert.Nil(t, bug)
	assert.Equal(t, 3, rounds)
}

// TestSendAndReceiveAcrossTwoActors exercises a client/server pair: the
// client pings the server on start, the server halts itself and replies
// Pong to the client, which then halts too.
func TestSendAndReceiveAcrossTwoActors(t *testing.T) {
	sched := newTestScheduler()
	rt := New(sched, nil, nil)

	done := make(chan struct{})

	client := actor.NewBuilder("client").
		OnStart(func(ctx actor.Context, params any) error {
			serverID := params.(coreid.ActorId)
			ctx.Send(serverID, pingEvent{from: ctx.Self()})
			return nil
		}).
		On("Pong", func(ctx actor.Context, e event.Event) error {
			close(done)
			ctx.Raise(event.HaltEvent{})
			return nil
		}).
		Build()

	server := actor.NewBuilder("server").
		On("Ping", func(ctx actor.Context, e event.Event) error {
			ping := e.(pingEvent)
			ctx.Send(ping.from, pongEvent{})
			ctx.Raise(event.HaltEvent{})
			return nil
		}).
		OnHalt(func(ctx actor.Context) error { return nil }).
		Build()

	serverID := rt.NewActor("server", server, nil)
	rt.NewActor("client", client, serverID)

	sched.Start(serverID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pong")
	}

	bug := sched.Wait()
	assert.Nil(t, bug)
}

func TestUnhandledEventReportsBug(t *testing.T) {
	sched := newTestScheduler()
	rt := New(sched, nil, nil)

	lonely := actor.NewBuilder("lonely").
		OnStart(func(ctx actor.Context, params any) error {
			ctx.Send(ctx.Self(), pingEvent{})
			return nil
		}).
		Build()

	id := rt.NewActor("lonely", lonely, nil)
	sched.Start(id)

	bug := sched.Wait()
	require.NotNil(t, bug)
	assert.Contains(t, bug.Message, "received event 'Ping' that cannot be handled")
}

// TestStateMachineGotoThroughRuntime exercises a two-state machine
// (Idle/Active) whose initial entry action raises the event that drives
// it to halt, through the full runtime and scheduler stack.
func TestStateMachineGotoThroughRuntime(t *testing.T) {
	sched := newTestScheduler()
	rt := New(sched, nil, nil)

	factory := func() (*statemachine.Machine, error) {
		idle := statemachine.NewState("Idle").
			OnEntry(func(ctx statemachine.Context) error {
				ctx.Raise(pingEvent{})
				return nil
			}).
			On("Ping", func(ctx statemachine.Context, e event.Event) error {
				ctx.Goto("Active")
				return nil
			}).
			Build()
		active := statemachine.NewState("Active").
			OnEntry(func(ctx statemachine.Context) error {
				ctx.Raise(event.HaltEvent{})
				return nil
			}).
			Build()
		return statemachine.NewMachine("toggle").
			AddState(idle).
			AddState(active).
			Start("Idle").
			Build()
	}

	id := rt.NewMachine("toggle", factory, nil)
	sched.Start(id)

	bug := sched.Wait()
	assert.Nil(t, bug)
}
