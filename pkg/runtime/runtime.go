package runtime

import (
	"sync"
	"sync/atomic"

	"github.com/latticeforge/conclave/pkg/actor"
	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/failure"
	"github.com/latticeforge/conclave/pkg/log"
	"github.com/latticeforge/conclave/pkg/monitor"
	"github.com/latticeforge/conclave/pkg/queue"
	"github.com/latticeforge/conclave/pkg/scheduler"
	"github.com/latticeforge/conclave/pkg/statemachine"
	"github.com/latticeforge/conclave/pkg/trace"
)

// Runtime drives one testing-engine iteration: it owns actor identity
// allocation, the live actor registry, and the send-sequence counter,
// and delegates all scheduling decisions to an *scheduler.Scheduler.
type Runtime struct {
	sched    *scheduler.Scheduler
	gen      *coreid.Generator
	trace    *trace.Recorder
	monitors []*monitor.Monitor

	mu     sync.Mutex
	actors map[coreid.ActorId]*instance

	sendSeq atomic.Uint64
}

// New creates a Runtime bound to sched for tracing with rec (which may
// be nil). monitors are delivered every event any actor passes to
// ctx.Monitor, in registration order; pass nil if the program installs
// none. Callers spawn the iteration's root actor with NewActor or
// NewMachine, then call sched.Start with its id.
func New(sched *scheduler.Scheduler, monitors []*monitor.Monitor, rec *trace.Recorder) *Runtime {
	return &Runtime{
		sched:    sched,
		gen:      coreid.NewGenerator(),
		trace:    rec,
		monitors: monitors,
		actors:   make(map[coreid.ActorId]*instance),
	}
}

// NewActor spawns the iteration's root flat actor. Use CreateActor on a
// running actor's Context for everything else.
func (rt *Runtime) NewActor(name string, behavior *actor.Behavior, params any) coreid.ActorId {
	return rt.createActor(nil, name, behavior, params)
}

// NewMachine spawns the iteration's root state-machine actor.
func (rt *Runtime) NewMachine(name string, factory func() (*statemachine.Machine, error), params any) coreid.ActorId {
	return rt.createStateMachine(nil, name, factory, params)
}

func (rt *Runtime) createActor(creator *instance, name string, behavior *actor.Behavior, params any) coreid.ActorId {
	disp := &behaviorDispatcher{b: behavior, onDrop: rt.dropReporter()}
	return rt.spawn(creator, name, disp, nil, params)
}

func (rt *Runtime) createStateMachine(creator *instance, name string, factory func() (*statemachine.Machine, error), params any) coreid.ActorId {
	m, err := factory()
	if err != nil {
		rt.sched.Report(failure.KindInvariant, "runtime: %s: building state machine: %s", name, err)
		return coreid.ActorId{}
	}
	disp := &machineDispatcher{m: m, onDrop: rt.dropReporter()}
	return rt.spawn(creator, name, disp, m, params)
}

func (rt *Runtime) dropReporter() func(event.Entry, string) {
	return func(e event.Entry, reason string) {
		if rt.trace != nil {
			rt.trace.Error("dropped event %q: %s", e.Event.EventType(), reason)
		}
	}
}

// spawn wires up one new instance and starts its handler goroutine. If
// creator is non-nil, creating an actor is itself a scheduling decision
// point: the creator yields Enabled before returning control.
func (rt *Runtime) spawn(creator *instance, name string, disp dispatcher, machine *statemachine.Machine, params any) coreid.ActorId {
	id := rt.gen.Next(name)

	group := coreid.NilEventGroup
	if creator != nil {
		group = creator.group
	}

	inst := &instance{
		id:      id,
		name:    name,
		disp:    disp,
		machine: machine,
		group:   group,
		rt:      rt,
	}
	inst.queue = queue.New(id, disp, rt.trace)
	inst.queue.MarkHandlerStarted()
	inst.handle = rt.sched.Register(id, name)

	rt.mu.Lock()
	rt.actors[id] = inst
	rt.mu.Unlock()

	if rt.trace != nil {
		rt.trace.Create(id)
	}
	log.WithActorID(id.String()).Debug().Msgf("runtime: spawned %s", name)

	go func() {
		inst.handle.Await()
		rt.runStartupAndLoop(inst, params)
	}()

	if creator != nil {
		creator.handle.Yield(scheduler.Enabled)
	}

	return id
}

func (rt *Runtime) runStartupAndLoop(inst *instance, params any) {
	ctx := &actorContext{rt: rt, inst: inst}

	if inst.machine != nil {
		if err := inst.machine.EnterInitialState(ctx); err != nil {
			rt.sched.Report(failure.KindException, "%s: %s", inst.id, err)
			inst.handle.Yield(scheduler.Completed)
			return
		}
		if rt.trace != nil {
			rt.trace.State(inst.id, inst.machine.CurrentState())
		}
	}

	if err := inst.disp.Start(ctx, params); err != nil {
		rt.sched.Report(failure.KindException, "%s: start: %s", inst.id, err)
		inst.handle.Yield(scheduler.Completed)
		return
	}

	rt.runHandlerLoop(inst)
}

func (rt *Runtime) lookup(id coreid.ActorId) *instance {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.actors[id]
}

// send delivers e from from's actor to to. Send is itself a scheduling
// decision point: from yields Enabled once delivery is recorded.
func (rt *Runtime) send(from *instance, to coreid.ActorId, e event.Event) {
	target := rt.lookup(to)
	if target == nil {
		rt.sched.Report(failure.KindInvariant, "%s: send to unknown actor %s", from.id, to)
		from.handle.Yield(scheduler.Enabled)
		return
	}

	group := from.group
	entry := event.Entry{
		Event: e,
		Group: group,
		Info: event.Info{
			OriginActor:  from.id,
			OriginState:  from.currentLabel(),
			OriginGroup:  group,
			SendSequence: rt.sendSeq.Add(1) - 1,
		},
	}

	if rt.trace != nil {
		rt.trace.Send(e.EventType(), from.id, to)
	}
	if group != coreid.NilEventGroup {
		log.WithEventGroup(group.String()).Debug().Msgf("runtime: %s sent %q to %s", from.id, e.EventType(), to)
	}

	switch target.queue.Enqueue(entry) {
	case queue.Received:
		rt.sched.SetStatus(to, scheduler.Enabled)
	case queue.EventHandlerNotRunning:
		target.handle = rt.sched.Revive(to)
		go func() {
			target.handle.Await()
			rt.runHandlerLoop(target)
		}()
	case queue.EventHandlerRunning, queue.Dropped:
		// No scheduling change: a running handler will see the new
		// entry on its next Dequeue, and a dropped entry changes
		// nothing.
	}

	from.handle.Yield(scheduler.Enabled)
}

// raise installs e in from's own single-slot raise buffer. Raise is a
// scheduling decision point like send.
func (rt *Runtime) raise(from *instance, e event.Event) {
	entry := event.Entry{
		Event: e,
		Group: from.group,
		Info: event.Info{
			OriginActor:  from.id,
			OriginState:  from.currentLabel(),
			OriginGroup:  from.group,
			SendSequence: rt.sendSeq.Add(1) - 1,
		},
	}
	if err := from.queue.Raise(entry); err != nil {
		rt.sched.Report(failure.KindInvariant, "%s", err)
	}
	from.handle.Yield(scheduler.Enabled)
}

// receive blocks the calling handler until a matching entry arrives.
func (rt *Runtime) receive(inst *instance, predicate event.Predicate, types []event.Type) event.Event {
	entry, ok, wait := inst.queue.Receive(types, predicate)
	if ok {
		return entry.Event
	}

	inst.handle.Yield(scheduler.BlockedReceive)

	select {
	case entry = <-wait:
		return entry.Event
	case <-rt.sched.StoppedCh():
		return nil
	}
}
