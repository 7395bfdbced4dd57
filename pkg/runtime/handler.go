package runtime

import (
	"fmt"

	"github.com/latticeforge/conclave/pkg/actor"
	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/failure"
	"github.com/latticeforge/conclave/pkg/queue"
	"github.com/latticeforge/conclave/pkg/scheduler"
)

// runHandlerLoop is the body of every handler task: dequeue, dispatch,
// invoke, yield, repeat, until the inbox is exhausted (Idle), the actor
// halts (Completed), or a protocol violation ends the iteration.
func (rt *Runtime) runHandlerLoop(inst *instance) {
	ctx := &actorContext{rt: rt, inst: inst}

	for {
		result := inst.queue.Dequeue()

		switch result.Kind {
		case queue.DequeueNotAvailable:
			inst.handle.Yield(scheduler.Idle)
			return

		case queue.DequeueRaised, queue.DequeueSuccess, queue.DequeueDefault:
			e := result.Entry.Event

			if e.EventType() == event.HaltEventType {
				rt.haltActor(ctx, inst)
				inst.handle.Yield(scheduler.Completed)
				return
			}

			h, label, ok := inst.disp.Dispatch(e)
			if !ok {
				rt.sched.Report(failure.KindUnhandledEvent, "%s received event '%s' that cannot be handled.", inst.id, e.EventType())
				inst.handle.Yield(scheduler.Completed)
				return
			}

			if rt.trace != nil {
				rt.trace.Action(inst.id, label, string(e.EventType()))
			}

			if inst.machine != nil {
				inst.machine.BeginAction()
			}

			if err := invoke(ctx, h, e); err != nil {
				rt.sched.Report(failure.KindException, "%s: handling %q: %s", inst.id, e.EventType(), err)
				inst.handle.Yield(scheduler.Completed)
				return
			}

			if inst.popHalted {
				rt.haltActor(ctx, inst)
				inst.handle.Yield(scheduler.Completed)
				return
			}

			inst.handle.Yield(scheduler.Enabled)
		}
	}
}

// haltActor runs the owning Behavior's or Machine's halt hook, then
// closes the queue, reporting an invariant violation if a receive was
// still outstanding.
func (rt *Runtime) haltActor(ctx *actorContext, inst *instance) {
	if err := inst.disp.Halt(ctx); err != nil {
		rt.sched.Report(failure.KindException, "%s: halt: %s", inst.id, err)
	}
	if inst.queue.Close() {
		rt.sched.Report(failure.KindInvariant, "%s: halted with a receive still pending", inst.id)
	}
	if rt.trace != nil {
		rt.trace.Action(inst.id, inst.currentLabel(), "Halt")
	}
}

// invoke runs h, converting a panic into an error so a single handler
// bug ends the iteration as an exception rather than crashing the whole
// process.
func invoke(ctx actor.Context, h actor.Handler, e event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, e)
}
