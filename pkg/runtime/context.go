package runtime

import (
	"github.com/latticeforge/conclave/pkg/actor"
	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/failure"
	"github.com/latticeforge/conclave/pkg/statemachine"
)

// actorContext is the concrete implementation of actor.Context and
// statemachine.Context handed to every handler, entry action, and exit
// action.
type actorContext struct {
	rt   *Runtime
	inst *instance
}

var _ statemachine.Context = (*actorContext)(nil)

func (c *actorContext) Self() coreid.ActorId     { return c.inst.id }
func (c *actorContext) Group() coreid.EventGroup { return c.inst.group }

func (c *actorContext) Send(to coreid.ActorId, e event.Event) {
	c.rt.send(c.inst, to, e)
}

func (c *actorContext) Raise(e event.Event) {
	c.rt.raise(c.inst, e)
}

func (c *actorContext) Receive(predicate event.Predicate, types ...event.Type) event.Event {
	return c.rt.receive(c.inst, predicate, types)
}

func (c *actorContext) CreateActor(name string, behavior *actor.Behavior, params any) coreid.ActorId {
	return c.rt.createActor(c.inst, name, behavior, params)
}

func (c *actorContext) Monitor(e event.Event) { c.rt.observeMonitors(e) }

func (c *actorContext) RandomBool() bool          { return c.inst.handle.RandomBool() }
func (c *actorContext) RandomInteger(max int) int { return c.inst.handle.RandomInteger(max) }
func (c *actorContext) Sink() failure.Sink        { return c.rt.sched }

func (c *actorContext) CurrentState() string { return c.inst.machine.CurrentState() }

func (c *actorContext) Goto(name string) {
	from := c.inst.machine.CurrentState()
	if err := c.inst.machine.Goto(c, name); err != nil {
		c.rt.sched.Report(failure.KindInvariant, "%s", err)
		return
	}
	if c.rt.trace != nil {
		c.rt.trace.Goto(c.inst.id, from, name)
	}
}

func (c *actorContext) Push(name string) {
	from := c.inst.machine.CurrentState()
	if err := c.inst.machine.Push(c, name); err != nil {
		c.rt.sched.Report(failure.KindInvariant, "%s", err)
		return
	}
	if c.rt.trace != nil {
		c.rt.trace.Goto(c.inst.id, from, name)
	}
}

func (c *actorContext) Pop() {
	from := c.inst.machine.CurrentState()
	halted, err := c.inst.machine.Pop(c)
	if err != nil {
		c.rt.sched.Report(failure.KindInvariant, "%s", err)
		return
	}
	if halted {
		if c.rt.trace != nil {
			c.rt.trace.Goto(c.inst.id, from, "<halted>")
		}
		c.inst.popHalted = true
		return
	}
	if c.rt.trace != nil {
		c.rt.trace.Goto(c.inst.id, from, c.inst.machine.CurrentState())
	}
}

func (c *actorContext) CreateMachine(name string, factory func() (*statemachine.Machine, error), params any) coreid.ActorId {
	return c.rt.createStateMachine(c.inst, name, factory, params)
}
