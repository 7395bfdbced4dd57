package runtime

import (
	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/queue"
	"github.com/latticeforge/conclave/pkg/scheduler"
	"github.com/latticeforge/conclave/pkg/statemachine"
)

// instance is the runtime's bookkeeping for one live actor. Lifecycle
// hooks (OnStart/OnHalt) live on the actor's Behavior or Machine and
// are reached through disp, so instance itself only tracks identity,
// dispatch, and scheduling state.
type instance struct {
	id      coreid.ActorId
	name    string
	disp    dispatcher
	machine *statemachine.Machine
	queue   *queue.Queue
	handle  *scheduler.Handle
	group   coreid.EventGroup
	rt      *Runtime

	// popHalted is set by actorContext.Pop when popping the last frame
	// of a state machine's stack; runHandlerLoop checks it right after
	// the handler returns and halts the actor exactly like an explicit
	// HaltEvent would.
	popHalted bool
}

// currentLabel returns the name to attribute a trace entry to: the
// active state's name for a state-machine actor, or the actor's own
// type name for a flat one.
func (inst *instance) currentLabel() string {
	if inst.machine != nil {
		return inst.machine.CurrentState()
	}
	return inst.name
}
