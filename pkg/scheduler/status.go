package scheduler

// Status is an operation's current scheduling state.
type Status int

const (
	// Enabled operations are eligible to be picked as the next step.
	Enabled Status = iota
	// BlockedReceive operations are parked in ReceiveEventAsync, waiting
	// for a matching event. A quiescent point with at least one
	// BlockedReceive operation and zero Enabled ones is a deadlock.
	BlockedReceive
	// BlockedHalted operations are actors that received HaltEvent and
	// are unwinding; they never become Enabled again.
	BlockedHalted
	// Idle operations have no handler task running because their inbox
	// had nothing left to dequeue; a later Enqueue revives them with a
	// fresh handler task.
	Idle
	// Completed operations have finished for good: a halted actor, or
	// one whose top-level handler returned after the root actor's
	// initial event.
	Completed
)

func (s Status) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case BlockedReceive:
		return "blocked-receive"
	case BlockedHalted:
		return "blocked-halted"
	case Idle:
		return "idle"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}
