package scheduler

import "github.com/latticeforge/conclave/pkg/coreid"

// Strategy picks which enabled operation runs next, and supplies the
// value for every scheduled random choice, per §4.6. Every method must
// be a pure function of the strategy's internal state so that replaying
// the same seed against the same program reproduces the same schedule.
type Strategy interface {
	// Name identifies the strategy in bug reports and CLI flags.
	Name() string
	// NextOperation picks one of enabled. enabled is never empty; the
	// driver loop only calls this when at least one operation can run.
	NextOperation(enabled []coreid.ActorId, step int) coreid.ActorId
	// NextBoolean supplies the value for a scheduled RandomBool call.
	NextBoolean(step int) bool
	// NextInteger supplies the value for a scheduled RandomInteger call,
	// in [0, max). max is always > 0.
	NextInteger(max int, step int) int
	// IsFair reports whether the strategy guarantees every operation
	// that stays enabled indefinitely eventually runs. Only a fair
	// strategy's runs are eligible for liveness-bug detection, since an
	// adversarial unfair strategy can starve an operation without that
	// being a bug in the program under test.
	IsFair() bool
}
