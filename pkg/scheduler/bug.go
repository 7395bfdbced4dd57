package scheduler

import (
	"fmt"

	"github.com/latticeforge/conclave/pkg/failure"
)

// Bug is one iteration's recorded failure: the first fatal condition
// reported during that iteration, per §7's "Tests record the first
// failure per iteration; subsequent errors in the same iteration are
// suppressed."
type Bug struct {
	Kind    failure.Kind
	Message string
	Step    int
	Seed    int64
}

// String renders a Bug the way bug reports and CLI output surface it.
func (b *Bug) String() string {
	return fmt.Sprintf("[%s] %s (step %d, seed %d)", b.Kind, b.Message, b.Step, b.Seed)
}
