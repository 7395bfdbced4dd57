package scheduler

import (
	"math/rand"

	"github.com/latticeforge/conclave/pkg/coreid"
)

// RandomStrategy picks uniformly among enabled operations and random
// values, seeded for deterministic replay. It is unfair: nothing stops
// it from starving an operation forever, so it never triggers a
// liveness bug on its own.
type RandomStrategy struct {
	rng *rand.Rand
}

// NewRandom creates a RandomStrategy seeded with seed.
func NewRandom(seed int64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) NextOperation(enabled []coreid.ActorId, step int) coreid.ActorId {
	return enabled[s.rng.Intn(len(enabled))]
}

func (s *RandomStrategy) NextBoolean(step int) bool { return s.rng.Intn(2) == 0 }

func (s *RandomStrategy) NextInteger(max int, step int) int {
	if max <= 0 {
		return 0
	}
	return s.rng.Intn(max)
}

func (s *RandomStrategy) IsFair() bool { return false }
