package scheduler

import (
	"math/rand"
	"sync"

	"github.com/latticeforge/conclave/pkg/coreid"
)

// FairRandomStrategy is RandomStrategy's liveness-aware sibling: it
// still picks uniformly among enabled operations most of the time, but
// forces the longest-waiting enabled operation to run once it has gone
// more than starvationThreshold steps without a turn. That guarantee is
// what makes its runs eligible for liveness-bug detection — a monitor
// that stays hot forever under a fair strategy really is stuck, since
// every operation that stays enabled is guaranteed to run eventually.
type FairRandomStrategy struct {
	mu                  sync.Mutex
	rng                 *rand.Rand
	lastRun             map[coreid.ActorId]int
	starvationThreshold int
}

// NewFairRandom creates a FairRandomStrategy seeded with seed.
// starvationThreshold is the maximum number of steps an enabled
// operation may go without running before it is forced to the front.
func NewFairRandom(seed int64, starvationThreshold int) *FairRandomStrategy {
	return &FairRandomStrategy{
		rng:                 rand.New(rand.NewSource(seed)),
		lastRun:             make(map[coreid.ActorId]int),
		starvationThreshold: starvationThreshold,
	}
}

func (s *FairRandomStrategy) Name() string { return "fair-random" }

func (s *FairRandomStrategy) IsFair() bool { return true }

func (s *FairRandomStrategy) NextOperation(enabled []coreid.ActorId, step int) coreid.ActorId {
	s.mu.Lock()
	defer s.mu.Unlock()

	var starved coreid.ActorId
	found, longest := false, s.starvationThreshold
	for _, id := range enabled {
		last, ok := s.lastRun[id]
		if !ok {
			// First sighting: start its wait clock now.
			s.lastRun[id] = step
			continue
		}
		if wait := step - last; wait > longest {
			starved, longest, found = id, wait, true
		}
	}
	if found {
		s.lastRun[starved] = step
		return starved
	}
	chosen := enabled[s.rng.Intn(len(enabled))]
	s.lastRun[chosen] = step
	return chosen
}

func (s *FairRandomStrategy) NextBoolean(step int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(2) == 0
}

func (s *FairRandomStrategy) NextInteger(max int, step int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max <= 0 {
		return 0
	}
	return s.rng.Intn(max)
}
