package scheduler

import (
	"math/rand"
	"sync"

	"github.com/latticeforge/conclave/pkg/coreid"
)

// PCTStrategy implements probabilistic concurrency testing: every
// operation gets a random priority, and at a handful of randomly chosen
// steps (the "priority-change points") the currently highest-priority
// enabled operation is demoted to the lowest priority. Between change
// points the driver always runs the highest-priority enabled operation,
// which concentrates exploration on schedules with a small number of
// priority inversions - the schedules that tend to expose bugs that need
// only a few context switches to occur at just the right point.
type PCTStrategy struct {
	mu           sync.Mutex
	rng          *rand.Rand
	bugDepth     int
	changePoints map[int]bool
	priorities   map[coreid.ActorId]int
	nextRank     int
}

// NewPCT creates a PCTStrategy. bugDepth is the number of priority
// classes (typically small, 2-5); estimatedSteps bounds where change
// points are sampled from and only needs to be a rough upper bound on
// the iteration's length.
func NewPCT(seed int64, bugDepth, estimatedSteps int) *PCTStrategy {
	rng := rand.New(rand.NewSource(seed))
	changePoints := make(map[int]bool, bugDepth)
	if estimatedSteps < 1 {
		estimatedSteps = 1
	}
	for i := 0; i < bugDepth-1; i++ {
		changePoints[rng.Intn(estimatedSteps)] = true
	}
	return &PCTStrategy{
		rng:          rng,
		bugDepth:     bugDepth,
		changePoints: changePoints,
		priorities:   make(map[coreid.ActorId]int),
	}
}

func (s *PCTStrategy) Name() string { return "pct" }

func (s *PCTStrategy) IsFair() bool { return false }

// rank returns id's priority, assigning it the next rank on first sight
// so newly created actors start out lowest priority, never preempting
// an in-flight priority-change decision.
func (s *PCTStrategy) rank(id coreid.ActorId) int {
	r, ok := s.priorities[id]
	if !ok {
		r = s.nextRank
		s.nextRank++
		s.priorities[id] = r
	}
	return r
}

func (s *PCTStrategy) highestPriority(enabled []coreid.ActorId) coreid.ActorId {
	best := enabled[0]
	bestRank := s.rank(best)
	for _, id := range enabled[1:] {
		if r := s.rank(id); r < bestRank {
			best, bestRank = id, r
		}
	}
	return best
}

func (s *PCTStrategy) NextOperation(enabled []coreid.ActorId, step int) coreid.ActorId {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.changePoints[step] {
		demoted := s.highestPriority(enabled)
		s.priorities[demoted] = s.nextRank
		s.nextRank++
	}
	return s.highestPriority(enabled)
}

func (s *PCTStrategy) NextBoolean(step int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(2) == 0
}

func (s *PCTStrategy) NextInteger(max int, step int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max <= 0 {
		return 0
	}
	return s.rng.Intn(max)
}
