package scheduler

import (
	"sync"

	"github.com/latticeforge/conclave/pkg/coreid"
)

// dfsFrame records one decision made during an iteration: how many
// options were available, and which one was chosen.
type dfsFrame struct {
	numChoices int
	chosen     int
}

// DFSStrategy performs a systematic, exhaustive depth-first exploration
// of the schedule space across iterations, per §4.6. Each iteration
// replays the prefix of decisions recorded in stack, then explores a new
// branch by always picking option 0 the first time it reaches a fresh
// decision point. PrepareNextIteration backtracks to the next
// unexplored branch between iterations; it returns false once the whole
// tree has been exhausted. DFS is unfair: it has no notion of giving
// every operation a turn, so it is not used for liveness detection.
type DFSStrategy struct {
	mu     sync.Mutex
	stack  []*dfsFrame
	cursor int
}

// NewDFS creates a DFSStrategy. DFS needs no seed: it is fully
// deterministic, exploring branch 0 of every decision first.
func NewDFS() *DFSStrategy {
	return &DFSStrategy{}
}

func (s *DFSStrategy) Name() string { return "dfs" }

func (s *DFSStrategy) IsFair() bool { return false }

// choose returns the chosen index among numChoices options, replaying a
// prior decision if the current cursor position already has one
// recorded, or starting a fresh decision at option 0 otherwise.
func (s *DFSStrategy) choose(numChoices int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if numChoices <= 0 {
		return 0
	}
	if s.cursor < len(s.stack) {
		f := s.stack[s.cursor]
		s.cursor++
		return f.chosen
	}
	f := &dfsFrame{numChoices: numChoices, chosen: 0}
	s.stack = append(s.stack, f)
	s.cursor++
	return 0
}

func (s *DFSStrategy) NextOperation(enabled []coreid.ActorId, step int) coreid.ActorId {
	return enabled[s.choose(len(enabled))]
}

func (s *DFSStrategy) NextBoolean(step int) bool { return s.choose(2) == 1 }

func (s *DFSStrategy) NextInteger(max int, step int) int {
	if max <= 0 {
		return 0
	}
	return s.choose(max)
}

// PrepareNextIteration resets the replay cursor and advances the
// recorded decision stack to the next unexplored branch: it increments
// the last decision's chosen index, popping exhausted decisions off the
// back of the stack first. It returns false once every branch of the
// tree has been visited, meaning the schedule space is fully explored.
func (s *DFSStrategy) PrepareNextIteration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		top.chosen++
		if top.chosen < top.numChoices {
			return true
		}
		s.stack = s.stack[:len(s.stack)-1]
	}
	return false
}
