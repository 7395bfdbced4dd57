package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/failure"
)

func TestTwoOperationsPingPongToCompletion(t *testing.T) {
	gen := coreid.NewGenerator()
	aID := gen.Next("A")
	bID := gen.Next("B")

	s := New(Config{Strategy: NewRandom(1)})
	aHandle := s.Register(aID, "A")
	bHandle := s.Register(bID, "B")

	done := make(chan struct{})

	go func() {
		aHandle.Yield(Enabled)
		aHandle.Yield(Completed)
	}()
	go func() {
		bHandle.Yield(Enabled)
		bHandle.Yield(Completed)
		close(done)
	}()

	s.Start(aID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for both operations to complete")
	}
	bug := s.Wait()
	assert.Nil(t, bug)
}

func TestDeadlockDetectedWhenAllOperationsBlockedOnReceive(t *testing.T) {
	gen := coreid.NewGenerator()
	aID := gen.Next("A")

	s := New(Config{Strategy: NewRandom(2)})
	h := s.Register(aID, "A")

	go func() {
		h.Yield(BlockedReceive)
	}()

	s.Start(aID)
	bug := s.Wait()
	require.NotNil(t, bug)
	assert.Equal(t, failure.KindDeadlock, bug.Kind)
}

func TestQuiescenceWithNoBlockedReceiveIsNotABug(t *testing.T) {
	gen := coreid.NewGenerator()
	aID := gen.Next("A")

	s := New(Config{Strategy: NewRandom(3)})
	h := s.Register(aID, "A")

	go func() {
		h.Yield(Idle)
	}()

	s.Start(aID)
	bug := s.Wait()
	assert.Nil(t, bug)
}

func TestReportEndsIterationAndSuppressesLaterReports(t *testing.T) {
	gen := coreid.NewGenerator()
	aID := gen.Next("A")

	s := New(Config{Strategy: NewRandom(4)})
	h := s.Register(aID, "A")

	go func() {
		s.Report(failure.KindAssertion, "first failure")
		s.Report(failure.KindException, "second failure must be suppressed")
		h.Yield(Completed)
	}()

	s.Start(aID)
	bug := s.Wait()
	require.NotNil(t, bug)
	assert.Equal(t, failure.KindAssertion, bug.Kind)
	assert.Equal(t, "first failure", bug.Message)
}

func TestDFSExploresEveryBranch(t *testing.T) {
	strat := NewDFS()
	var schedules [][]int

	for {
		gen := coreid.NewGenerator()
		aID := gen.Next("A")
		s := New(Config{Strategy: strat})
		h := s.Register(aID, "A")

		var choices []int
		go func() {
			v := h.RandomInteger(2)
			choices = append(choices, v)
			v2 := h.RandomInteger(2)
			choices = append(choices, v2)
			h.Yield(Completed)
		}()
		s.Start(aID)
		s.Wait()

		schedules = append(schedules, append([]int(nil), choices...))
		if !strat.PrepareNextIteration() {
			break
		}
	}

	assert.Len(t, schedules, 4, "2 binary choices should exhaustively enumerate 4 schedules")
	seen := map[[2]int]bool{}
	for _, sched := range schedules {
		seen[[2]int{sched[0], sched[1]}] = true
	}
	assert.Len(t, seen, 4, "all 4 branches should be distinct")
}

func TestFairRandomForcesStarvedOperationToRun(t *testing.T) {
	gen := coreid.NewGenerator()
	aID := gen.Next("A")
	bID := gen.Next("B")

	s := New(Config{Strategy: NewFairRandom(5, 3)})
	aHandle := s.Register(aID, "A")
	bHandle := s.Register(bID, "B")

	var bRuns int
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			aHandle.Yield(Enabled)
		}
		aHandle.Yield(Completed)
	}()
	go func() {
		bHandle.Yield(Enabled)
		bRuns++
		bHandle.Yield(Completed)
		close(done)
	}()

	s.Start(aID)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("B was starved past the fairness threshold")
	}
	s.Wait()
	assert.Equal(t, 1, bRuns)
}
