package scheduler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/failure"
	"github.com/latticeforge/conclave/pkg/log"
	"github.com/latticeforge/conclave/pkg/metrics"
	"github.com/latticeforge/conclave/pkg/monitor"
	"github.com/latticeforge/conclave/pkg/trace"
)

type operation struct {
	id     coreid.ActorId
	name   string
	status Status
	resume chan struct{}
}

type handoffMsg struct {
	id coreid.ActorId
}

// Handle is the token an operation's own goroutine uses to yield control
// back to the scheduler. It is returned by Register and Revive.
type Handle struct {
	id     coreid.ActorId
	sched  *Scheduler
	resume chan struct{}
}

// ID returns the operation's actor id.
func (h *Handle) ID() coreid.ActorId { return h.id }

// Await blocks the calling goroutine until the driver first hands it the
// baton. Register and Revive both create a new operation already marked
// Enabled without resuming it; the owning goroutine must call Await
// before doing any work, so that at most one operation ever runs at a
// time even though its goroutine exists from the moment it is spawned.
func (h *Handle) Await() {
	select {
	case <-h.resume:
	case <-h.sched.stopped:
	}
}

// Yield records newStatus and hands the baton to the driver loop. If
// newStatus is Completed the call returns immediately without waiting,
// since a completed operation's goroutine is about to exit. Otherwise it
// blocks until the driver resumes this operation.
func (h *Handle) Yield(newStatus Status) {
	h.sched.transition(h.id, newStatus, h.resume)
}

// RandomBool yields as a scheduling decision point and then asks the
// active Strategy for the value, so a fixed seed reproduces the same
// boolean sequence as the original run even though the strategy may
// have let other operations run in between.
func (h *Handle) RandomBool() bool {
	h.sched.transition(h.id, Enabled, h.resume)
	return h.sched.nextBoolean()
}

// RandomInteger is RandomBool's integer-range counterpart.
func (h *Handle) RandomInteger(max int) int {
	h.sched.transition(h.id, Enabled, h.resume)
	return h.sched.nextInteger(max)
}

// Scheduler drives one testing-engine iteration's schedule. It also
// implements failure.Sink: the first Report call wins and ends the
// iteration; later calls are suppressed per §7.
type Scheduler struct {
	mu       sync.Mutex
	ops      map[coreid.ActorId]*operation
	order    []coreid.ActorId
	handoff  chan handoffMsg
	stopped  chan struct{}
	stopOnce sync.Once
	strategy Strategy
	monitors []*monitor.Monitor
	trace    *trace.Recorder
	log      zeroLogger

	steps             int
	maxUnfairSteps    int
	maxFairSteps      int
	livenessThreshold int

	bug *Bug
}

// zeroLogger is the narrow slice of zerolog's API the scheduler uses,
// kept as an interface purely so tests can swap in a no-op logger
// without pulling in log.Init global state.
type zeroLogger interface {
	Debugf(format string, args ...any)
}

type defaultLogger struct{}

func (defaultLogger) Debugf(format string, args ...any) {
	log.WithComponent("scheduler").Debug().Msgf(format, args...)
}

// Config configures a new Scheduler.
type Config struct {
	Strategy Strategy
	Monitors []*monitor.Monitor
	Trace    *trace.Recorder
	// MaxUnfairSteps is the hard ceiling on an iteration's length; the
	// iteration aborts with a budget-exceeded bug once it is reached.
	MaxUnfairSteps int
	// MaxFairSteps is how long the schedule is trusted to behave fairly
	// for liveness purposes; the hottest-monitor check only runs past
	// this many steps. Must be <= MaxUnfairSteps.
	MaxFairSteps      int
	LivenessThreshold int
}

// New creates a Scheduler for one iteration. Register the iteration's
// root actor, then call Start with its id.
func New(cfg Config) *Scheduler {
	maxUnfairSteps := cfg.MaxUnfairSteps
	if maxUnfairSteps <= 0 {
		maxUnfairSteps = 10000
	}
	maxFairSteps := cfg.MaxFairSteps
	if maxFairSteps <= 0 {
		maxFairSteps = 5000
	}
	if maxFairSteps > maxUnfairSteps {
		maxFairSteps = maxUnfairSteps
	}
	livenessThreshold := cfg.LivenessThreshold
	if livenessThreshold <= 0 {
		livenessThreshold = 1000
	}
	return &Scheduler{
		ops:               make(map[coreid.ActorId]*operation),
		handoff:           make(chan handoffMsg, 1),
		stopped:           make(chan struct{}),
		strategy:          cfg.Strategy,
		monitors:          cfg.Monitors,
		trace:             cfg.Trace,
		log:               defaultLogger{},
		maxUnfairSteps:    maxUnfairSteps,
		maxFairSteps:      maxFairSteps,
		livenessThreshold: livenessThreshold,
	}
}

// Register creates a new Enabled operation for id and returns the
// Handle its goroutine will use to yield. Register must be called
// before the operation's goroutine starts, while holding whatever
// external synchronization the caller already has (it takes its own
// lock internally and is itself safe to call concurrently).
func (s *Scheduler) Register(id coreid.ActorId, name string) *Handle {
	s.mu.Lock()
	resume := make(chan struct{}, 1)
	s.ops[id] = &operation{id: id, name: name, status: Enabled, resume: resume}
	s.order = append(s.order, id)
	s.mu.Unlock()
	return &Handle{id: id, sched: s, resume: resume}
}

// Revive re-enables an Idle operation with a fresh handler task, per
// §4.1: an Enqueue that finds no handler running hands the caller a new
// Handle to drive that actor's next handler goroutine.
func (s *Scheduler) Revive(id coreid.ActorId) *Handle {
	s.mu.Lock()
	op := s.ops[id]
	resume := make(chan struct{}, 1)
	op.resume = resume
	op.status = Enabled
	s.mu.Unlock()
	return &Handle{id: id, sched: s, resume: resume}
}

// SetStatus updates id's status without yielding the calling goroutine;
// used when an actor's status changes as a side effect observed by
// another goroutine (e.g. the enqueuing side marking a receiver
// Enabled again once it hands it a matching event).
func (s *Scheduler) SetStatus(id coreid.ActorId, status Status) {
	s.mu.Lock()
	if op, ok := s.ops[id]; ok {
		op.status = status
	}
	s.mu.Unlock()
}

// transition is the baton hand-off primitive shared by Yield and the
// random-choice helpers.
func (s *Scheduler) transition(id coreid.ActorId, newStatus Status, resume chan struct{}) {
	s.mu.Lock()
	if op, ok := s.ops[id]; ok {
		op.status = newStatus
	}
	s.mu.Unlock()

	select {
	case s.handoff <- handoffMsg{id: id}:
	case <-s.stopped:
		return
	}
	if newStatus == Completed {
		return
	}
	select {
	case <-resume:
	case <-s.stopped:
	}
}

// Start launches the driver loop and hands the baton to first, which
// must already be Register'd.
func (s *Scheduler) Start(first coreid.ActorId) {
	go s.driverLoop()
	s.resumeOp(first)
}

// Wait blocks until the iteration ends (normal quiescence, deadlock, a
// reported failure, or the step budget was exceeded) and returns the
// recorded Bug, or nil if the iteration completed cleanly.
func (s *Scheduler) Wait() *Bug {
	<-s.stopped
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bug
}

// StoppedCh returns a channel that closes when the iteration ends, for
// callers that need to abandon a blocking wait (e.g. a pending receive)
// once a bug elsewhere has already ended the schedule.
func (s *Scheduler) StoppedCh() <-chan struct{} {
	return s.stopped
}

// Steps returns the number of scheduling decisions made so far.
func (s *Scheduler) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

// Report implements failure.Sink. The first call in an iteration
// records the Bug and ends the iteration; later calls are no-ops.
func (s *Scheduler) Report(kind failure.Kind, format string, args ...any) {
	s.mu.Lock()
	if s.bug != nil {
		s.mu.Unlock()
		return
	}
	msg := fmt.Sprintf(format, args...)
	s.bug = &Bug{Kind: kind, Message: msg, Step: s.steps}
	s.mu.Unlock()

	if s.trace != nil {
		s.trace.Error("[%s] %s", kind, msg)
	}
	s.stopOnce.Do(func() { close(s.stopped) })
}

func (s *Scheduler) resumeOp(id coreid.ActorId) {
	s.mu.Lock()
	op, ok := s.ops[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case op.resume <- struct{}{}:
	case <-s.stopped:
	}
}

func (s *Scheduler) enabledOperations() []coreid.ActorId {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []coreid.ActorId
	for _, id := range s.order {
		if s.ops[id].status == Enabled {
			out = append(out, id)
		}
	}
	return out
}

func (s *Scheduler) nextBoolean() bool {
	s.mu.Lock()
	step := s.steps
	s.mu.Unlock()
	return s.strategy.NextBoolean(step)
}

func (s *Scheduler) nextInteger(max int) int {
	s.mu.Lock()
	step := s.steps
	s.mu.Unlock()
	return s.strategy.NextInteger(max, step)
}

// driverLoop is the single goroutine that ever picks "what runs next".
func (s *Scheduler) driverLoop() {
	for {
		select {
		case <-s.handoff:
		case <-s.stopped:
			return
		}

		s.mu.Lock()
		s.steps++
		step := s.steps
		s.mu.Unlock()

		for _, m := range s.monitors {
			m.StepTemperature()
		}

		if step >= s.maxUnfairSteps {
			s.Report(failure.KindBudgetExceeded, "exceeded max scheduling steps (%d)", s.maxUnfairSteps)
			return
		}

		if step >= s.maxFairSteps && s.strategy.IsFair() {
			if hot := s.hottestMonitor(); hot != nil {
				s.Report(failure.KindLiveness, "Monitor detected potential liveness bug in hot state '%s'.", hot.CurrentState())
				return
			}
		}

		enabled := s.enabledOperations()
		metrics.OperationsEnabled.Set(float64(len(enabled)))
		if len(enabled) == 0 {
			s.finishIteration()
			return
		}

		next := s.strategy.NextOperation(enabled, step)
		metrics.DecisionsTotal.WithLabelValues(s.strategy.Name()).Inc()
		if s.trace != nil {
			s.trace.Strategy("%s selected %s at step %d", s.strategy.Name(), next, step)
		}
		s.resumeOp(next)
	}
}

func (s *Scheduler) hottestMonitor() *monitor.Monitor {
	for _, m := range s.monitors {
		if m.IsHot() && m.HotSteps() > s.livenessThreshold {
			return m
		}
	}
	return nil
}

func (s *Scheduler) finishIteration() {
	s.mu.Lock()
	var blocked []string
	for _, id := range s.order {
		if s.ops[id].status == BlockedReceive {
			blocked = append(blocked, id.String())
		}
	}
	s.mu.Unlock()

	if len(blocked) > 0 {
		s.Report(failure.KindDeadlock,
			"Deadlock detected. %s %s waiting to receive an event, but no other controlled tasks are enabled.",
			strings.Join(blocked, " and "), verbFor(len(blocked)))
		return
	}
	s.stopOnce.Do(func() { close(s.stopped) })
}

func verbFor(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}
