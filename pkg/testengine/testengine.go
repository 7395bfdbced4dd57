// Package testengine drives the iteration loop described in §4.7: for
// each iteration it builds a fresh scheduler and runtime seeded
// deterministically, runs the program under test to completion, and
// records the first bug (if any) together with its trace. It is the
// direct generalization of the teacher's e2e harness, which re-ran a
// scenario under a fresh manager and recorded the first failure.
package testengine

import (
	"fmt"
	"strings"

	"github.com/latticeforge/conclave/pkg/coreid"
	"github.com/latticeforge/conclave/pkg/log"
	"github.com/latticeforge/conclave/pkg/metrics"
	"github.com/latticeforge/conclave/pkg/monitor"
	"github.com/latticeforge/conclave/pkg/runtime"
	"github.com/latticeforge/conclave/pkg/scheduler"
	"github.com/latticeforge/conclave/pkg/trace"

	"github.com/latticeforge/conclave/pkg/config"
)

// Program is the user's test entry delegate: given a fresh Runtime, it
// constructs the actor graph under test and returns the root actor's id
// for the engine to start scheduling.
type Program func(rt *runtime.Runtime) coreid.ActorId

// MonitorFactory builds one fresh specification monitor instance. The
// engine calls every registered factory once per iteration, since a
// Monitor's current-state/hot-steps fields are mutable per-run state
// and must not be shared across iterations.
type MonitorFactory func() (*monitor.Monitor, error)

// Bug is one iteration's recorded failure, carrying the seed and trace
// needed to reproduce it via Replay, per §8 property 5.
type Bug struct {
	*scheduler.Bug
	Trace []trace.Record
}

// Report renders b the way the CLI's "run" and "replay" subcommands
// print a failing iteration.
func (b *Bug) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", b.Bug)
	for _, rec := range b.Trace {
		fmt.Fprintf(&sb, "  %s\n", rec)
	}
	return sb.String()
}

// Engine drives RunConfig.Iterations iterations of program, registering
// named monitor factories per cfg.Monitors.
type Engine struct {
	cfg      config.RunConfig
	program  Program
	monitors map[string]MonitorFactory
}

// New creates an Engine. monitorFactories maps every monitor type name
// usable in cfg.Monitors to a constructor for a fresh instance.
func New(cfg config.RunConfig, program Program, monitorFactories map[string]MonitorFactory) *Engine {
	return &Engine{cfg: cfg, program: program, monitors: monitorFactories}
}

// Result is the outcome of a Run: every bug found (one per failing
// iteration, or only the first if Run's stopOnFirstBug is true) and how many
// iterations actually executed.
type Result struct {
	Bugs             []*Bug
	IterationsRun    int
	IterationsPlanned int
}

// Report renders a human-readable summary of r, the way the CLI's "run"
// subcommand prints its final tally.
func (r *Result) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ran %d/%d iterations, found %d bug(s)\n", r.IterationsRun, r.IterationsPlanned, len(r.Bugs))
	for _, b := range r.Bugs {
		sb.WriteString(b.Report())
	}
	return sb.String()
}

// Run executes cfg.Iterations iterations of e.program, stopping early
// the moment a bug is found if stopOnFirstBug is true.
func (e *Engine) Run(stopOnFirstBug bool) (*Result, error) {
	result := &Result{IterationsPlanned: e.cfg.Iterations}

	var dfs *scheduler.DFSStrategy
	if e.cfg.Strategy == "dfs" {
		dfs = scheduler.NewDFS()
	}

	for i := 0; i < e.cfg.Iterations; i++ {
		seed := e.cfg.Seed + int64(i)
		strat, err := e.buildStrategy(seed, dfs)
		if err != nil {
			return nil, err
		}

		bug, recs, steps, err := e.runOne(seed, strat)
		if err != nil {
			return nil, err
		}

		result.IterationsRun++
		metrics.IterationsRun.Inc()
		metrics.SchedulingSteps.Observe(float64(steps))

		if bug != nil {
			bug.Seed = seed
			metrics.BugsFound.WithLabelValues(string(bug.Kind)).Inc()
			result.Bugs = append(result.Bugs, &Bug{Bug: bug, Trace: recs})
			if stopOnFirstBug {
				return result, nil
			}
		}

		if dfs != nil && !dfs.PrepareNextIteration() {
			break
		}
	}

	return result, nil
}

// Replay re-executes exactly one iteration under seed and strategyName,
// returning its bug (nil on a clean run) and the full trace recorded
// while producing it. This operationalizes §8 property 5: a fixed
// strategy, seed, and entry delegate must reproduce the same event
// trace on every run. The trace is returned regardless of whether a bug
// was found, so callers (the CLI's "replay --save-trace"/"--compare-trace"
// flags) can persist or diff it even for a clean run.
func (e *Engine) Replay(seed int64, strategyName string) (*Bug, []trace.Record, error) {
	cfg := e.cfg
	cfg.Strategy = strategyName
	tmp := &Engine{cfg: cfg, program: e.program, monitors: e.monitors}

	var dfs *scheduler.DFSStrategy
	if strategyName == "dfs" {
		dfs = scheduler.NewDFS()
	}
	strat, err := tmp.buildStrategy(seed, dfs)
	if err != nil {
		return nil, nil, err
	}

	bug, recs, _, err := tmp.runOne(seed, strat)
	if err != nil {
		return nil, nil, err
	}
	if bug == nil {
		return nil, recs, nil
	}
	bug.Seed = seed
	return &Bug{Bug: bug, Trace: recs}, recs, nil
}

func (e *Engine) buildStrategy(seed int64, dfs *scheduler.DFSStrategy) (scheduler.Strategy, error) {
	switch e.cfg.Strategy {
	case "random":
		return scheduler.NewRandom(seed), nil
	case "dfs":
		return dfs, nil
	case "pct":
		bugDepth := e.cfg.PCTBugDepth
		if bugDepth <= 0 {
			bugDepth = 3
		}
		return scheduler.NewPCT(seed, bugDepth, e.cfg.MaxUnfairSteps), nil
	case "fair-random":
		starvation := e.cfg.FairRandomStarvation
		if starvation <= 0 {
			starvation = 100
		}
		return scheduler.NewFairRandom(seed, starvation), nil
	default:
		return nil, fmt.Errorf("testengine: unknown strategy %q", e.cfg.Strategy)
	}
}

// runOne drives a single iteration to completion and reports its steps
// for the scheduling-steps histogram.
func (e *Engine) runOne(seed int64, strat scheduler.Strategy) (*scheduler.Bug, []trace.Record, int, error) {
	monitors, err := e.buildMonitors()
	if err != nil {
		return nil, nil, 0, err
	}

	rec := trace.NewRecorder(nil)
	sched := scheduler.New(scheduler.Config{
		Strategy:          strat,
		Monitors:          monitors,
		Trace:             rec,
		MaxUnfairSteps:    e.cfg.MaxUnfairSteps,
		MaxFairSteps:      e.cfg.MaxFairSteps,
		LivenessThreshold: e.cfg.LivenessTemperatureThreshold,
	})

	timer := metrics.NewTimer()
	rt := runtime.New(sched, monitors, rec)

	root := e.program(rt)
	if root.IsZero() {
		return nil, nil, 0, fmt.Errorf("testengine: program returned no root actor for seed %d", seed)
	}
	sched.Start(root)
	bug := sched.Wait()
	timer.ObserveDuration(metrics.IterationDuration)

	log.WithIteration(seed).Debug().Msgf("testengine: iteration done in %d step(s), bug=%v", sched.Steps(), bug != nil)

	return bug, rec.Records(), sched.Steps(), nil
}

func (e *Engine) buildMonitors() ([]*monitor.Monitor, error) {
	if len(e.cfg.Monitors) == 0 {
		return nil, nil
	}
	out := make([]*monitor.Monitor, 0, len(e.cfg.Monitors))
	for _, name := range e.cfg.Monitors {
		factory, ok := e.monitors[name]
		if !ok {
			return nil, fmt.Errorf("testengine: no monitor factory registered for %q", name)
		}
		m, err := factory()
		if err != nil {
			return nil, fmt.Errorf("testengine: building monitor %q: %w", name, err)
		}
		out = append(out, m)
	}
	return out, nil
}
