package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticeforge/conclave/examples"
	"github.com/latticeforge/conclave/pkg/config"
	"github.com/latticeforge/conclave/pkg/log"
	"github.com/latticeforge/conclave/pkg/metrics"
	"github.com/latticeforge/conclave/pkg/testengine"
	"github.com/latticeforge/conclave/pkg/trace"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "conclave-test",
	Short:   "Drive the conclave testing engine against a registered program",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("conclave-test version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(schedulesCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a registered program for some number of iterations",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("config", "", "RunConfig YAML file (flags below override its values)")
	runCmd.Flags().String("program", "", "Registered example program to run (required)")
	runCmd.Flags().Int("iterations", 0, "Number of iterations (0 keeps the config/default value)")
	runCmd.Flags().String("strategy", "", "Exploration strategy: random, dfs, pct, fair-random")
	runCmd.Flags().Int64("seed", 0, "Strategy seed")
	runCmd.Flags().Bool("stop-on-first-bug", true, "Stop exploring as soon as a bug is found")
	runCmd.Flags().String("metrics-addr", "", "If set, serve /metrics, /healthz, /readyz here for the run's duration")
	_ = runCmd.MarkFlagRequired("program")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndOverrideConfig(cmd)
	if err != nil {
		return err
	}

	programName, _ := cmd.Flags().GetString("program")
	entry, err := examples.Lookup(programName)
	if err != nil {
		return err
	}
	cfg.Monitors = monitorNames(entry)

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		stop := serveMetrics(addr)
		defer stop()
	}

	metrics.RegisterComponent("testengine", true, "running")
	stopOnFirstBug, _ := cmd.Flags().GetBool("stop-on-first-bug")
	engine := testengine.New(cfg, entry.Program, entry.Monitors)

	result, err := engine.Run(stopOnFirstBug)
	if err != nil {
		metrics.UpdateComponent("testengine", false, err.Error())
	} else if len(result.Bugs) > 0 {
		metrics.UpdateComponent("testengine", false, "run found bugs")
	} else {
		metrics.UpdateComponent("testengine", true, "completed with no bugs")
	}
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	fmt.Print(result.Report())
	if len(result.Bugs) > 0 {
		os.Exit(1)
	}
	return nil
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run one seed deterministically and print its trace",
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().String("config", "", "RunConfig YAML file (flags below override its values)")
	replayCmd.Flags().String("program", "", "Registered example program to replay (required)")
	replayCmd.Flags().String("strategy", "random", "Exploration strategy this seed was found under")
	replayCmd.Flags().Int64("seed", 0, "Seed to replay (required)")
	replayCmd.Flags().String("save-trace", "", "If set, write this run's trace to the given file")
	replayCmd.Flags().String("compare-trace", "", "If set, parse a previously saved trace from this file and fail if this run's trace differs, per the determinism property a replay must satisfy")
	_ = replayCmd.MarkFlagRequired("program")
	_ = replayCmd.MarkFlagRequired("seed")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndOverrideConfig(cmd)
	if err != nil {
		return err
	}

	programName, _ := cmd.Flags().GetString("program")
	entry, err := examples.Lookup(programName)
	if err != nil {
		return err
	}
	cfg.Monitors = monitorNames(entry)

	seed, _ := cmd.Flags().GetInt64("seed")
	strategy, _ := cmd.Flags().GetString("strategy")

	engine := testengine.New(cfg, entry.Program, entry.Monitors)
	bug, recs, err := engine.Replay(seed, strategy)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	if compareFrom, _ := cmd.Flags().GetString("compare-trace"); compareFrom != "" {
		if err := compareTrace(compareFrom, recs); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		fmt.Printf("trace matches %s\n", compareFrom)
	}

	if saveTo, _ := cmd.Flags().GetString("save-trace"); saveTo != "" {
		if err := saveTrace(saveTo, recs); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
	}

	if bug == nil {
		fmt.Printf("seed %d under %q strategy: no bug\n", seed, strategy)
		return nil
	}
	fmt.Print(bug.Report())
	os.Exit(1)
	return nil
}

// saveTrace writes recs to path in the "<Tag> payload" line format
// trace.Parse reads back, so a saved trace can later be diffed against a
// fresh replay with --compare-trace.
func saveTrace(path string, recs []trace.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save trace: %w", err)
	}
	defer f.Close()
	for _, rec := range recs {
		if _, err := fmt.Fprintln(f, rec.String()); err != nil {
			return fmt.Errorf("save trace: %w", err)
		}
	}
	return nil
}

// compareTrace parses the trace previously saved at path and checks it
// against fresh, the trace just produced by replaying the same seed, per
// §8 property 5's reproducibility guarantee.
func compareTrace(path string, fresh []trace.Record) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("compare trace: %w", err)
	}
	defer f.Close()

	saved, err := trace.Parse(f)
	if err != nil {
		return fmt.Errorf("compare trace: %w", err)
	}

	if len(saved) != len(fresh) {
		return fmt.Errorf("compare trace: saved run has %d record(s), this run has %d", len(saved), len(fresh))
	}
	for i := range saved {
		if saved[i] != fresh[i] {
			return fmt.Errorf("compare trace: record %d differs: saved %q, got %q", i, saved[i], fresh[i])
		}
	}
	return nil
}

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "List available exploration strategies and registered programs",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("strategies: random, dfs, pct, fair-random")
		fmt.Println("programs:")
		for _, name := range examples.Names() {
			fmt.Printf("  %s\n", name)
		}
	},
}

// loadAndOverrideConfig loads a RunConfig from --config, if given, else
// config.Default, then applies any explicitly set flags on top, the
// same override order the teacher's cobra commands use for
// file-then-flag configuration.
func loadAndOverrideConfig(cmd *cobra.Command) (config.RunConfig, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.RunConfig{}, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("iterations") {
		cfg.Iterations, _ = cmd.Flags().GetInt("iterations")
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy, _ = cmd.Flags().GetString("strategy")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	}

	return cfg, cfg.Validate()
}

// serveMetrics starts an HTTP server exposing Prometheus metrics and
// health/readiness probes for the lifetime of a run, the same endpoint
// set the teacher's daemon serves, scoped here to a single CLI
// invocation instead of a long-running process. It returns a func that
// shuts the server down.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", metrics.HealthHandler())
	mux.Handle("/readyz", metrics.ReadyHandler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()

	return func() { _ = srv.Close() }
}

func monitorNames(entry examples.Entry) []string {
	names := make([]string, 0, len(entry.Monitors))
	for name := range entry.Monitors {
		names = append(names, name)
	}
	return names
}
