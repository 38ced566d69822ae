package cliapp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"dporsched/internal/checkpoint"
	"dporsched/internal/config"
	"dporsched/internal/minimize"
	"dporsched/internal/model"
	"dporsched/internal/obslog"
	"dporsched/internal/scheduler"
	"dporsched/internal/tracelog"
)

// rootFlags collects the persistent flags shared by every subcommand,
// mirroring the teacher's cli.CLIInvocation: all inputs are canonicalized
// up front rather than read piecemeal deep inside command bodies.
type rootFlags struct {
	configPath string
	logLevel   string
	outputDir  string
}

// NewRootCommand builds the dpor root cobra.Command with its run and
// minimize subcommands attached.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "dpor",
		Short: "Dynamic partial-order reduction scheduler for message-passing actor programs",
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML EngineConfig (defaults to config.Default())")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "one of debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.outputDir, "output-dir", ".dpor-out", "directory for persisted traces and checkpoints")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newMinimizeCommand(flags))
	return root
}

func (f *rootFlags) loadConfig() (config.EngineConfig, error) {
	if f.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(f.configPath)
}

func (f *rootFlags) buildLogger() (*obslog.Logger, error) {
	level, err := zapcore.ParseLevel(f.logLevel)
	if err != nil {
		return nil, fmt.Errorf("cliapp: invalid --log-level %q: %w", f.logLevel, err)
	}
	return obslog.New(level)
}

// schedulerConfig translates a config.EngineConfig into the lower-level
// scheduler.Config Engine actually takes, resolving the ambiguity-strategy
// name and wiring an AbsentTracker when divergence feeds absent tracking.
func schedulerConfig(cfg config.EngineConfig, absent *minimize.AbsentTracker) scheduler.Config {
	sc := scheduler.Config{
		MaxDepth:         cfg.MaxDepth,
		DivergencePolicy: cfg.DivergencePolicy,
		WildcardStrategy: ResolveStrategy(cfg.AmbiguityStrategy),
	}
	if cfg.DivergencePolicy == scheduler.DivergenceFeedsAbsentTracking && absent != nil {
		sc.AbsentRecorder = absent
	}
	return sc
}

func newRunCommand(flags *rootFlags) *cobra.Command {
	var scenarioName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the DPOR search over a named scenario to exhaustion",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, ok := Lookup(scenarioName)
			if !ok {
				return fmt.Errorf("cliapp: unknown scenario %q (available: %v)", scenarioName, Names())
			}
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			log, err := flags.buildLogger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			absent := minimize.NewAbsentTracker()
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DPORBudget)
			defer cancel()

			result, err := RunSearch(ctx, log, schedulerConfig(cfg, absent), scenario)
			if err != nil {
				return fmt.Errorf("cliapp: run %s: %w", scenarioName, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scenario=%s runs=%d graph_nodes=%d violation_at=%d\n",
				scenario.Name, result.RunCounter, result.GraphSize, result.ViolationAt)

			runID := "run-" + uuid.NewString()
			return persistRun(flags.outputDir, runID, result.RunCounter, result.FinalTrace)
		},
	}
	cmd.Flags().StringVar(&scenarioName, "scenario", "fan-out-race", fmt.Sprintf("scenario to run (one of %v)", Names()))
	return cmd
}

func newMinimizeCommand(flags *rootFlags) *cobra.Command {
	var scenarioName string
	var aggressivenessName string

	cmd := &cobra.Command{
		Use:   "minimize",
		Short: "Run the full search over a scenario, then shrink the first violating trace it finds",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, ok := Lookup(scenarioName)
			if !ok {
				return fmt.Errorf("cliapp: unknown scenario %q (available: %v)", scenarioName, Names())
			}
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			log, err := flags.buildLogger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			aggressiveness, err := parseAggressiveness(aggressivenessName)
			if err != nil {
				return err
			}

			absent := minimize.NewAbsentTracker()
			searchCtx, cancelSearch := context.WithTimeout(cmd.Context(), cfg.DPORBudget)
			defer cancelSearch()
			result, err := RunSearch(searchCtx, log, schedulerConfig(cfg, absent), scenario)
			if err != nil {
				return fmt.Errorf("cliapp: run %s: %w", scenarioName, err)
			}
			if result.ViolationAt < 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "scenario=%s: no violation observed across %d runs, nothing to minimize\n", scenario.Name, result.RunCounter)
				return nil
			}

			minCtx, cancelMin := context.WithTimeout(cmd.Context(), cfg.MinimizeBudget)
			defer cancelMin()
			shrunk, stats, err := Minimize(minCtx, log, schedulerConfig(cfg, absent), scenario, result.FinalTrace, aggressiveness)
			if err != nil {
				return fmt.Errorf("cliapp: minimize %s: %w", scenarioName, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scenario=%s original=%d minimized=%d clusters_removed=%d timers_removed=%d replays=%d\n",
				scenario.Name, len(result.FinalTrace), len(shrunk), stats.ClustersBlacklisted, stats.TimersRemoved, stats.Replays)

			runID := "run-" + uuid.NewString() + "-minimized"
			return persistRun(flags.outputDir, runID, result.RunCounter, shrunk)
		},
	}
	cmd.Flags().StringVar(&scenarioName, "scenario", "fan-out-race", fmt.Sprintf("scenario to run (one of %v)", Names()))
	cmd.Flags().StringVar(&aggressivenessName, "aggressiveness", "None", "one of None, AllTimersFirstIteration, StopImmediately")
	return cmd
}

func parseAggressiveness(name string) (minimize.Aggressiveness, error) {
	switch name {
	case "None", "":
		return minimize.None, nil
	case "AllTimersFirstIteration":
		return minimize.AllTimersFirstIteration, nil
	case "StopImmediately":
		return minimize.StopImmediately, nil
	default:
		return 0, fmt.Errorf("cliapp: unknown aggressiveness %q", name)
	}
}

// persistRun writes the final trace to outputDir as a tracelog.Log and
// saves a matching checkpoint.Checkpoint, aggregating both failures with
// multierr the way a caller that wants every write attempted (rather than
// bailing at the first error) would.
func persistRun(outputDir, runID string, runCounter int, trace []model.Unique) error {
	codec := tracelog.BytesCodec{}
	log, err := tracelog.FromTrace(trace, codec)
	if err != nil {
		return fmt.Errorf("cliapp: encode trace: %w", err)
	}
	hash, err := log.Hash()
	if err != nil {
		return fmt.Errorf("cliapp: hash trace: %w", err)
	}

	tracePath := filepath.Join(outputDir, "traces", runID+".json")
	writeErr := tracelog.Write(tracePath, log)

	store, storeErr := checkpoint.NewFileStore(filepath.Join(outputDir, "checkpoints"))
	if storeErr != nil {
		return multierr.Append(writeErr, fmt.Errorf("cliapp: open checkpoint store: %w", storeErr))
	}
	saveErr := store.Save(context.Background(), checkpoint.Checkpoint{
		ID:           "final",
		RunID:        runID,
		Timestamp:    time.Now(),
		RunCounter:   runCounter,
		CurrentTrace: log,
		NextTrace:    log,
		GraphHash:    hash,
	})

	return multierr.Combine(writeErr, saveErr)
}
