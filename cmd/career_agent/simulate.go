package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-sim/internal/config"
	"github.com/jonathan/career-sim/internal/observability"
	"github.com/jonathan/career-sim/internal/session"
	"github.com/jonathan/career-sim/internal/simulation"
	"github.com/jonathan/career-sim/internal/trigger"
)

var (
	simConfigPath string
	simProfession string
	simDays       int
	simSeed       int64
	simVerbose    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a seeded offline career simulation",
	Long: `Run a full career end-to-end without a database or an API key: job search,
interview, then a fixed number of simulated work days. Content comes from a
deterministic offline generator, so the same seed always replays the same
career.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	simulateCmd.Flags().StringVarP(&simProfession, "profession", "p", "software engineer", "Profession to simulate")
	simulateCmd.Flags().IntVarP(&simDays, "days", "d", 10, "Number of work days to simulate after getting hired")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (0 = from clock)")
	simulateCmd.Flags().BoolVarP(&simVerbose, "verbose", "v", false, "Print every dashboard, task, and meeting outcome")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if simConfigPath != "" {
		loadedCfg, err := config.LoadConfig(simConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
	}

	seed := cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = simSeed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	verbose := cfg.Verbose
	if cmd.Flags().Changed("verbose") {
		verbose = simVerbose
	}

	if simDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	fmt.Fprintf(os.Stdout, "Simulating a %s career for %d days (seed %d)\n\n", simProfession, simDays, seed)

	store := simulation.NewMemStore()
	engine := session.NewEngine(store, simulation.NewOfflineGenerator(seed), nil, trigger.NewSeeded(seed))
	runner := simulation.NewRunner(engine, observability.NewPrinter(os.Stdout), seed)

	_, err := runner.Run(context.Background(), simulation.Options{
		Profession: simProfession,
		Days:       simDays,
		Verbose:    verbose,
	})
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return nil
}
