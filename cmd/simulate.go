// File: cmd/simulate.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/spindle/internal/config"
	"github.com/xkilldash9x/spindle/internal/observability"
	"github.com/xkilldash9x/spindle/internal/session"
)

// SimulationReport is the output of one simulate batch.
type SimulationReport struct {
	BatchID  uuid.UUID      `json:"batch_id"`
	BaseSeed int64          `json:"base_seed"`
	Elapsed  string         `json:"elapsed"`
	Stats    *session.Stats `json:"stats"`
}

func newSimulateCmd() *cobra.Command {
	var (
		runs         int
		concurrency  int
		seed         int64
		format       string
		spinDuration time.Duration
	)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Walk many sessions automatically and tally the outcomes",
		Long: `Runs independent sessions through the real spin and reel animations on a
virtual clock. Run i uses seed base+i, so a batch with a fixed --seed is reproducible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("runs") {
				cfg.SetSimulateRuns(runs)
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.SetSimulateConcurrency(concurrency)
			}
			if cmd.Flags().Changed("seed") {
				cfg.SetSessionSeed(seed)
			}
			if cmd.Flags().Changed("spin-duration") {
				cfg.SetSpinDuration(spinDuration)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			report, err := runSimulation(cmd.Context(), cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, format)
		},
	}

	simulateCmd.Flags().IntVarP(&runs, "runs", "n", 0, "number of sessions to walk (default from config)")
	simulateCmd.Flags().IntVar(&concurrency, "concurrency", 0, "sessions walked at once (default from config)")
	simulateCmd.Flags().Int64Var(&seed, "seed", 0, "base seed (0 picks one from the clock)")
	simulateCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	simulateCmd.Flags().DurationVar(&spinDuration, "spin-duration", 0, "length of one wheel spin on the virtual clock (default from config)")
	return simulateCmd
}

// runSimulation walks cfg.Simulate().Runs sessions with a bounded errgroup.
func runSimulation(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*SimulationReport, error) {
	base := resolveSeed(cfg.Session().Seed)
	sim := cfg.Simulate()
	content := cfg.Content()
	report := &SimulationReport{BatchID: uuid.New(), BaseSeed: base, Stats: session.NewStats()}
	logger = logger.With(zap.Stringer("batch_id", report.BatchID))
	logger.Info("Simulation started.", zap.Int("runs", sim.Runs), zap.Int("concurrency", sim.Concurrency))
	start := time.Now()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sim.Concurrency)
	for i := 0; i < sim.Runs; i++ {
		seed := base + int64(i)
		g.Go(func() error {
			p, err := session.NewPlayer(content, cfg.PlayerOptions(seed), logger)
			if err != nil {
				return err
			}
			sum, err := p.Play(gctx)
			if err != nil {
				return fmt.Errorf("run with seed %d: %w", seed, err)
			}
			mu.Lock()
			report.Stats.Add(content, sum)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	report.Elapsed = elapsed.String()
	logger.Info("Simulation finished.", zap.Duration("elapsed", elapsed))
	return report, nil
}

func writeReport(w io.Writer, report *SimulationReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		return writeReportText(w, report)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

func writeReportText(w io.Writer, report *SimulationReport) error {
	s := report.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s: %d runs from seed %d in %s\n", report.BatchID, s.Runs, report.BaseSeed, report.Elapsed)

	tally := func(title string, counts map[string]int) {
		if len(counts) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s\n", title)
		for _, k := range session.SortedKeys(counts) {
			fmt.Fprintf(&b, "  %-20s %6d  %5.1f%%\n", k, counts[k], 100*s.Share(counts[k]))
		}
	}
	tally("Branches", s.Branches)
	titles := make(map[string]int, len(s.Wheels))
	for title, byLabel := range s.Wheels {
		for _, n := range byLabel {
			titles[title] += n
		}
	}
	for _, title := range session.SortedKeys(titles) {
		tally(title, s.Wheels[title])
	}
	tally("FP retained", s.FPRetained)
	tally("Accessories", s.Accessories)

	_, err := io.WriteString(w, b.String())
	return err
}
