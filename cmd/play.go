// File: cmd/play.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/spindle/internal/config"
	"github.com/xkilldash9x/spindle/internal/flow"
	"github.com/xkilldash9x/spindle/internal/observability"
	"github.com/xkilldash9x/spindle/internal/session"
	"github.com/xkilldash9x/spindle/internal/tui"
)

// programRunner abstracts tea.Program so tests can run the model headless.
type programRunner func(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error)

func runProgram(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	return tea.NewProgram(m, opts...).Run()
}

func newPlayCmd() *cobra.Command {
	return newPlayCmdWith(runProgram)
}

func newPlayCmdWith(run programRunner) *cobra.Command {
	var (
		seed         int64
		spinDuration time.Duration
		auto         bool
	)

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Play a session interactively in the terminal",
		Long: `Presents the decision flow one step at a time. Choices are picked with the
arrow keys or digits, wheels spin with enter (+/- edits the highlighted weight,
e renames the highlighted segment), the picker toggles with space and resolves
with enter, and a random FP draw starts with enter.

With --auto nobody is asked: every step is answered at random and every wheel
and reel plays out in real time, then the summary is printed.`,
		Annotations: map[string]string{annotationTUI: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
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
			if auto {
				return runAutoPlay(cmd.Context(), cmd.OutOrStdout(), cfg)
			}
			return runPlay(cmd, cfg, run)
		},
	}
	playCmd.Flags().Int64Var(&seed, "seed", 0, "seed for the random source (0 picks one from the clock)")
	playCmd.Flags().DurationVar(&spinDuration, "spin-duration", 0, "length of one wheel spin (default from config)")
	playCmd.Flags().BoolVar(&auto, "auto", false, "walk one session unattended in real time and print the summary")
	return playCmd
}

func runPlay(cmd *cobra.Command, cfg *config.Config, run programRunner) error {
	logger := observability.GetLogger()
	seed := resolveSeed(cfg.Session().Seed)

	anim := cfg.Animation()
	model, err := tui.New(cfg.Content(), tui.Options{
		Seed:          seed,
		Animation:     anim.Spinner(),
		FrameInterval: anim.FrameInterval,
		ReelInterval:  anim.ReelInterval,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	logger.Info("Interactive session started.", zap.Int64("seed", seed))

	if _, err := run(model,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	); err != nil {
		return fmt.Errorf("terminal session failed: %w", err)
	}

	if sum, ok := model.Finished(); ok {
		logger.Info("Session finished.",
			zap.Stringer("session_id", sum.SessionID),
			zap.Int("steps", len(sum.Path)),
			zap.Int("buttons", len(sum.Buttons)))
	}
	return nil
}

// runAutoPlay walks one session on the wall clock, announcing every step as it is
// entered, and prints the summary.
func runAutoPlay(ctx context.Context, w io.Writer, cfg *config.Config) error {
	logger := observability.GetLogger()
	seed := resolveSeed(cfg.Session().Seed)

	var werr error
	opts := cfg.PlayerOptions(seed)
	opts.RealTime = true
	opts.OnStep = func(step flow.Step) {
		if werr == nil {
			_, werr = fmt.Fprintf(w, "> %s\n", step.Title)
		}
	}
	p, err := session.NewPlayer(cfg.Content(), opts, logger)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	logger.Info("Unattended session started.", zap.Int64("seed", seed))

	sum, err := p.Play(ctx)
	if err != nil {
		return err
	}
	if werr != nil {
		return werr
	}
	logger.Info("Session finished.", zap.Stringer("session_id", sum.SessionID), zap.Int("steps", len(sum.Path)))
	return writeSummaryText(w, cfg.Content(), sum, seed)
}

func writeSummaryText(w io.Writer, content session.Content, sum flow.Summary, seed int64) error {
	d := session.SummaryDetails(content, sum)
	var b strings.Builder
	fmt.Fprintf(&b, "\nSession %s (seed %d)\n", sum.SessionID, seed)
	line := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %-16s %s\n", name+":", value)
		}
	}
	list := func(name string, values []string) {
		line(name, strings.Join(values, ", "))
	}
	line("Path", d.Branch)
	line("P", d.PSub)
	line("P wheel", d.PWheel)
	line("FS initial", d.FSInitial)
	line("Shib style", d.ShibStyle)
	line("Corset detail", d.CorsetDetail)
	line("CL", d.TradCL)
	line("FP mode", d.FPMode)
	list("FP selected", d.FPSelected)
	list("FP retained", d.FPRetained)
	list("FP blocked", d.FPBlocked)
	line("F-F / BSC", d.FFBsc)
	line("Location", d.Location)
	line("Accessories", d.AccessoriesWheel)
	list("Accessory items", d.Accessories)
	fmt.Fprintf(&b, "  %-16s %d\n", "Buttons:", len(sum.Buttons))

	_, err := io.WriteString(w, b.String())
	return err
}

// resolveSeed turns the configured seed into a concrete one; zero means the clock.
func resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
