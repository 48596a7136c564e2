// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/spindle/internal/config"
	"github.com/xkilldash9x/spindle/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// annotationTUI marks commands that own the terminal; their console logs are dropped.
const annotationTUI = "spindle/tui"

var cfgFile string

// NewRootCommand builds the command tree. Each call returns an independent tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spindle",
		Short:         "Spindle walks a decision flow of weighted wheels and constrained pickers.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.Initialize(
					config.LoggerConfig{Level: "info", Format: "console", ServiceName: "spindle"},
					zapcore.Lock(os.Stderr),
				)
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.Initialize(cfg.Logger(), consoleWriter(cmd))
			observability.GetLogger().Debug("Starting spindle",
				zap.String("version", Version), zap.String("command", cmd.Name()))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./spindle.yaml, then ~/.spindle/spindle.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	cmd.AddCommand(newPlayCmd())
	cmd.AddCommand(newSimulateCmd())
	cmd.AddCommand(newLayoutCmd())
	cmd.AddCommand(newConfigCmd())
	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			observability.GetLogger().Error("Command execution failed", zap.Error(err))
			fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
		return err
	}
	return nil
}

// initializeConfig reads the config file, if any, and binds the global flags.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		for _, p := range config.SearchPaths() {
			v.AddConfigPath(p)
		}
		v.SetConfigName("spindle")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if f := cmd.Flags().Lookup("log-level"); f != nil {
		if err := v.BindPFlag("logger.level", f); err != nil {
			return err
		}
	}
	return nil
}

func consoleWriter(cmd *cobra.Command) zapcore.WriteSyncer {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[annotationTUI]; ok {
			return zapcore.AddSync(io.Discard)
		}
	}
	return zapcore.Lock(os.Stderr)
}

// getConfigFromContext returns the configuration stored by the root command.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}
