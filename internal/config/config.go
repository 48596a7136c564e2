// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/spindle/internal/animator"
	"github.com/xkilldash9x/spindle/internal/session"
)

// Interface is the read side of the application configuration plus the few setters
// the command line flags need.
type Interface interface {
	Logger() LoggerConfig
	Animation() AnimationConfig
	Session() SessionConfig
	Simulate() SimulateConfig
	Content() session.Content

	SetSessionSeed(seed int64)
	SetSimulateRuns(n int)
	SetSimulateConcurrency(n int)
	SetSpinDuration(d time.Duration)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	AnimationCfg AnimationConfig `mapstructure:"animation" yaml:"animation"`
	SessionCfg   SessionConfig   `mapstructure:"session" yaml:"session"`
	SimulateCfg  SimulateConfig  `mapstructure:"simulate" yaml:"simulate"`
	ContentCfg   session.Content `mapstructure:"content" yaml:"content"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Animation() AnimationConfig { return c.AnimationCfg }
func (c *Config) Session() SessionConfig     { return c.SessionCfg }
func (c *Config) Simulate() SimulateConfig   { return c.SimulateCfg }
func (c *Config) Content() session.Content   { return c.ContentCfg }

func (c *Config) SetSessionSeed(seed int64)       { c.SessionCfg.Seed = seed }
func (c *Config) SetSimulateRuns(n int)           { c.SimulateCfg.Runs = n }
func (c *Config) SetSimulateConcurrency(n int)    { c.SimulateCfg.Concurrency = n }
func (c *Config) SetSpinDuration(d time.Duration) { c.AnimationCfg.SpinDuration = d }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color settings for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AnimationConfig tunes the wheel spin and the reels.
type AnimationConfig struct {
	SpinDuration  time.Duration `mapstructure:"spin_duration" yaml:"spin_duration"`
	MinTurns      float64       `mapstructure:"min_turns" yaml:"min_turns"`
	MaxTurns      float64       `mapstructure:"max_turns" yaml:"max_turns"`
	FrameInterval time.Duration `mapstructure:"frame_interval" yaml:"frame_interval"`
	ReelInterval  time.Duration `mapstructure:"reel_interval" yaml:"reel_interval"`
}

// Spinner converts the section into a spinner configuration. The random source is
// left for the caller.
func (a AnimationConfig) Spinner() animator.Config {
	return animator.Config{
		Duration: a.SpinDuration,
		MinTurns: a.MinTurns,
		MaxTurns: a.MaxTurns,
	}
}

// SessionConfig controls one interactive or automatic session.
type SessionConfig struct {
	// Seed fixes the random source. Zero means seed from the clock.
	Seed     int64 `mapstructure:"seed" yaml:"seed"`
	MaxSteps int   `mapstructure:"max_steps" yaml:"max_steps"`
}

// SimulateConfig drives the batch simulate command.
type SimulateConfig struct {
	Runs        int `mapstructure:"runs" yaml:"runs"`
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// PlayerOptions assembles the player options for one run with the given seed.
func (c *Config) PlayerOptions(seed int64) session.PlayerOptions {
	return session.PlayerOptions{
		Seed:          seed,
		Animation:     c.AnimationCfg.Spinner(),
		FrameInterval: c.AnimationCfg.FrameInterval,
		ReelInterval:  c.AnimationCfg.ReelInterval,
		MaxSteps:      c.SessionCfg.MaxSteps,
	}
}

// NewDefaultConfig creates a new configuration struct populated with the default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	cfg.applyContentDefaults()
	return &cfg
}

// SetDefaults sets the default values for all configuration parameters in Viper.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "spindle")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Animation --
	v.SetDefault("animation.spin_duration", animator.DefaultSpinDuration.String())
	v.SetDefault("animation.min_turns", animator.DefaultMinTurns)
	v.SetDefault("animation.max_turns", animator.DefaultMaxTurns)
	v.SetDefault("animation.frame_interval", animator.DefaultFrameInterval.String())
	v.SetDefault("animation.reel_interval", animator.DefaultReelInterval.String())

	// -- Session --
	v.SetDefault("session.seed", 0)
	v.SetDefault("session.max_steps", session.DefaultMaxSteps)

	// -- Simulate --
	v.SetDefault("simulate.runs", 100)
	v.SetDefault("simulate.concurrency", 4)
}

// NewConfigFromViper unmarshals the configuration held by v, fills content that the
// file left out, and validates the result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("SPINDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyContentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyContentDefaults fills each content section that is empty from the stock content.
// Sections that are present replace the stock ones wholesale.
func (c *Config) applyContentDefaults() {
	def := session.DefaultContent()
	if len(c.ContentCfg.Wheels) == 0 {
		c.ContentCfg.Wheels = def.Wheels
	}
	if len(c.ContentCfg.Catalog) == 0 {
		c.ContentCfg.Catalog = def.Catalog
		c.ContentCfg.Rules = def.Rules
	}
	if len(c.ContentCfg.Accessories) == 0 {
		c.ContentCfg.Accessories = def.Accessories
	}
	if c.ContentCfg.AccessoryMin == 0 && c.ContentCfg.AccessoryMax == 0 {
		c.ContentCfg.AccessoryMin = def.AccessoryMin
		c.ContentCfg.AccessoryMax = def.AccessoryMax
	}
}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() error {
	var errs []error
	switch c.LoggerCfg.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be console or json, got %q", c.LoggerCfg.Format))
	}
	if c.AnimationCfg.SpinDuration <= 0 {
		errs = append(errs, errors.New("animation.spin_duration must be positive"))
	}
	if c.AnimationCfg.MinTurns < 0 || c.AnimationCfg.MaxTurns < c.AnimationCfg.MinTurns {
		errs = append(errs, errors.New("animation.max_turns must be at least animation.min_turns, and both non-negative"))
	}
	if c.AnimationCfg.FrameInterval <= 0 {
		errs = append(errs, errors.New("animation.frame_interval must be positive"))
	}
	if c.AnimationCfg.ReelInterval <= 0 {
		errs = append(errs, errors.New("animation.reel_interval must be positive"))
	}
	if c.SessionCfg.MaxSteps <= 0 {
		errs = append(errs, errors.New("session.max_steps must be a positive integer"))
	}
	if c.SimulateCfg.Runs <= 0 {
		errs = append(errs, errors.New("simulate.runs must be a positive integer"))
	}
	if c.SimulateCfg.Concurrency <= 0 {
		errs = append(errs, errors.New("simulate.concurrency must be a positive integer"))
	}
	if err := c.ContentCfg.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("content: %w", err))
	}
	return errors.Join(errs...)
}

// SearchPaths returns the directories a config file is looked up in: the working
// directory, then ~/.spindle.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, filepath.Join(home, ".spindle"))
	}
	return paths
}
