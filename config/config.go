// Package config loads the autosplitter configuration from a YAML file, the
// environment and .env files.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sarchlab/autosplit/timer"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "AUTOSPLIT"

// Config is the complete autosplitter configuration.
type Config struct {
	// SlowPCMode halves the tick rate. It can change while running.
	SlowPCMode bool            `mapstructure:"slow_pc_mode"`
	Version    string          `mapstructure:"version"`
	LiveSplit  LiveSplitConfig `mapstructure:"livesplit"`
	Log        LogConfig       `mapstructure:"log"`
	Monitor    MonitorConfig   `mapstructure:"monitor"`
	Trace      TraceConfig     `mapstructure:"trace"`
	Attach     AttachConfig    `mapstructure:"attach"`
	Versions   []VersionConfig `mapstructure:"versions"`
}

// LiveSplitConfig tells where LiveSplit Server listens.
type LiveSplitConfig struct {
	Address string        `mapstructure:"address"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// MonitorConfig controls the HTTP monitor.
type MonitorConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Port        int  `mapstructure:"port"`
	OpenBrowser bool `mapstructure:"open_browser"`
}

// TraceConfig controls the command trace. An empty path disables tracing.
type TraceConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// AttachConfig controls how the game process is found.
type AttachConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "v1.0",
		LiveSplit: LiveSplitConfig{
			Address: timer.DefaultLiveSplitAddress,
			Timeout: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Monitor: MonitorConfig{
			Port: 0,
		},
		Trace: TraceConfig{
			Format: "sqlite",
		},
		Attach: AttachConfig{
			PollInterval:  time.Second,
			RetryInterval: 500 * time.Millisecond,
		},
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("slow_pc_mode", defaults.SlowPCMode)
	v.SetDefault("version", defaults.Version)

	v.SetDefault("livesplit.address", defaults.LiveSplit.Address)
	v.SetDefault("livesplit.timeout", defaults.LiveSplit.Timeout)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetDefault("monitor.enabled", defaults.Monitor.Enabled)
	v.SetDefault("monitor.port", defaults.Monitor.Port)
	v.SetDefault("monitor.open_browser", defaults.Monitor.OpenBrowser)

	v.SetDefault("trace.path", defaults.Trace.Path)
	v.SetDefault("trace.format", defaults.Trace.Format)

	v.SetDefault("attach.poll_interval", defaults.Attach.PollInterval)
	v.SetDefault("attach.retry_interval", defaults.Attach.RetryInterval)
}

// New creates a viper instance with defaults and environment binding, and
// reads the config file. With an empty path, autosplit.yaml is looked up in
// the working directory and in ConfigDir, and a missing file is not an error.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// AUTOSPLIT_LIVESPLIT_ADDRESS sets livesplit.address
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		return v, v.ReadInConfig()
	}

	v.SetConfigName("autosplit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(ConfigDir())

	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return v, nil
	}

	return v, err
}

// LoadDotEnv loads environment variables from .env files. Files that do not
// exist are skipped. Variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return err
		}
	}

	return nil
}

// Load reads the configuration from v into a Config struct and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "autosplit")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".autosplit"
	}

	return filepath.Join(home, ".config", "autosplit")
}
