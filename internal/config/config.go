// Package config loads fieldops settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/fieldops/internal/reconcile"
	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvConfigPath names the variable that points at the YAML file when no
// explicit path is given.
const EnvConfigPath = "FIELDOPS_CONFIG"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Lines    LinesConfig    `yaml:"lines"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	// Path of the SQLite file. A leading ~ expands to the home directory.
	Path string `yaml:"path" env:"FIELDOPS_DB" env-default:"~/.fieldops/fieldops.db"`
}

type ScheduleConfig struct {
	// AnchorDay is the day of month every visit falls on.
	AnchorDay    int `yaml:"anchor_day" env:"FIELDOPS_ANCHOR_DAY" env-default:"15"`
	UpcomingDays int `yaml:"upcoming_days" env:"FIELDOPS_UPCOMING_DAYS" env-default:"60"`
}

type LinesConfig struct {
	// ReorderFailure is "report" (keep the new local order) or "revert".
	ReorderFailure string `yaml:"reorder_failure" env:"FIELDOPS_REORDER_FAILURE" env-default:"report"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" env:"FIELDOPS_HTTP_ADDR" env-default:"127.0.0.1:8484"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"FIELDOPS_LOG_LEVEL" env-default:"warn"`
	Format string `yaml:"format" env:"FIELDOPS_LOG_FORMAT" env-default:"console"`
}

// Load reads path, or the file named by FIELDOPS_CONFIG when path is empty.
// Without a file only environment variables and defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading config from environment: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	p := c.Database.Path
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	c.Database.Path = filepath.Join(home, strings.TrimPrefix(p, "~"))
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if c.Schedule.AnchorDay < 1 || c.Schedule.AnchorDay > 28 {
		errs = append(errs, fmt.Errorf("schedule.anchor_day must be between 1 and 28, got %d", c.Schedule.AnchorDay))
	}
	if c.Schedule.UpcomingDays < 1 {
		errs = append(errs, fmt.Errorf("schedule.upcoming_days must be positive, got %d", c.Schedule.UpcomingDays))
	}
	if _, err := c.Lines.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("lines.reorder_failure: %w", err))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Policy maps the configured reorder failure handling onto the session policy.
func (l LinesConfig) Policy() (reconcile.ReorderPolicy, error) {
	return reconcile.ParseReorderPolicy(l.ReorderFailure)
}

// Logger builds a zap logger writing to stderr.
func (l LogConfig) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	var zc zap.Config
	if l.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
