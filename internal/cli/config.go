package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the CLI defaults read from the environment.
type Config struct {
	DB       string `env:"REWIND_DB"`
	Format   string `env:"REWIND_FORMAT" envDefault:"text"`
	LogLevel string `env:"REWIND_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{Format: "text", LogLevel: "info"}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// configureLogging installs the default slog handler: text on w at level,
// or Debug when verbose.
func configureLogging(w io.Writer, level string, verbose bool) error {
	lvl := slog.LevelInfo
	if level = strings.TrimSpace(level); level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return WrapExitError(ExitCommandError, "invalid REWIND_LOG_LEVEL", err)
		}
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// databasePath returns the --db flag, falling back to REWIND_DB.
func databasePath(flag string, cfg Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.DB != "" {
		return cfg.DB, nil
	}
	return "", NewExitError(ExitCommandError, "--db is required (or set REWIND_DB)")
}
