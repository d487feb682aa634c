package xlcalc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the file form of the workbook options.
//
//	max_range_cells = 100000
//	log_level = "debug"
//	log_format = "json"
type Config struct {
	MaxRangeCells int    `toml:"max_range_cells"`
	LogLevel      string `toml:"log_level"`  // debug, info, warn, error
	LogFormat     string `toml:"log_format"` // text, json
}

// LoadConfig reads a TOML config file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if _, err := cfg.level(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("parsing %s: unknown log_format %q", path, cfg.LogFormat)
	}
	return &cfg, nil
}

func (c *Config) level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// Logger builds the logger described by the config, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// Options converts the config into workbook options. Logs go to logOut;
// a nil logOut leaves logging disabled.
func (c *Config) Options(logOut io.Writer) []Option {
	var opts []Option
	if c.MaxRangeCells > 0 {
		opts = append(opts, WithMaxRangeCells(c.MaxRangeCells))
	}
	if logOut != nil {
		opts = append(opts, WithLogger(c.Logger(logOut)))
	}
	return opts
}
