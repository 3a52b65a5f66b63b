// Package config loads tbidash settings from a TOML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/tbidash/internal/source"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "TBIDASH_"

// Config holds all tbidash configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Server     ServerConfig     `toml:"server"`
	Charts     ChartsConfig     `toml:"charts"`
	Appearance AppearanceConfig `toml:"appearance"`
	Military   MilitaryConfig   `toml:"military"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
}

// GeneralConfig locates the dataset.
type GeneralConfig struct {
	DataDir      string `toml:"data_dir"                env:"DATA_DIR"`
	AgeFile      string `toml:"age_file,omitempty"      env:"AGE_FILE"`
	YearFile     string `toml:"year_file,omitempty"     env:"YEAR_FILE"`
	MilitaryFile string `toml:"military_file,omitempty" env:"MILITARY_FILE"`
}

// ServerConfig holds web dashboard settings.
type ServerConfig struct {
	Addr              string `toml:"addr"                env:"ADDR"`
	OpenBrowser       bool   `toml:"open_browser"        env:"OPEN_BROWSER"`
	ReloadIntervalSec int    `toml:"reload_interval_sec" env:"RELOAD_INTERVAL_SEC"`
	EventsBuffer      int    `toml:"events_buffer"       env:"EVENTS_BUFFER"`
}

// ChartsConfig holds chart rendering defaults.
type ChartsConfig struct {
	Width  int    `toml:"width"  env:"CHART_WIDTH"`
	Height int    `toml:"height" env:"CHART_HEIGHT"`
	Format string `toml:"format" env:"CHART_FORMAT"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme" env:"THEME"`
}

// MilitaryConfig holds recruitment figures used to normalize service totals.
type MilitaryConfig struct {
	Recruitment map[string]int64 `toml:"recruitment,omitempty" env:"RECRUITMENT"`
}

// TelemetryConfig enables OTLP trace export when an endpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string `toml:"otlp_endpoint,omitempty" env:"OTLP_ENDPOINT"`
	ServiceName  string `toml:"service_name,omitempty"  env:"SERVICE_NAME"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DataDir: ".",
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8501",
			OpenBrowser:       true,
			ReloadIntervalSec: 5,
			EventsBuffer:      200,
		},
		Charts: ChartsConfig{
			Width:  1024,
			Height: 600,
			Format: "svg",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "tbidash",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tbidash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tbidash")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied on top of the file.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path and applies environment overrides.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg from TBIDASH_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks settings that would otherwise fail later and far away.
func (c Config) Validate() error {
	switch strings.ToLower(c.Charts.Format) {
	case "svg", "png":
	default:
		return fmt.Errorf("charts.format must be svg or png, got %q", c.Charts.Format)
	}
	if c.Charts.Width <= 0 || c.Charts.Height <= 0 {
		return fmt.Errorf("charts.width and charts.height must be positive")
	}
	if c.Server.ReloadIntervalSec < 0 {
		return fmt.Errorf("server.reload_interval_sec must not be negative")
	}
	for svc, n := range c.Military.Recruitment {
		if n < 0 {
			return fmt.Errorf("military.recruitment.%s must not be negative", svc)
		}
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's own config file
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Files returns the table file names configured for the data directory.
func (g GeneralConfig) Files() source.FileSet {
	return source.FileSet{
		Age:      g.AgeFile,
		Year:     g.YearFile,
		Military: g.MilitaryFile,
	}
}

// ReloadInterval returns how often the dashboard polls the data files.
// Zero disables polling.
func (s ServerConfig) ReloadInterval() time.Duration {
	return time.Duration(s.ReloadIntervalSec) * time.Second
}
