package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/arbor/internal/errors"
)

const (
	// DefaultAddr is the default server listen address.
	DefaultAddr = ":8080"

	// DefaultFrameBudget is the default time a live session may spend
	// reconciling per turn.
	DefaultFrameBudget = "8ms"

	// DefaultDemo is the demo application served when none is configured.
	DefaultDemo = "counter"
)

// FileNames lists the configuration files Load looks for, in order.
var FileNames = []string{"arbor.json", "arbor.yaml", "arbor.yml"}

// Config represents the complete arbor configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Server contains live server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Export contains S3 export configuration.
	Export ExportConfig `json:"export,omitempty" yaml:"export,omitempty"`

	// Demo is the demo application to render or serve.
	Demo string `json:"demo,omitempty" yaml:"demo,omitempty"`

	configPath string
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// FrameBudget is the per-turn reconciliation budget (e.g. "8ms").
	FrameBudget string `json:"frameBudget,omitempty" yaml:"frameBudget,omitempty"`

	// ForceFirstWalk makes the first walk of each session run to completion.
	ForceFirstWalk bool `json:"forceFirstWalk,omitempty" yaml:"forceFirstWalk,omitempty"`

	// Metrics exposes /metrics when enabled.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing records walk and commit spans of every session through the
	// global OpenTelemetry provider.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ExportConfig contains S3 export settings.
type ExportConfig struct {
	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           DefaultAddr,
			FrameBudget:    DefaultFrameBudget,
			ForceFirstWalk: true,
			Metrics:        true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Export: ExportConfig{
			Region: "us-east-1",
			Title:  "arbor",
		},
		Demo: DefaultDemo,
	}
}

// Load reads the first configuration file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E050").
		WithDetail("No arbor.json or arbor.yaml found in " + dir)
}

// LoadOptional is Load, returning defaults when no file exists.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "E050") {
		return New(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from path. The format follows the extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E050").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("E051").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E051").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path in the format of its extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E051").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E051").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	def := New()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.FrameBudget == "" {
		c.Server.FrameBudget = def.Server.FrameBudget
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Export.Region == "" {
		c.Export.Region = def.Export.Region
	}
	if c.Export.Title == "" {
		c.Export.Title = def.Export.Title
	}
	if c.Demo == "" {
		c.Demo = def.Demo
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Server.FrameBudget)
	if err != nil || d <= 0 {
		return errors.New("E052").
			WithDetailf("server.frameBudget %q is not a positive duration", c.Server.FrameBudget)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E052").
			WithDetailf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// FrameBudget returns the parsed server frame budget.
func (c *Config) FrameBudget() time.Duration {
	d, err := time.ParseDuration(c.Server.FrameBudget)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultFrameBudget)
	}
	return d
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Logger builds a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New("E052").
			WithDetailf("log.level %q must be debug, info, warn or error", s)
	}
	return level, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func formatName(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}
