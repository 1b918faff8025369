package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/germanamz/rulm/pkg/completion"
	"github.com/germanamz/rulm/pkg/registry"
	"github.com/germanamz/rulm/pkg/session"
)

// Config is the top-level rulm configuration.
type Config struct {
	Endpoint         string                 `mapstructure:"endpoint" yaml:"endpoint"`
	Model            string                 `mapstructure:"model" yaml:"model"`
	DefaultMaxTokens int                    `mapstructure:"default_max_tokens" yaml:"default_max_tokens"`
	Timeout          time.Duration          `mapstructure:"timeout" yaml:"timeout,omitempty"` // 0 means no limit.
	Headers          map[string]string      `mapstructure:"headers" yaml:"headers,omitempty"`
	Models           []registry.ModelConfig `mapstructure:"models" yaml:"models,omitempty"` // Empty means the builtin table.
	Examples         []string               `mapstructure:"examples" yaml:"examples,omitempty"`
	LogLevel         string                 `mapstructure:"log_level" yaml:"log_level,omitempty"`
	LogFile          string                 `mapstructure:"log_file" yaml:"log_file,omitempty"`
	ProgressLabel    string                 `mapstructure:"progress_label" yaml:"progress_label,omitempty"` // Shown next to the prompt progress bar.
}

// DefaultMaxTokens is the max-tokens value a fresh session starts with.
const DefaultMaxTokens = 128

// DefaultExamples are the sample prompts offered by the TUI.
var DefaultExamples = []string{
	"В чем основные различия между языками программирования Python и JavaScript?",
	"Что, если бы Интернет был изобретен в эпоху Возрождения?",
	"Если конечными точками отрезка прямой являются (2, -2) и (10, 4), то какова длина отрезка?",
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"endpoint":  "endpoint",
	"model":     "model",
	"log-file":  "log_file",
	"log-level": "log_level",
	"timeout":   "timeout",
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Endpoint:         completion.DefaultEndpoint,
		Model:            registry.DefaultModel,
		DefaultMaxTokens: DefaultMaxTokens,
		Examples:         append([]string(nil), DefaultExamples...),
		LogLevel:         "info",
		ProgressLabel:    session.DefaultProgressLabel,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()

	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("model", d.Model)
	v.SetDefault("default_max_tokens", d.DefaultMaxTokens)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("examples", d.Examples)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("progress_label", d.ProgressLabel)

	v.SetEnvPrefix("RULM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the YAML file at path, if path is non-empty, and merges it with
// environment variables and the known flags of fs that were set. fs may be
// nil.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := newViper()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("config: bind flag %q: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	for k, val := range cfg.Headers {
		cfg.Headers[k] = os.ExpandEnv(val)
	}

	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	return nil
}

// Registry builds the model registry. An empty model table yields the
// builtin one.
func (c Config) Registry() (*registry.Registry, error) {
	if len(c.Models) == 0 {
		return registry.Default(), nil
	}

	return registry.New(c.Models...)
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("config: endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("config: endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: endpoint %q: scheme must be http or https", c.Endpoint)
	}

	if c.DefaultMaxTokens < 1 {
		return fmt.Errorf("config: default_max_tokens must be positive, got %d", c.DefaultMaxTokens)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	reg, err := c.Registry()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Model != "" {
		if _, err := reg.Lookup(c.Model); err != nil {
			return fmt.Errorf("config: model: %w", err)
		}
	}

	return nil
}

// ParseLevel maps a level name to a slog level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
}
