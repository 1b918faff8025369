// Package initwizard asks for the settings of a new rulm config file.
package initwizard

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/germanamz/rulm/pkg/config"
	"github.com/germanamz/rulm/pkg/registry"
)

// Answers are the raw form values.
type Answers struct {
	Endpoint      string
	Model         string
	MaxTokens     string
	Timeout       string // Duration; empty means no limit.
	TokenEnv      string // Env var holding a bearer token; empty means none.
	LogLevel      string
	WriteModels   bool // Write the model table so it can be edited.
	KeepsExamples bool
}

// DefaultAnswers pre-fills the form from cfg.
func DefaultAnswers(cfg config.Config) Answers {
	a := Answers{
		Endpoint:      cfg.Endpoint,
		Model:         cfg.Model,
		MaxTokens:     strconv.Itoa(cfg.DefaultMaxTokens),
		LogLevel:      cfg.LogLevel,
		KeepsExamples: true,
	}
	if cfg.Timeout > 0 {
		a.Timeout = cfg.Timeout.String()
	}
	if a.LogLevel == "" {
		a.LogLevel = "info"
	}

	return a
}

// Run shows the form and returns the resulting config.
func Run(base config.Config) (config.Config, error) {
	a := DefaultAnswers(base)
	reg, err := base.Registry()
	if err != nil {
		return config.Config{}, err
	}

	models := make([]huh.Option[string], 0, reg.Len())
	for _, n := range reg.Names() {
		models = append(models, huh.NewOption(n, n))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Completion endpoint").Value(&a.Endpoint).Validate(ValidateEndpoint),
			huh.NewSelect[string]().Title("Default model").Options(models...).Value(&a.Model),
			huh.NewInput().Title("Default max tokens").Value(&a.MaxTokens).Validate(ValidatePositiveInt),
			huh.NewInput().Title("Request timeout (e.g. 5m, empty for none)").Value(&a.Timeout).Validate(ValidateOptionalDuration),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Bearer token env var").
				Description("Leave empty if the endpoint needs no auth.").
				Value(&a.TokenEnv),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&a.LogLevel),
			huh.NewConfirm().Title("Write the model table to the file?").Value(&a.WriteModels),
			huh.NewConfirm().Title("Keep the example prompts?").Value(&a.KeepsExamples),
		),
	)
	if err := form.Run(); err != nil {
		return config.Config{}, err
	}

	return Apply(base, a)
}

// Apply merges answers into base and validates the result.
func Apply(base config.Config, a Answers) (config.Config, error) {
	cfg := base
	cfg.Endpoint = strings.TrimSpace(a.Endpoint)
	cfg.Model = a.Model
	cfg.LogLevel = a.LogLevel

	n, err := strconv.Atoi(strings.TrimSpace(a.MaxTokens))
	if err != nil {
		return config.Config{}, fmt.Errorf("max tokens: %w", err)
	}
	cfg.DefaultMaxTokens = n

	cfg.Timeout = 0
	if s := strings.TrimSpace(a.Timeout); s != "" {
		if cfg.Timeout, err = time.ParseDuration(s); err != nil {
			return config.Config{}, fmt.Errorf("timeout: %w", err)
		}
	}

	if env := strings.TrimSpace(a.TokenEnv); env != "" {
		cfg.Headers = map[string]string{"Authorization": "Bearer ${" + env + "}"}
	}

	if a.WriteModels && len(cfg.Models) == 0 {
		cfg.Models = registry.Builtin()
	}

	if !a.KeepsExamples {
		cfg.Examples = nil
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func ValidateEndpoint(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an http or https URL")
	}
	if u.Host == "" {
		return errors.New("host is required")
	}

	return nil
}

func ValidatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a number")
	}
	if n < 1 {
		return errors.New("must be at least 1")
	}

	return nil
}

func ValidateOptionalDuration(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration like 30s or 5m")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}

	return nil
}
