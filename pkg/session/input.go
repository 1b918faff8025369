package session

import (
	"errors"
	"fmt"

	"github.com/germanamz/rulm/pkg/registry"
)

// ErrInvalidParams is wrapped by every submission validation error.
var ErrInvalidParams = errors.New("invalid parameters")

// Input is what the user submits.
type Input struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewInput combines the prompt with the current parameter state.
func NewInput(prompt string, p registry.Params) Input {
	return Input{
		Prompt:      prompt,
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}

// validate checks in against the registry and returns the model's
// configuration. Out-of-range values are rejected, never clamped.
func validate(reg *registry.Registry, in Input) (registry.ModelConfig, error) {
	if in.Prompt == "" {
		return registry.ModelConfig{}, fmt.Errorf("session: %w: prompt is empty", ErrInvalidParams)
	}
	if in.Model == "" {
		return registry.ModelConfig{}, fmt.Errorf("session: %w: model is empty", ErrInvalidParams)
	}

	m, err := reg.Lookup(in.Model)
	if err != nil {
		return registry.ModelConfig{}, fmt.Errorf("session: %w: %w", ErrInvalidParams, err)
	}

	if in.Temperature < 0 || in.Temperature > 1 {
		return registry.ModelConfig{}, fmt.Errorf("session: %w: temperature %g out of range [0,1]", ErrInvalidParams, in.Temperature)
	}
	if in.MaxTokens < 1 || in.MaxTokens > m.MaxTokens {
		return registry.ModelConfig{}, fmt.Errorf("session: %w: max tokens %d out of range [1,%d] for %s",
			ErrInvalidParams, in.MaxTokens, m.MaxTokens, m.Name)
	}

	return m, nil
}
