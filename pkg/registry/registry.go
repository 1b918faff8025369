package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownModel is matched by every UnknownModelError.
var ErrUnknownModel = errors.New("unknown model")

// UnknownModelError is returned when a model name is not registered.
type UnknownModelError struct {
	Name string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("registry: unknown model %q", e.Name)
}

// Is reports whether target is ErrUnknownModel.
func (e *UnknownModelError) Is(target error) bool { return target == ErrUnknownModel }

// ModelConfig holds the generation defaults for one model.
type ModelConfig struct {
	Name        string  `yaml:"name" mapstructure:"name"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"` // Default temperature, in [0,1].
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`   // Max-tokens ceiling, > 0.
}

// Validate checks a single model entry.
func (m ModelConfig) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("registry: model name is required")
	}
	if m.Temperature < 0 || m.Temperature > 1 {
		return fmt.Errorf("registry: model %q: temperature %g out of range [0,1]", m.Name, m.Temperature)
	}
	if m.MaxTokens <= 0 {
		return fmt.Errorf("registry: model %q: max_tokens must be positive", m.Name)
	}

	return nil
}

// Registry is an immutable, ordered set of model configurations.
// It is safe for concurrent use.
type Registry struct {
	models []ModelConfig
	index  map[string]int
}

// New builds a Registry. Names must be unique; order is preserved.
func New(models ...ModelConfig) (*Registry, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("registry: at least one model is required")
	}

	r := &Registry{
		models: make([]ModelConfig, 0, len(models)),
		index:  make(map[string]int, len(models)),
	}

	for _, m := range models {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[m.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate model name %q", m.Name)
		}
		r.index[m.Name] = len(r.models)
		r.models = append(r.models, m)
	}

	return r, nil
}

// Builtin returns the models the public demo endpoint serves.
func Builtin() []ModelConfig {
	return []ModelConfig{
		{Name: "ru-alpaca-7b-q4", Temperature: 0.2, MaxTokens: 512},
		{Name: "saiga-7b-q4", Temperature: 0.2, MaxTokens: 2000},
		{Name: "saiga-7b-v2-q4", Temperature: 0.2, MaxTokens: 2000},
	}
}

// DefaultModel is the model selected when nothing else is configured.
const DefaultModel = "saiga-7b-q4"

// Default returns a Registry with the builtin models.
func Default() *Registry {
	r, err := New(Builtin()...)
	if err != nil {
		panic(err)
	}

	return r
}

// Lookup returns the configuration registered under name.
func (r *Registry) Lookup(name string) (ModelConfig, error) {
	i, ok := r.index[name]
	if !ok {
		return ModelConfig{}, &UnknownModelError{Name: name}
	}

	return r.models[i], nil
}

// Names returns the registered model names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.models))
	for i, m := range r.models {
		names[i] = m.Name
	}

	return names
}

// Models returns a copy of the registered configurations in order.
func (r *Registry) Models() []ModelConfig {
	return append([]ModelConfig(nil), r.models...)
}

// Len returns the number of registered models.
func (r *Registry) Len() int { return len(r.models) }
