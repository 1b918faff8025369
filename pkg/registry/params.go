package registry

import "math"

// Params is the user-editable generation state: the selected model and the
// values shown for temperature and max tokens, plus the current max-tokens
// bound.
type Params struct {
	Model            string
	Temperature      float64
	MaxTokens        int
	MaxTokensCeiling int
}

// TemperatureStep is the granularity of temperature adjustments.
const TemperatureStep = 0.1

// Initial returns the parameters for a fresh selection of name. MaxTokens
// starts at the model's ceiling.
func (r *Registry) Initial(name string) (Params, error) {
	return r.Select(name, Params{})
}

// Select switches current to the model name. Temperature is always reset to
// the model default and the bound is always reset to the model ceiling,
// whatever the previous values were. A max-tokens value that no longer fits
// the new bound is replaced by the ceiling; a value that fits is kept.
func (r *Registry) Select(name string, current Params) (Params, error) {
	m, err := r.Lookup(name)
	if err != nil {
		return current, err
	}

	next := Params{
		Model:            m.Name,
		Temperature:      m.Temperature,
		MaxTokens:        current.MaxTokens,
		MaxTokensCeiling: m.MaxTokens,
	}
	if next.MaxTokens < 1 || next.MaxTokens > next.MaxTokensCeiling {
		next.MaxTokens = next.MaxTokensCeiling
	}

	return next, nil
}

// Next returns the name registered after name, wrapping around. Unknown names
// yield the first model.
func (r *Registry) Next(name string, delta int) string {
	n := len(r.models)
	i, ok := r.index[name]
	if !ok {
		return r.models[0].Name
	}

	return r.models[((i+delta)%n+n)%n].Name
}

// AdjustTemperature moves the temperature by steps of TemperatureStep and
// keeps it within [0,1], rounded to one decimal.
func (p Params) AdjustTemperature(steps int) Params {
	t := math.Round((p.Temperature+float64(steps)*TemperatureStep)*10) / 10
	p.Temperature = math.Max(0, math.Min(1, t))

	return p
}

// AdjustMaxTokens moves max tokens by delta within [1, MaxTokensCeiling].
func (p Params) AdjustMaxTokens(delta int) Params {
	v := p.MaxTokens + delta
	if v < 1 {
		v = 1
	}
	if p.MaxTokensCeiling > 0 && v > p.MaxTokensCeiling {
		v = p.MaxTokensCeiling
	}
	p.MaxTokens = v

	return p
}
