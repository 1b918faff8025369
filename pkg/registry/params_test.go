package registry_test

import (
	"testing"

	"github.com/germanamz/rulm/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	r, err := registry.New(
		registry.ModelConfig{Name: "small", Temperature: 0.7, MaxTokens: 512},
		registry.ModelConfig{Name: "large", Temperature: 0.2, MaxTokens: 2000},
	)
	require.NoError(t, err)

	return r
}

func TestInitial(t *testing.T) {
	r := newTestRegistry(t)

	p, err := r.Initial("large")
	require.NoError(t, err)
	assert.Equal(t, registry.Params{Model: "large", Temperature: 0.2, MaxTokens: 2000, MaxTokensCeiling: 2000}, p)
}

func TestSelect_ResetsRegardlessOfPriorValues(t *testing.T) {
	r := newTestRegistry(t)

	priors := []registry.Params{
		{},
		{Model: "large", Temperature: 1, MaxTokens: 1999, MaxTokensCeiling: 2000},
		{Model: "small", Temperature: 0, MaxTokens: 1, MaxTokensCeiling: 512},
		{Model: "ghost", Temperature: 0.5, MaxTokens: -3, MaxTokensCeiling: 7},
	}

	for _, prior := range priors {
		for _, name := range r.Names() {
			m, err := r.Lookup(name)
			require.NoError(t, err)

			got, err := r.Select(name, prior)
			require.NoError(t, err)
			assert.Equal(t, name, got.Model)
			assert.InDelta(t, m.Temperature, got.Temperature, 1e-9)
			assert.Equal(t, m.MaxTokens, got.MaxTokensCeiling)
			assert.GreaterOrEqual(t, got.MaxTokens, 1)
			assert.LessOrEqual(t, got.MaxTokens, got.MaxTokensCeiling)

			again, err := r.Select(name, got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "selecting the same model twice must be idempotent")
		}
	}
}

func TestSelect_ReplacesStaleMaxTokens(t *testing.T) {
	r := newTestRegistry(t)

	p, err := r.Initial("large")
	require.NoError(t, err)
	p = p.AdjustMaxTokens(-200) // 1800

	p, err = r.Select("small", p)
	require.NoError(t, err)
	assert.Equal(t, 512, p.MaxTokens)
	assert.Equal(t, 512, p.MaxTokensCeiling)
}

func TestSelect_KeepsFittingMaxTokens(t *testing.T) {
	r := newTestRegistry(t)

	p := registry.Params{Model: "large", Temperature: 0.9, MaxTokens: 128, MaxTokensCeiling: 2000}

	p, err := r.Select("small", p)
	require.NoError(t, err)
	assert.Equal(t, 128, p.MaxTokens)
	assert.InDelta(t, 0.7, p.Temperature, 1e-9)
}

func TestSelect_Unknown(t *testing.T) {
	r := newTestRegistry(t)
	prior := registry.Params{Model: "small", Temperature: 0.3, MaxTokens: 5, MaxTokensCeiling: 512}

	got, err := r.Select("missing", prior)
	require.ErrorIs(t, err, registry.ErrUnknownModel)
	assert.Equal(t, prior, got)
}

func TestNext_Wraps(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, "large", r.Next("small", 1))
	assert.Equal(t, "small", r.Next("large", 1))
	assert.Equal(t, "large", r.Next("small", -1))
	assert.Equal(t, "small", r.Next("unknown", 1))
}

func TestAdjustTemperature(t *testing.T) {
	p := registry.Params{Temperature: 0.2}

	assert.InDelta(t, 0.3, p.AdjustTemperature(1).Temperature, 1e-9)
	assert.InDelta(t, 0.0, p.AdjustTemperature(-5).Temperature, 1e-9)
	assert.InDelta(t, 1.0, p.AdjustTemperature(20).Temperature, 1e-9)
}

func TestAdjustMaxTokens(t *testing.T) {
	p := registry.Params{MaxTokens: 10, MaxTokensCeiling: 20}

	assert.Equal(t, 15, p.AdjustMaxTokens(5).MaxTokens)
	assert.Equal(t, 20, p.AdjustMaxTokens(100).MaxTokens)
	assert.Equal(t, 1, p.AdjustMaxTokens(-100).MaxTokens)
}
