package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "Echoes input back",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			return string(input), nil
		},
	}
}

func TestToolBox_RegistrationOrder(t *testing.T) {
	tb := New(echoTool("b"), echoTool("a"))
	tb.Register(echoTool("c"), echoTool("b"))

	var names []string
	for _, tool := range tb.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)

	_, ok := tb.Get("a")
	assert.True(t, ok)
	_, ok = tb.Get("zzz")
	assert.False(t, ok)
}

func TestToolBox_Call(t *testing.T) {
	tb := New(echoTool("echo"))

	out, err := tb.Call(context.Background(), "echo", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, out)

	out, err = tb.Call(context.Background(), "echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", out)

	out, err = tb.Call(context.Background(), "echo", json.RawMessage(" null "))
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}

func TestToolBox_CallErrors(t *testing.T) {
	tb := New(Tool{
		Name: "fail",
		Handler: func(context.Context, json.RawMessage) (string, error) {
			return "", errors.New("boom")
		},
	})

	_, err := tb.Call(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)

	_, err = tb.Call(context.Background(), "fail", nil)
	assert.EqualError(t, err, "boom")
}
