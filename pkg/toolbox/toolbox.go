// Package toolbox defines executable tools and an ordered collection of them.
// Tools are served to MCP clients by package mcpserver.
package toolbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrToolNotFound is returned by Call for an unregistered name.
var ErrToolNotFound = errors.New("tool not found")

// Handler executes a tool with the given JSON input and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is an executable tool with a name, description, JSON Schema and
// handler.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// ToolBox holds tools in registration order.
type ToolBox struct {
	order []string
	tools map[string]Tool
}

// New creates a ToolBox holding tools.
func New(tools ...Tool) *ToolBox {
	tb := &ToolBox{tools: make(map[string]Tool, len(tools))}
	tb.Register(tools...)

	return tb
}

// Register adds tools. A tool with an existing name replaces the old one in
// place.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		if _, ok := tb.tools[t.Name]; !ok {
			tb.order = append(tb.order, t.Name)
		}
		tb.tools[t.Name] = t
	}
}

// Get returns a tool by name.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Tools returns all tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	out := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		out = append(out, tb.tools[name])
	}

	return out
}

// Call runs the named tool. Missing or null input is passed on as an empty
// object.
func (tb *ToolBox) Call(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := tb.Get(name)
	if !ok {
		return "", fmt.Errorf("toolbox: %w: %s", ErrToolNotFound, name)
	}
	if len(bytes.TrimSpace(input)) == 0 || bytes.Equal(bytes.TrimSpace(input), []byte("null")) {
		input = json.RawMessage("{}")
	}

	return t.Handler(ctx, input)
}
