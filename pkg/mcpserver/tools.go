package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/rulm/pkg/registry"
	"github.com/germanamz/rulm/pkg/session"
	"github.com/germanamz/rulm/pkg/toolbox"
)

// Defaults fill in the optional arguments of the complete tool.
type Defaults struct {
	Model     string
	MaxTokens int
}

type completeArgs struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

type modelInfo struct {
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

const completeSchema = `{
  "type": "object",
  "properties": {
    "prompt": {"type": "string", "description": "Text to continue"},
    "model": {"type": "string", "description": "Model name; see list_models"},
    "temperature": {"type": "number", "minimum": 0, "maximum": 1},
    "max_tokens": {"type": "integer", "minimum": 1}
  },
  "required": ["prompt"]
}`

// CompletionTools returns the complete and list_models tools backed by ctrl.
// ctrl runs one session at a time, so a second concurrent complete call
// cancels the first.
func CompletionTools(ctrl *session.Controller, d Defaults) []toolbox.Tool {
	reg := ctrl.Registry()

	return []toolbox.Tool{
		{
			Name:        "complete",
			Description: "Continue the prompt with a rulm model and return the generated text.",
			InputSchema: json.RawMessage(completeSchema),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args completeArgs
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("complete: invalid arguments: %w", err)
				}

				in, err := completeInput(reg, d, args)
				if err != nil {
					return "", err
				}

				res, err := ctrl.Run(ctx, in)
				if err != nil {
					return "", err
				}
				if res.State == session.StateCancelled {
					return "", errors.New("complete: cancelled")
				}

				return res.Generated, nil
			},
		},
		{
			Name:        "list_models",
			Description: "List the available models with their default temperature and max-tokens ceiling.",
			InputSchema: json.RawMessage(`{"type":"object"}`),
			Handler: func(context.Context, json.RawMessage) (string, error) {
				models := reg.Models()
				out := make([]modelInfo, 0, len(models))
				for _, m := range models {
					out = append(out, modelInfo{Name: m.Name, Temperature: m.Temperature, MaxTokens: m.MaxTokens})
				}

				data, err := json.Marshal(out)
				if err != nil {
					return "", fmt.Errorf("list_models: %w", err)
				}

				return string(data), nil
			},
		},
	}
}

// completeInput applies the model switch rules to the defaults, then the
// explicit arguments on top.
func completeInput(reg *registry.Registry, d Defaults, args completeArgs) (session.Input, error) {
	model := args.Model
	if model == "" {
		model = d.Model
	}

	p, err := reg.Select(model, registry.Params{MaxTokens: d.MaxTokens})
	if err != nil {
		return session.Input{}, fmt.Errorf("complete: %w", err)
	}
	if args.Temperature != nil {
		p.Temperature = *args.Temperature
	}
	if args.MaxTokens != nil {
		p.MaxTokens = *args.MaxTokens
	}

	return session.NewInput(args.Prompt, p), nil
}
