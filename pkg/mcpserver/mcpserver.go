// Package mcpserver serves toolbox tools over the Model Context Protocol so
// that MCP clients can run completions through rulm.
package mcpserver

import (
	"context"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/germanamz/rulm/pkg/toolbox"
)

// Server exposes the tools of a toolbox to one MCP client. Every call is
// dispatched by name through the toolbox, so a re-registered tool takes over
// calls made after registration. Register before Run; the toolbox is not
// guarded for concurrent registration.
type Server struct {
	server *mcp.Server
	tools  *toolbox.ToolBox
	logger *slog.Logger
}

// New creates a Server with the given implementation name and version.
func New(name, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	return &Server{server: server, tools: toolbox.New(), logger: logger}
}

// Register adds tools to the server's toolbox and announces them to clients.
func (s *Server) Register(tools ...toolbox.Tool) {
	s.tools.Register(tools...)
	for _, t := range tools {
		s.server.AddTool(toSDKTool(t), s.toSDKHandler(t.Name))
	}
}

// Serve reads requests from in and writes responses to out until ctx is
// cancelled or the transport closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return s.Run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	})
}

// Run serves over an arbitrary transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func toSDKTool(t toolbox.Tool) *mcp.Tool {
	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// toSDKHandler runs the named tool. A handler error, such as a rejected
// completion, becomes a tool result with IsError set, so the client reads
// the service message instead of a protocol error.
func (s *Server) toSDKHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.tools.Call(ctx, name, req.Params.Arguments)
		if err != nil {
			s.logger.Warn("mcp: tool failed", "tool", name, "error", err)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
