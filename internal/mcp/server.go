// Package mcp serves the dashboard as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"time"

	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/export"
	"dashmetrics/internal/project"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Config holds what the tools need beyond the session.
type Config struct {
	ExportDir          string
	ExportHistoryLimit int
	Version            string
}

// Server holds the state for the MCP server.
type Server struct {
	projects *project.Manager
	dash     *dashboard.Session
	exports  export.Recorder
	cfg      Config
	now      func() time.Time
}

// NewServer creates a new MCP server. exports may be nil to skip the export log.
func NewServer(projects *project.Manager, dash *dashboard.Session, exports export.Recorder, cfg Config) *Server {
	return &Server{projects: projects, dash: dash, exports: exports, cfg: cfg, now: time.Now}
}

// Serve runs the MCP protocol over stdin/stdout until the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Msg("Starting MCP server on stdio")
	return s.build().Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) build() *sdk.Server {
	version := s.cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdk.NewServer(&sdk.Implementation{Name: "dashmetrics", Version: version}, nil)
	s.registerTools(server)
	return server
}

// tool adapts a handler returning any value into an SDK tool handler that
// answers with the value as indented JSON text.
func tool[In any](name string, h func(context.Context, In) (any, error)) sdk.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
		data, err := h(ctx, in)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("Tool call failed")
			return &sdk.CallToolResult{
				IsError: true,
				Content: []sdk.Content{&sdk.TextContent{Text: toolError(err)}},
			}, nil, nil
		}
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: formatResult(data)}},
		}, nil, nil
	}
}

func formatResult(data any) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}
