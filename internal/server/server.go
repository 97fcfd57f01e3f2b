// Package server exposes the converters and the integrity engine as MCP
// tools over stdio.
package server

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"drakonflow/internal/convert"
	"drakonflow/internal/logging"
)

const (
	Name    = "drakonflow"
	Version = "0.1.0"

	DefaultCacheSize = 128
)

const systemPrompt = `# drakonflow

Tools for DRAKON flowcharts.

- validate_diagram: check widget JSON and list errors and warnings.
- correct_diagram: repair what can be repaired mechanically and return the corrected JSON with the list of corrections.
- render_narrative: turn widget or graph JSON into indented pseudocode text.
- parse_pseudocode: build a diagram from tagged lines such as [a1] ACTION "Load".
- extract_code_flow: build one diagram per function of a source file.
- convert_diagram: convert between .json, .graph.json, .drn, .drakon and .md files on disk.

Validate before converting hand-written JSON. Correction is idempotent, so
running it twice is harmless.
`

type Server struct {
	mcpServer    *mcp.Server
	conv         *convert.Converter
	cache        *lru.Cache[string, string]
	logger       *zap.Logger
	systemPrompt string
}

// New registers every tool and resource. cacheSize bounds the number of
// memoised results of the pure tools.
func New(conv *convert.Converter, cacheSize int, logger *zap.Logger) (*Server, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	s := &Server{
		mcpServer:    mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
		conv:         conv,
		cache:        cache,
		logger:       logging.OrNop(logger),
		systemPrompt: systemPrompt,
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio", zap.String("version", Version))
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// MCP returns the underlying server, for callers that bring their own
// transport.
func (s *Server) MCP() *mcp.Server { return s.mcpServer }

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// cached returns the memoised result for key or computes and stores it.
// Failed computations are not stored.
func (s *Server) cached(key string, compute func() (string, error)) (string, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return "", err
	}
	s.cache.Add(key, v)
	return v, nil
}
