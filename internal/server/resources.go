package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	usageURI      = "drakonflow://usage"
	schemaURIBase = "drakonflow://schemas/"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         usageURI,
		Name:        "Usage",
		Description: "How to use the drakonflow tools",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      usageURI,
					MIMEType: "text/markdown",
					Text:     s.systemPrompt,
				},
			},
		}, nil
	})

	schemaMap := buildSchemaMap()

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaURIBase + "{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		schemaJSON, ok := schemaMap[strings.TrimPrefix(uri, schemaURIBase)]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", strings.TrimPrefix(uri, schemaURIBase))
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/schema+json",
					Text:     schemaJSON,
				},
			},
		}, nil
	})
}

// buildSchemaMap maps each tool name to the JSON schema inferred from its
// args struct. Tools whose schema cannot be inferred are left out, so the
// resource handler reports them as unknown.
func buildSchemaMap() map[string]string {
	schemas := []struct {
		tool   string
		schema func() (string, error)
	}{
		{"validate_diagram", schemaOf[ValidateDiagramArgs]},
		{"correct_diagram", schemaOf[CorrectDiagramArgs]},
		{"render_narrative", schemaOf[RenderNarrativeArgs]},
		{"parse_pseudocode", schemaOf[ParsePseudocodeArgs]},
		{"extract_code_flow", schemaOf[ExtractCodeFlowArgs]},
		{"convert_diagram", schemaOf[ConvertDiagramArgs]},
	}
	m := make(map[string]string, len(schemas))
	for _, entry := range schemas {
		if text, err := entry.schema(); err == nil {
			m[entry.tool] = text
		}
	}
	return m
}

// schemaOf renders the inferred schema of T as indented JSON.
func schemaOf[T any]() (string, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	return string(data), err
}
