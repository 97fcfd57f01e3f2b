package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"drakonflow/internal/convert"
	"drakonflow/internal/graph"
	"drakonflow/internal/ingest"
	"drakonflow/internal/integrity"
	"drakonflow/internal/narrative"
	"drakonflow/internal/widget"
	"drakonflow/util"
)

// Arguments structs

type ValidateDiagramArgs struct {
	Diagram string `json:"diagram" jsonschema:"The widget JSON document to validate, as text"`
}

type CorrectDiagramArgs struct {
	Diagram string `json:"diagram" jsonschema:"The widget JSON document to correct, as text"`
}

type RenderNarrativeArgs struct {
	Diagram string `json:"diagram" jsonschema:"Widget JSON or graph JSON, as text"`
}

type ParsePseudocodeArgs struct {
	Source string `json:"source" jsonschema:"Tagged pseudocode lines, optionally with TITLE, AUTHOR and DATE lines"`
	Name   string `json:"name,omitempty" jsonschema:"Default diagram title when the source has no TITLE line"`
	Output string `json:"output,omitempty" jsonschema:"Result format: json (default), graph or narrative"`
}

type ExtractCodeFlowArgs struct {
	FilePath string `json:"file_path" jsonschema:"Path of the source file; its extension selects the grammar"`
	Source   string `json:"source,omitempty" jsonschema:"Source text; when empty the file at file_path is read"`
	Output   string `json:"output,omitempty" jsonschema:"Result format per function: json (default), graph or narrative"`
}

type ConvertDiagramArgs struct {
	InputPath  string `json:"input_path" jsonschema:"File to convert (.json, .graph.json, .drn or .drakon)"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"Destination file; its extension selects the format"`
	Both       bool   `json:"both,omitempty" jsonschema:"Write both .drn and .json next to the input or into output_dir"`
	OutputDir  string `json:"output_dir,omitempty" jsonschema:"Destination directory when both is set"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "validate_diagram",
		Description: "Validates DRAKON widget JSON and reports every error and warning",
	}, s.validateDiagram)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "correct_diagram",
		Description: "Applies mechanical corrections to DRAKON widget JSON and returns the corrected document",
	}, s.correctDiagram)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "render_narrative",
		Description: "Renders a diagram as indented pseudocode text",
	}, s.renderNarrative)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "parse_pseudocode",
		Description: "Builds a diagram from tagged pseudocode lines",
	}, s.parsePseudocode)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "extract_code_flow",
		Description: "Builds one diagram per function of a source file",
	}, s.extractCodeFlow)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "convert_diagram",
		Description: "Converts a diagram file to another format on disk",
	}, s.convertDiagram)
}

type validation struct {
	Valid    bool              `json:"valid"`
	Errors   []integrity.Issue `json:"errors"`
	Warnings []integrity.Issue `json:"warnings"`
}

func newValidation(r integrity.Report) validation {
	v := validation{Valid: r.Valid(), Errors: r.Errors, Warnings: r.Warnings}
	if v.Errors == nil {
		v.Errors = []integrity.Issue{}
	}
	if v.Warnings == nil {
		v.Warnings = []integrity.Issue{}
	}
	return v
}

func (s *Server) validateDiagram(ctx context.Context, req *mcp.CallToolRequest, args ValidateDiagramArgs) (*mcp.CallToolResult, any, error) {
	out, err := s.cached(util.ContentKey("validate_diagram", args.Diagram), func() (string, error) {
		doc, err := integrity.ParseDocument([]byte(args.Diagram))
		if err != nil {
			return "", err
		}
		return marshal(newValidation(integrity.Validate(doc)))
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Validation failed: %v", err)), nil, nil
	}
	return textResult(out), nil, nil
}

func (s *Server) correctDiagram(ctx context.Context, req *mcp.CallToolRequest, args CorrectDiagramArgs) (*mcp.CallToolResult, any, error) {
	out, err := s.cached(util.ContentKey("correct_diagram", args.Diagram), func() (string, error) {
		doc, err := integrity.ParseDocument([]byte(args.Diagram))
		if err != nil {
			return "", err
		}
		fixed, corrections := integrity.CorrectInOrder(doc, integrity.ItemOrder([]byte(args.Diagram)))
		if corrections == nil {
			corrections = []string{}
		}
		return marshal(struct {
			Diagram     map[string]any `json:"diagram"`
			Corrections []string       `json:"corrections"`
			validation
		}{fixed, corrections, newValidation(integrity.Validate(fixed))})
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Correction failed: %v", err)), nil, nil
	}
	return textResult(out), nil, nil
}

func (s *Server) renderNarrative(ctx context.Context, req *mcp.CallToolRequest, args RenderNarrativeArgs) (*mcp.CallToolResult, any, error) {
	out, err := s.cached(util.ContentKey("render_narrative", args.Diagram), func() (string, error) {
		d, err := decodeDiagram([]byte(args.Diagram), s.conv.Labels)
		if err != nil {
			return "", err
		}
		return s.renderer().Render(d), nil
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Render failed: %v", err)), nil, nil
	}
	return textResult(out), nil, nil
}

func (s *Server) parsePseudocode(ctx context.Context, req *mcp.CallToolRequest, args ParsePseudocodeArgs) (*mcp.CallToolResult, any, error) {
	name := args.Name
	if name == "" {
		name = "diagram"
	}
	out, err := s.cached(util.ContentKey("parse_pseudocode", name, args.Output, args.Source), func() (string, error) {
		d, _, err := ingest.ParsePseudocode(name, strings.NewReader(args.Source))
		if err != nil {
			return "", err
		}
		return s.format(d, args.Output)
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Parse failed: %v", err)), nil, nil
	}
	return textResult(out), nil, nil
}

func (s *Server) extractCodeFlow(ctx context.Context, req *mcp.CallToolRequest, args ExtractCodeFlowArgs) (*mcp.CallToolResult, any, error) {
	if args.FilePath == "" {
		return errorResult("file_path is required"), nil, nil
	}

	var diagrams []*graph.Diagram
	var err error
	if args.Source != "" {
		diagrams, err = ingest.ExtractFile(args.FilePath, []byte(args.Source), s.conv.Locator, s.conv.Dialect)
	} else {
		diagrams, err = s.conv.ExtractSource(args.FilePath)
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Extraction failed: %v", err)), nil, nil
	}
	if len(diagrams) == 0 {
		return textResult("No functions with control flow found."), nil, nil
	}

	type FunctionDiagram struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Diagram     json.RawMessage `json:"diagram,omitempty"`
		Text        string          `json:"text,omitempty"`
	}
	var result []FunctionDiagram
	for _, d := range diagrams {
		text, err := s.format(d, args.Output)
		if err != nil {
			return errorResult(fmt.Sprintf("Encoding %s failed: %v", d.Name, err)), nil, nil
		}
		fd := FunctionDiagram{Name: d.Name, Description: d.Description}
		if json.Valid([]byte(text)) {
			fd.Diagram = json.RawMessage(text)
		} else {
			fd.Text = text
		}
		result = append(result, fd)
	}

	out, err := marshal(result)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(out), nil, nil
}

func (s *Server) convertDiagram(ctx context.Context, req *mcp.CallToolRequest, args ConvertDiagramArgs) (*mcp.CallToolResult, any, error) {
	var written []string
	var err error
	switch {
	case args.Both:
		written, err = s.conv.ConvertBoth(ctx, args.InputPath, args.OutputDir)
	case args.OutputPath == "":
		return errorResult("output_path is required unless both is set"), nil, nil
	default:
		err = s.conv.Convert(ctx, args.InputPath, args.OutputPath)
		if err == nil {
			written = []string{args.OutputPath}
		}
	}
	if err != nil {
		s.logger.Warn("conversion failed", zap.String("input", args.InputPath), zap.Error(err))
		msg := fmt.Sprintf("Conversion failed: %v", err)
		var rerr *integrity.ReportError
		if errors.As(err, &rerr) {
			msg += "\n\n" + rerr.Report.String()
		}
		return errorResult(msg), nil, nil
	}

	var b strings.Builder
	for _, p := range written {
		fmt.Fprintf(&b, "Created %s\n", util.PathToURI(p))
	}
	return textResult(b.String()), nil, nil
}

func (s *Server) renderer() *narrative.Renderer {
	return narrative.NewRenderer(narrative.Options{Labels: s.conv.Labels})
}

// format renders d as widget JSON, graph JSON or narrative text.
func (s *Server) format(d *graph.Diagram, output string) (string, error) {
	f := convert.FormatWidget
	if output != "" {
		var err error
		if f, err = convert.ParseFormat(output); err != nil {
			return "", err
		}
	}
	switch f {
	case convert.FormatGraph:
		data, err := graph.Encode(d)
		return string(data), err
	case convert.FormatNarrative:
		return s.renderer().Render(d), nil
	case convert.FormatWidget:
		doc, err := widget.Encode(d, widget.Options{Labels: s.conv.Labels})
		if err != nil {
			return "", err
		}
		data, err := widget.Marshal(doc)
		return string(data), err
	}
	return "", fmt.Errorf("%w: %s", convert.ErrUnsupportedFormat, output)
}

// decodeDiagram reads widget JSON through the validating boundary, or
// graph JSON.
func decodeDiagram(data []byte, labels graph.LabelSet) (*graph.Diagram, error) {
	format, err := convert.DetectInput("diagram.json", data)
	if err != nil {
		return nil, err
	}
	if format == convert.FormatGraph {
		return graph.Decode(data)
	}
	d, _, err := widget.DecodeWith(data, widget.Options{Labels: labels})
	return d, err
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
