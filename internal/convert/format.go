// Package convert moves diagrams between files of every supported format
// and drives the validating import pipeline.
package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"drakonflow/internal/graph"
	"drakonflow/internal/scanner"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

type Format string

const (
	FormatWidget     Format = "widget"
	FormatGraph      Format = "graph"
	FormatDRN        Format = "drn"
	FormatPseudocode Format = "pseudocode"
	FormatNarrative  Format = "narrative"
	FormatSource     Format = "source"
)

// DetectInput picks the reader for path. Extensions decide where they are
// unambiguous; plain .json is sniffed for a widget "items" or a graph
// "nodes" object.
func DetectInput(path string, data []byte) (Format, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".drn"):
		return FormatDRN, nil
	case strings.HasSuffix(base, ".drakon"):
		return FormatPseudocode, nil
	case strings.HasSuffix(base, ".graph.json"):
		return FormatGraph, nil
	case strings.HasSuffix(base, ".json"):
		return sniffJSON(path, data)
	case scanner.Supports(path):
		return FormatSource, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

func sniffJSON(path string, data []byte) (Format, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%w: %s is not valid JSON", graph.ErrMalformed, path)
	}
	if gjson.GetBytes(data, "items").IsObject() || gjson.GetBytes(data, "items").IsArray() {
		return FormatWidget, nil
	}
	if gjson.GetBytes(data, "nodes").IsObject() {
		return FormatGraph, nil
	}
	return "", fmt.Errorf("%w: %s has neither \"items\" nor \"nodes\"", ErrUnsupportedFormat, path)
}

// DetectOutput picks the writer for path from its extension.
func DetectOutput(path string) (Format, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".drn"):
		return FormatDRN, nil
	case strings.HasSuffix(base, ".graph.json"):
		return FormatGraph, nil
	case strings.HasSuffix(base, ".json"):
		return FormatWidget, nil
	case strings.HasSuffix(base, ".md"), strings.HasSuffix(base, ".txt"):
		return FormatNarrative, nil
	}
	return "", fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, path)
}

// Extension is the file extension written for f.
func (f Format) Extension() string {
	switch f {
	case FormatWidget:
		return ".json"
	case FormatGraph:
		return ".graph.json"
	case FormatDRN:
		return ".drn"
	case FormatNarrative:
		return ".md"
	case FormatPseudocode:
		return ".drakon"
	}
	return ""
}

// ParseFormat resolves a user-supplied output format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "widget":
		return FormatWidget, nil
	case "graph":
		return FormatGraph, nil
	case "drn":
		return FormatDRN, nil
	case "md", "narrative", "text", "txt":
		return FormatNarrative, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}
