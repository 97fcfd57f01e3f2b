package ingest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"drakonflow/internal/graph"
)

// Function is a located function body. Lines are 1-based and inclusive;
// Start is the header line.
type Function struct {
	Name  string
	Start int
	End   int
}

// FunctionLocator finds function bodies in a source file.
type FunctionLocator interface {
	Locate(path string, src []byte) ([]Function, error)
}

// ExtractFlow builds the flat chain branch, "START: <name>", one node per
// recognised body line, end.
func ExtractFlow(name string, body []string, dialect *Dialect) *graph.Diagram {
	if dialect == nil {
		dialect = DefaultDialect()
	}
	nodes := []graph.Node{
		{Kind: graph.KindBranch, Label: name, Seq: graph.IntPtr(0)},
		{Kind: graph.KindAction, Label: "START: " + name},
	}
	for _, line := range body {
		if n, ok := dialect.Classify(line); ok {
			nodes = append(nodes, n)
		}
	}
	nodes = append(nodes, graph.Node{Kind: graph.KindEnd})

	for i := range nodes {
		nodes[i].ID = strconv.Itoa(i + 1)
	}
	return graph.Chain(name, nodes...)
}

// Interesting reports whether a function diagram has any node beyond its
// branch, start and end.
func Interesting(d *graph.Diagram) bool {
	return d.Len() > 3
}

// ExtractFile returns one diagram per interesting function in src.
func ExtractFile(path string, src []byte, locator FunctionLocator, dialect *Dialect) ([]*graph.Diagram, error) {
	if dialect == nil {
		dialect = DefaultDialect()
	}
	if locator == nil {
		locator = &BraceLocator{Dialect: dialect}
	}
	funcs, err := locator.Locate(path, src)
	if err != nil {
		return nil, fmt.Errorf("failed to locate functions in %s: %w", path, err)
	}

	lines := strings.Split(string(src), "\n")
	var out []*graph.Diagram
	for _, fn := range funcs {
		d := ExtractFlow(fn.Name, bodyLines(lines, fn), dialect)
		if !Interesting(d) {
			continue
		}
		d.Description = fmt.Sprintf("Generated from %s (lines %d-%d)", filepath.Base(path), fn.Start, fn.End)
		out = append(out, d)
	}
	return out, nil
}

// bodyLines returns the lines after the header up to and including the last
// line. A closing "}" line normalises to nothing. Single-line functions have
// no body.
func bodyLines(lines []string, fn Function) []string {
	from, to := fn.Start, fn.End
	if to > len(lines) {
		to = len(lines)
	}
	if from < 0 || from >= to {
		return nil
	}
	return lines[from:to]
}
