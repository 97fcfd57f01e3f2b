// Package scanner locates function declarations with tree-sitter grammars.
package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"drakonflow/internal/ingest"
)

// Language returns the grammar for a Queries/Extensions key.
func Language(name string) (*sitter.Language, bool) {
	switch name {
	case "go":
		return sitter.NewLanguage(tree_sitter_go.Language()), true
	case "python":
		return sitter.NewLanguage(tree_sitter_python.Language()), true
	case "javascript":
		return sitter.NewLanguage(tree_sitter_javascript.Language()), true
	case "typescript":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), true
	case "tsx":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()), true
	}
	return nil, false
}

// Supports reports whether a grammar exists for path's extension.
func Supports(path string) bool {
	_, ok := Extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// TreeSitterLocator finds functions with the grammar matching the file
// extension. Files without a grammar go to Fallback.
type TreeSitterLocator struct {
	Fallback ingest.FunctionLocator
}

func (l *TreeSitterLocator) Locate(path string, src []byte) ([]ingest.Function, error) {
	langName, ok := Extensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		if l.Fallback == nil {
			return nil, fmt.Errorf("no grammar for %s", path)
		}
		return l.Fallback.Locate(path, src)
	}
	lang, _ := Language(langName)

	queryName := langName
	if queryName == "tsx" {
		queryName = "typescript"
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set %s grammar: %w", langName, err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}
	defer tree.Close()

	query, qerr := sitter.NewQuery(lang, Queries[queryName])
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query: %v", queryName, qerr)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	var funcs []ingest.Function
	matches := cursor.Matches(query, tree.RootNode(), src)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var fn ingest.Function
		for _, c := range match.Captures {
			switch names[c.Index] {
			case "name":
				fn.Name = c.Node.Utf8Text(src)
			case "def":
				fn.Start = int(c.Node.StartPosition().Row) + 1
				fn.End = int(c.Node.EndPosition().Row) + 1
			}
		}
		if fn.Name != "" && fn.Start > 0 {
			funcs = append(funcs, fn)
		}
	}
	return funcs, nil
}
