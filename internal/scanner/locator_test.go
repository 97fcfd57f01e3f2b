package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drakonflow/internal/ingest"
)

func TestTreeSitterLocatorGo(t *testing.T) {
	src := `package main

func (s *Server) Handle(ctx context.Context) error {
	if s.closed {
		return errClosed
	}
	return nil
}

func helper() {}
`
	funcs, err := (&TreeSitterLocator{}).Locate("server.go", []byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []ingest.Function{
		{Name: "Handle", Start: 3, End: 8},
		{Name: "helper", Start: 10, End: 10},
	}, funcs)
}

func TestTreeSitterLocatorPython(t *testing.T) {
	src := "def run(jobs):\n    for job in jobs:\n        job.start()\n"
	funcs, err := (&TreeSitterLocator{}).Locate("jobs.py", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []ingest.Function{{Name: "run", Start: 1, End: 3}}, funcs)
}

func TestTreeSitterLocatorJavaScript(t *testing.T) {
	src := "function greet(name) {\n  return name;\n}\nconst add = (a, b) => a + b;\n"
	funcs, err := (&TreeSitterLocator{}).Locate("util.js", []byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []ingest.Function{
		{Name: "greet", Start: 1, End: 3},
		{Name: "add", Start: 4, End: 4},
	}, funcs)
}

func TestTreeSitterLocatorFallback(t *testing.T) {
	src := []byte("function go() {\n  run();\n}\n")

	_, err := (&TreeSitterLocator{}).Locate("script.rb", src)
	assert.Error(t, err)

	funcs, err := (&TreeSitterLocator{Fallback: &ingest.BraceLocator{}}).Locate("script.rb", src)
	require.NoError(t, err)
	assert.Equal(t, []ingest.Function{{Name: "go", Start: 1, End: 3}}, funcs)
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports("a/b.TS"))
	assert.True(t, Supports("main.go"))
	assert.False(t, Supports("README.md"))
	for _, name := range Extensions {
		_, ok := Language(name)
		assert.True(t, ok, name)
	}
}
