package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindGitRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestContentKey(t *testing.T) {
	assert.Equal(t, ContentKey("a", "b"), ContentKey("a", "b"))
	assert.NotEqual(t, ContentKey("ab", "c"), ContentKey("a", "bc"))
	assert.Len(t, ContentKey("x"), 64)
}

func TestStemAndSibling(t *testing.T) {
	assert.Equal(t, "flow", Stem("/tmp/flow.json"))
	assert.Equal(t, "flow", Stem("flow.graph.json"))
	assert.Equal(t, filepath.Join("/tmp", "flow_fixed.json"), Sibling("/tmp/flow.json", "_fixed", ".json"))
	assert.True(t, strings.HasPrefix(PathToURI("x.drn"), "file:///"))
}
