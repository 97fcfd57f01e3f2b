package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drakonflow/internal/graph"
	"drakonflow/internal/integrity"
	"drakonflow/internal/widget"
)

const demoPseudocode = `TITLE: Demo
AUTHOR: Ada
DATE: 2025-01-01
[a1] ACTION "Load"
[q1] QUESTION "Valid?"
[a2] ACTION "Save"
`

const listItems = `{
  "name": "list",
  "access": "write",
  "items": [
    {"type": "branch", "branchId": 0, "one": "2"},
    {"type": "action", "content": "x", "one": "3"},
    {"type": "end"}
  ]
}`

func TestDetectInput(t *testing.T) {
	tests := []struct {
		path    string
		data    string
		want    Format
		wantErr error
	}{
		{path: "a.drn", want: FormatDRN},
		{path: "a.drakon", want: FormatPseudocode},
		{path: "a.graph.json", data: `{}`, want: FormatGraph},
		{path: "a.json", data: `{"items": {}}`, want: FormatWidget},
		{path: "a.json", data: `{"items": []}`, want: FormatWidget},
		{path: "a.json", data: `{"nodes": {}, "edges": []}`, want: FormatGraph},
		{path: "a.json", data: `{"name": "x"}`, wantErr: ErrUnsupportedFormat},
		{path: "a.json", data: `{"items":`, wantErr: graph.ErrMalformed},
		{path: "main.go", want: FormatSource},
		{path: "app.tsx", want: FormatSource},
		{path: "image.bmp", wantErr: ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.data, func(t *testing.T) {
			got, err := DetectInput(tt.path, []byte(tt.data))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectOutput(t *testing.T) {
	for path, want := range map[string]Format{
		"x.drn":        FormatDRN,
		"x.json":       FormatWidget,
		"x.graph.json": FormatGraph,
		"x.md":         FormatNarrative,
		"x.TXT":        FormatNarrative,
	} {
		got, err := DetectOutput(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := DetectOutput("x.drakon")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatWidget, f)
	_, err = ParseFormat("svg")
	assert.Error(t, err)
}

func memConverter(t *testing.T) (*Converter, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return &Converter{Fs: fs, Mode: integrity.Mode{AutoFix: true}}, fs
}

func TestConvertPseudocode(t *testing.T) {
	c, fs := memConverter(t)
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(fs, "in/demo.drakon", []byte(demoPseudocode), 0o644))

	require.NoError(t, c.Convert(ctx, "in/demo.drakon", "out/demo.json"))
	d, report, err := widget.ReadFile(fs, "out/demo.json")
	require.NoError(t, err)
	assert.True(t, report.Valid())
	assert.Equal(t, "Demo", d.Name)
	assert.Equal(t, 6, d.Len())

	require.NoError(t, c.Convert(ctx, "in/demo.drakon", "out/demo.md"))
	text, err := afero.ReadFile(fs, "out/demo.md")
	require.NoError(t, err)
	out := string(text)
	assert.Contains(t, out, "DRAKON PSEUDOCODE: Demo")
	ifAt := strings.Index(out, "IF (Valid?):")
	saveAt := strings.Index(out, "DO: Save")
	exitAt := strings.Index(out, "# EXIT")
	endIfAt := strings.Index(out, "END IF")
	require.NotEqual(t, -1, ifAt)
	require.NotEqual(t, -1, saveAt, "the question's continuation must be rendered")
	require.NotEqual(t, -1, exitAt)
	assert.Less(t, ifAt, saveAt)
	assert.Less(t, saveAt, exitAt)
	assert.Less(t, exitAt, endIfAt)
	assert.Contains(t, out, "# [YES - main path]")
	assert.NotContains(t, out, "# [YES - empty]")

	require.NoError(t, c.Convert(ctx, "in/demo.drakon", "out/demo.graph.json"))
	loaded, err := c.Load(ctx, "out/demo.graph.json")
	require.NoError(t, err)
	assert.Equal(t, 6, loaded.Len())
	assert.Equal(t, "Author: Ada, Date: 2025-01-01", loaded.Description)

	err = c.Convert(ctx, "in/demo.drakon", "out/demo.svg")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadWidgetHonoursMode(t *testing.T) {
	c, fs := memConverter(t)
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(fs, "list.json", []byte(listItems), 0o644))

	d, err := c.Load(ctx, "list.json")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	c.Mode = integrity.Mode{}
	_, err = c.Load(ctx, "list.json")
	assert.True(t, errors.Is(err, integrity.ErrStructural))

	_, err = c.Load(ctx, "missing.json")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestConvertBoth(t *testing.T) {
	dir := t.TempDir()
	c := &Converter{Fs: afero.NewOsFs()}
	ctx := context.Background()

	in := filepath.Join(dir, "demo.drakon")
	require.NoError(t, os.WriteFile(in, []byte(demoPseudocode), 0o644))

	written, err := c.ConvertBoth(ctx, in, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "demo.drn"), filepath.Join(dir, "demo.json")}, written)

	d, err := c.Load(ctx, filepath.Join(dir, "demo.drn"))
	require.NoError(t, err)
	assert.Equal(t, "Demo", d.Name)
	assert.Equal(t, 6, d.Len())

	// A widget input is not overwritten by its own JSON output.
	written, err = c.ConvertBoth(ctx, filepath.Join(dir, "demo.json"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "demo.drn")}, written)
}

func TestFromSource(t *testing.T) {
	c, fs := memConverter(t)
	src := strings.Join([]string{
		"function handler(req) {",
		"  if (req.ok) {",
		"    return send(req);",
		"  }",
		"  log(req);",
		"}",
		"",
		"function noop() {",
		"}",
	}, "\n")
	require.NoError(t, afero.WriteFile(fs, "src/app.js", []byte(src), 0o644))

	written, err := c.FromSource(context.Background(), "src/app.js", "out", FormatWidget, FormatNarrative)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("out", "handler.json"), filepath.Join("out", "handler.md")}, written)

	d, _, err := widget.ReadFile(fs, filepath.Join("out", "handler.json"))
	require.NoError(t, err)
	var labels []string
	for _, n := range d.Nodes() {
		labels = append(labels, n.Label)
	}
	assert.Equal(t, []string{"handler", "START: handler", "req.ok", "RETURN: send(req)", "CALL: log()", ""}, labels)
}

func TestConfiguredLabelsReachEveryFormat(t *testing.T) {
	c, fs := memConverter(t)
	c.Labels = graph.LabelSet{Yes: []string{"ok"}, No: []string{"nein"}}
	ctx := context.Background()

	d := graph.New("labels")
	d.Upsert(graph.Node{ID: "b", Kind: graph.KindBranch, Label: "Main", Seq: graph.IntPtr(0)})
	d.Upsert(graph.Node{ID: "q", Kind: graph.KindQuestion, Label: "ready?"})
	d.Upsert(graph.Node{ID: "n", Kind: graph.KindAction, Label: "wait"})
	d.Upsert(graph.Node{ID: "y", Kind: graph.KindAction, Label: "ship"})
	d.Upsert(graph.Node{ID: "e", Kind: graph.KindEnd})
	d.Link("b", "q", "")
	d.Link("q", "n", "nein")
	d.Link("q", "y", "ok")
	d.Link("n", "e", "")
	d.Link("y", "e", "")

	require.NoError(t, c.Export(ctx, d, "labels.json"))
	doc, err := afero.ReadFile(fs, "labels.json")
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"flag1": 1`)

	loaded, err := c.Load(ctx, "labels.json")
	require.NoError(t, err)
	q, ok := loaded.Node("2")
	require.True(t, ok)
	require.Equal(t, graph.KindQuestion, q.Kind)
	yes, no := loaded.QuestionExits(q.ID, c.Labels)
	require.Len(t, yes, 1)
	require.Len(t, no, 1)
	assert.Equal(t, "ok", yes[0].Label)
	assert.Equal(t, "nein", no[0].Label)

	require.NoError(t, c.Export(ctx, loaded, "labels.md"))
	text, err := afero.ReadFile(fs, "labels.md")
	require.NoError(t, err)
	out := string(text)
	assert.Less(t, strings.Index(out, "DO: ship"), strings.Index(out, "ELSE:"))
	assert.Less(t, strings.Index(out, "ELSE:"), strings.Index(out, "DO: wait"))
}
