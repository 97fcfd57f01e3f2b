package batch

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, body := range map[string]string{
		"proj/a.json":           "{}",
		"proj/a_fixed.json":     "{}",
		"proj/b.json":           "{}",
		"proj/notes.txt":        "",
		"proj/sub/c.json":       "{}",
		"proj/build/d.json":     "{}",
		"proj/.cache/e.json":    "{}",
		"proj/sub/scratch.json": "{}",
		"proj/.gitignore":       "build/\nscratch.json\n",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
	}
	return fs
}

func TestCollect(t *testing.T) {
	fs := tree(t)
	join := func(parts ...string) string { return filepath.Join(parts...) }

	files, err := Collect(fs, "proj", Options{Pattern: "*.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{join("proj", "a.json"), join("proj", "b.json")}, files)

	files, err = Collect(fs, "proj", Options{Pattern: "*.json", Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		join("proj", "a.json"),
		join("proj", "b.json"),
		join("proj", "build", "d.json"),
		join("proj", "sub", "c.json"),
		join("proj", "sub", "scratch.json"),
	}, files)

	files, err = Collect(fs, "proj", Options{Pattern: "*.json", Recursive: true, RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		join("proj", "a.json"),
		join("proj", "b.json"),
		join("proj", "sub", "c.json"),
	}, files)

	_, err = Collect(fs, "proj", Options{Pattern: "[", Recursive: true})
	assert.Error(t, err)

	_, err = Collect(fs, "missing", Options{})
	assert.Error(t, err)
}

func TestRunKeepsOrderAndBoundsWorkers(t *testing.T) {
	files := []string{"1", "2", "3", "4", "5", "6"}
	var inFlight, peak int32

	results, err := Run(context.Background(), files, 2, func(ctx context.Context, path string) Result {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		defer atomic.AddInt32(&inFlight, -1)
		if path == "3" {
			return Result{Status: StatusFailed, Err: errors.New("boom")}
		}
		return Result{Status: StatusOK, Outputs: []string{path + ".out"}}
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 6)
	assert.LessOrEqual(t, peak, int32(2))

	for i, r := range results {
		assert.Equal(t, files[i], r.Path)
	}
	assert.Equal(t, StatusFailed, results[2].Status)
	assert.Equal(t, Summary{Total: 6, OK: 5, Failed: 1}, Summarize(results))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Run(ctx, []string{"a", "b"}, 1, func(ctx context.Context, path string) Result {
		return Result{Status: StatusOK}
	}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, Summary{Total: 2, Skipped: 2}, Summarize(results))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	s := WriteTable(&buf, []Result{
		{Path: "a.json", Status: StatusOK, Outputs: []string{"a.drn"}},
		{Path: "b.json", Status: StatusFailed, Err: errors.New("bad access")},
	})
	assert.Equal(t, Summary{Total: 2, OK: 1, Failed: 1}, s)
	out := buf.String()
	assert.Contains(t, out, "a.json")
	assert.Contains(t, out, "a.drn")
	assert.Contains(t, out, "bad access")
}
