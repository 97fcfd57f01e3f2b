// Package batch applies a per-file task to every matching file under a
// directory with bounded parallelism.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"drakonflow/internal/logging"
	"drakonflow/util"
)

const fixedSuffix = "_fixed"

type Options struct {
	Pattern          string
	Recursive        bool
	RespectGitignore bool
	Workers          int
}

type Status string

const (
	StatusOK        Status = "ok"
	StatusCorrected Status = "corrected"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result is the outcome of one task.
type Result struct {
	Path    string
	Status  Status
	Outputs []string
	Err     error
}

// Task handles one file. Failures belong in Result.Err so that the batch
// keeps going.
type Task func(ctx context.Context, path string) Result

// matcher is a compiled .gitignore together with the directory its
// patterns are relative to.
type matcher struct {
	base string
	gi   *ignore.GitIgnore
}

// Collect lists the files under root whose base name matches opts.Pattern,
// sorted. Corrected copies (*_fixed.*), hidden directories and, when
// RespectGitignore is set, paths ignored by root's or the enclosing
// repository's .gitignore are left out.
func Collect(fsys afero.Fs, root string, opts Options) ([]string, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var matchers []matcher
	if opts.RespectGitignore {
		matchers = loadIgnores(fsys, root)
	}

	var files []string
	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path == root {
				return nil
			}
			if !opts.Recursive || strings.HasPrefix(info.Name(), ".") || ignored(matchers, path, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, info.Name()); !ok {
			return nil
		}
		if strings.HasSuffix(util.Stem(path), fixedSuffix) || ignored(matchers, path, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func loadIgnores(fsys afero.Fs, root string) []matcher {
	var out []matcher
	add := func(dir string) {
		data, err := afero.ReadFile(fsys, filepath.Join(dir, ".gitignore"))
		if err != nil {
			return
		}
		out = append(out, matcher{base: dir, gi: ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)})
	}
	add(root)

	if gitRoot, err := util.FindGitRoot(root); err == nil {
		if abs, err := filepath.Abs(root); err == nil && abs != gitRoot {
			if _, err := os.Stat(filepath.Join(gitRoot, ".git")); err == nil {
				add(gitRoot)
			}
		}
	}
	return out
}

func ignored(matchers []matcher, path string, dir bool) bool {
	for _, m := range matchers {
		target := path
		if filepath.IsAbs(m.base) && !filepath.IsAbs(target) {
			if abs, err := filepath.Abs(target); err == nil {
				target = abs
			}
		}
		rel, err := filepath.Rel(m.base, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		if m.gi.MatchesPath(rel) || (dir && m.gi.MatchesPath(rel+"/")) {
			return true
		}
	}
	return false
}

// Run applies task to every file with at most workers in flight. Results
// keep the order of files. A cancelled context stops scheduling; files
// never started are reported as skipped.
func Run(ctx context.Context, files []string, workers int, task Task, logger *zap.Logger) ([]Result, error) {
	logger = logging.OrNop(logger)
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(files))
	for i, f := range files {
		results[i] = Result{Path: f, Status: StatusSkipped}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := task(gctx, f)
			if res.Path == "" {
				res.Path = f
			}
			results[i] = res
			logger.Debug("batch item done", zap.String("path", f), zap.String("status", string(res.Status)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
