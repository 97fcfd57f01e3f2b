package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"drakonflow/internal/fsutil"
	"drakonflow/internal/integrity"
	"drakonflow/internal/logging"
	"drakonflow/util"
)

// FixedSuffix marks the corrected copy written next to an imported file.
const FixedSuffix = "_fixed"

type Status string

const (
	StatusValid     Status = "valid"
	StatusCorrected Status = "corrected"
	StatusFailed    Status = "failed"
)

// Stats counts import outcomes. Total = Valid + Corrected + Failed.
type Stats struct {
	Total     int `json:"total"`
	Valid     int `json:"valid"`
	Corrected int `json:"corrected"`
	Failed    int `json:"failed"`
}

// ImportResult describes one imported file. Doc is nil when nothing usable
// came out of the import.
type ImportResult struct {
	Path      string
	Status    Status
	Doc       map[string]any
	FixedPath string
	Outcome   integrity.Outcome
	Err       error
}

// Importer validates widget JSON files, corrects them when allowed and
// writes the corrected copy plus optional log files beside the original.
// It is safe for concurrent use.
type Importer struct {
	Fs       afero.Fs
	Mode     integrity.Mode
	SaveLogs bool
	Logger   *zap.Logger
	Now      func() time.Time

	mu    sync.Mutex
	stats Stats
}

func (im *Importer) Stats() Stats {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.stats
}

func (im *Importer) count(s Status) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.stats.Total++
	switch s {
	case StatusValid:
		im.stats.Valid++
	case StatusCorrected:
		im.stats.Corrected++
	default:
		im.stats.Failed++
	}
}

func (im *Importer) now() time.Time {
	if im.Now != nil {
		return im.Now()
	}
	return time.Now()
}

// IsFixed reports whether path is a corrected copy written by an Importer.
func IsFixed(path string) bool {
	return strings.HasSuffix(util.Stem(path), FixedSuffix)
}

// ImportFile runs one file through validate, correct and re-validate.
// Failures, I/O included, are recorded in the result's Err.
func (im *Importer) ImportFile(ctx context.Context, path string) ImportResult {
	res := im.importFile(ctx, path)
	im.count(res.Status)

	log := logging.OrNop(im.Logger).With(zap.String("path", path), zap.String("status", string(res.Status)))
	switch {
	case res.Err != nil:
		log.Warn("import failed", zap.Error(res.Err))
	case res.Status == StatusCorrected:
		log.Info("diagram corrected", zap.Int("corrections", len(res.Outcome.Corrections)), zap.String("fixed", res.FixedPath))
	default:
		log.Info("diagram valid")
	}
	return res
}

func (im *Importer) importFile(ctx context.Context, path string) ImportResult {
	res := ImportResult{Path: path, Status: StatusFailed}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	fs := im.fs()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return res
	}
	doc, err := integrity.ParseDocument(data)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}

	outcome, err := integrity.ImportInOrder(doc, integrity.ItemOrder(data), im.Mode)
	res.Outcome = outcome
	res.Doc = outcome.Doc

	switch {
	case err == nil && !outcome.Corrected:
		res.Status = StatusValid
		res.Err = im.writeLogs(path, outcome, false)
		return res

	case err == nil:
		res.Status = StatusCorrected
		res.FixedPath = util.Sibling(path, FixedSuffix, ".json")
		if werr := im.writeFixed(res.FixedPath, outcome.Doc); werr != nil {
			res.Status = StatusFailed
			res.Err = werr
			return res
		}
		res.Err = im.writeLogs(path, outcome, true)
		return res
	}

	res.Err = fmt.Errorf("%s: %w", path, err)
	if lerr := im.writeLogs(path, outcome, outcome.Corrected); lerr != nil {
		res.Err = errors.Join(res.Err, lerr)
	}
	return res
}

func (im *Importer) fs() afero.Fs {
	if im.Fs == nil {
		return afero.NewOsFs()
	}
	return im.Fs
}

func (im *Importer) writeFixed(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	return fsutil.WriteFile(im.fs(), path, append(data, '\n'), 0o644)
}

// writeLogs writes <stem>_validation.log and, when a correction ran,
// <stem>_correction.log.
func (im *Importer) writeLogs(path string, outcome integrity.Outcome, corrected bool) error {
	if !im.SaveLogs {
		return nil
	}
	stamp := im.now().Format("2006-01-02 15:04:05")
	name := filepath.Base(path)
	valid := outcome.Report.Valid()

	var b strings.Builder
	b.WriteString("=== DRAKON VALIDATION LOG ===\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", stamp)
	fmt.Fprintf(&b, "File: %s\n", name)
	fmt.Fprintf(&b, "Status: %s\n", passFail(valid, "PASS", "FAIL"))
	if corrected && valid {
		b.WriteString("Note: the diagram was corrected automatically\n")
	}
	b.WriteString("\n")
	b.WriteString(outcome.Report.String())
	if err := fsutil.WriteFile(im.fs(), util.Sibling(path, "_validation", ".log"), []byte(b.String()), 0o644); err != nil {
		return err
	}

	if !corrected {
		return nil
	}
	b.Reset()
	b.WriteString("=== DRAKON CORRECTION LOG ===\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", stamp)
	fmt.Fprintf(&b, "File: %s\n", name)
	fmt.Fprintf(&b, "Status: %s\n\n", passFail(valid, "SUCCESS", "FAILED"))
	b.WriteString(integrity.FormatCorrections(outcome.Corrections))
	return fsutil.WriteFile(im.fs(), util.Sibling(path, "_correction", ".log"), []byte(b.String()), 0o644)
}

func passFail(ok bool, pass, fail string) string {
	if ok {
		return pass
	}
	return fail
}
