package widget

import (
	"fmt"

	"github.com/spf13/afero"

	"drakonflow/internal/fsutil"
	"drakonflow/internal/graph"
	"drakonflow/internal/integrity"
)

// WriteFile validates the marshalled document and writes it atomically.
// Nothing is written when validation fails.
func WriteFile(fs afero.Fs, path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	loose, err := integrity.ParseDocument(data)
	if err != nil {
		return err
	}
	if report := integrity.Validate(loose); !report.Valid() {
		return fmt.Errorf("refusing to write %s: %w", path, &integrity.ReportError{Kind: integrity.ErrStructural, Report: report})
	}
	return fsutil.WriteFile(fs, path, data, 0o644)
}

// ReadFile decodes the widget document at path.
func ReadFile(fs afero.Fs, path string) (*graph.Diagram, integrity.Report, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, integrity.Report{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, report, err := Decode(data)
	if err != nil {
		return nil, report, fmt.Errorf("%s: %w", path, err)
	}
	return d, report, nil
}
