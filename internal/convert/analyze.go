package convert

import (
	"errors"
	"io/fs"

	"github.com/spf13/afero"

	"drakonflow/internal/integrity"
)

// Analysis is a read-only health check of one widget JSON file.
type Analysis struct {
	Path              string           `json:"path"`
	Exists            bool             `json:"exists"`
	Readable          bool             `json:"readable"`
	ValidJSON         bool             `json:"valid_json"`
	ValidDrakon       bool             `json:"valid_drakon"`
	Report            integrity.Report `json:"report"`
	CorrectionsNeeded []string         `json:"corrections_needed,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// Analyze reports how far path gets through reading, parsing and
// validation, and which corrections the corrector would apply. It never
// writes.
func Analyze(fsys afero.Fs, path string) Analysis {
	a := Analysis{Path: path}
	if _, err := fsys.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.Error = err.Error()
		}
		return a
	}
	a.Exists = true

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		a.Error = err.Error()
		return a
	}
	a.Readable = true

	doc, err := integrity.ParseDocument(data)
	if err != nil {
		a.Error = err.Error()
		return a
	}
	a.ValidJSON = true

	a.Report = integrity.Validate(doc)
	a.ValidDrakon = a.Report.Valid()
	_, a.CorrectionsNeeded = integrity.CorrectInOrder(doc, integrity.ItemOrder(data))
	return a
}
