package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"drakonflow/internal/config"
	"drakonflow/internal/drn"
	"drakonflow/internal/fsutil"
	"drakonflow/internal/graph"
	"drakonflow/internal/ingest"
	"drakonflow/internal/integrity"
	"drakonflow/internal/logging"
	"drakonflow/internal/narrative"
	"drakonflow/internal/scanner"
	"drakonflow/internal/widget"
	"drakonflow/util"
)

// Converter reads and writes diagram files. JSON and text files go through
// Fs; .drn files are SQLite databases and always live on the OS filesystem.
type Converter struct {
	Fs        afero.Fs
	Logger    *zap.Logger
	Geometry  drn.Geometry
	Generator string
	Labels    graph.LabelSet
	Dialect   *ingest.Dialect
	Locator   ingest.FunctionLocator
	// Mode applies to widget JSON read by Load.
	Mode integrity.Mode
}

// New builds a Converter on the OS filesystem from cfg.
func New(cfg *config.Config, logger *zap.Logger) (*Converter, error) {
	dialect, err := cfg.IngestDialect()
	if err != nil {
		return nil, err
	}
	return &Converter{
		Fs:        afero.NewOsFs(),
		Logger:    logging.OrNop(logger),
		Geometry:  cfg.Layout,
		Generator: cfg.Generator,
		Labels:    cfg.EdgeLabels(),
		Dialect:   dialect,
		Locator:   &scanner.TreeSitterLocator{Fallback: &ingest.BraceLocator{Dialect: dialect}},
		Mode:      integrity.Mode{Strict: cfg.Import.Strict, AutoFix: cfg.Import.AutoFix},
	}, nil
}

func (c *Converter) fs() afero.Fs {
	if c.Fs == nil {
		return afero.NewOsFs()
	}
	return c.Fs
}

func (c *Converter) logger() *zap.Logger { return logging.OrNop(c.Logger) }

// Load reads a single diagram from path. Source files hold many diagrams
// and are read with FromSource instead.
func (c *Converter) Load(ctx context.Context, path string) (*graph.Diagram, error) {
	if format, _ := DetectInput(path, nil); format == FormatDRN {
		p, err := drn.Read(ctx, path)
		if err != nil {
			return nil, err
		}
		return p.Diagram, nil
	}

	data, err := afero.ReadFile(c.fs(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	format, err := DetectInput(path, data)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatWidget:
		return c.loadWidget(path, data)
	case FormatGraph:
		d, err := graph.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return d, nil
	case FormatPseudocode:
		d, _, err := ingest.ParsePseudocode(path, bytes.NewReader(data))
		return d, err
	case FormatSource:
		return nil, fmt.Errorf("%w: %s holds source code; extract its functions instead", ErrUnsupportedFormat, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// loadWidget runs the import pipeline under c.Mode and decodes the result.
func (c *Converter) loadWidget(path string, data []byte) (*graph.Diagram, error) {
	loose, err := integrity.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	outcome, err := integrity.ImportInOrder(loose, integrity.ItemOrder(data), c.Mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if outcome.Corrected {
		c.logger().Info("corrected diagram on load",
			zap.String("path", path),
			zap.Strings("corrections", outcome.Corrections),
		)
		if data, err = json.Marshal(outcome.Doc); err != nil {
			return nil, fmt.Errorf("failed to marshal corrected %s: %w", path, err)
		}
	}
	d, report, err := widget.DecodeWith(data, widget.Options{Labels: c.Labels})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, w := range report.Warnings {
		c.logger().Warn(w.Message, zap.String("path", path), zap.String("code", string(w.Code)))
	}
	return d, nil
}

// Export writes d to path in the format named by its extension.
func (c *Converter) Export(ctx context.Context, d *graph.Diagram, path string) error {
	format, err := DetectOutput(path)
	if err != nil {
		return err
	}
	return c.ExportAs(ctx, d, path, format)
}

// ExportAs writes d to path in format, whatever the extension.
func (c *Converter) ExportAs(ctx context.Context, d *graph.Diagram, path string, format Format) error {
	check := integrity.CheckDiagram(d, c.Labels)
	for _, issue := range append(check.Errors, check.Warnings...) {
		c.logger().Debug(issue.Message, zap.String("path", path), zap.String("code", string(issue.Code)))
	}

	switch format {
	case FormatDRN:
		g := c.Geometry
		return drn.Export(ctx, path, d, drn.Options{
			Generator: c.Generator,
			Geometry:  &g,
			Logger:    c.logger(),
		})
	case FormatWidget:
		doc, err := widget.Encode(d, widget.Options{Labels: c.Labels})
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
		return widget.WriteFile(c.fs(), path, doc)
	case FormatGraph:
		data, err := graph.Encode(d)
		if err != nil {
			return err
		}
		return fsutil.WriteFile(c.fs(), path, data, 0o644)
	case FormatNarrative:
		text := narrative.NewRenderer(narrative.Options{Labels: c.Labels}).Render(d)
		return fsutil.WriteFile(c.fs(), path, []byte(text), 0o644)
	}
	return fmt.Errorf("%w: cannot write %s as %s", ErrUnsupportedFormat, path, format)
}

// Convert loads in and writes it to out.
func (c *Converter) Convert(ctx context.Context, in, out string) error {
	d, err := c.Load(ctx, in)
	if err != nil {
		return err
	}
	if err := c.Export(ctx, d, out); err != nil {
		return err
	}
	c.logger().Info("converted diagram", zap.String("from", in), zap.String("to", out))
	return nil
}

// ConvertBoth writes <stem>.drn and <stem>.json into dir, which defaults to
// the input's directory. An output that would overwrite the input is
// skipped. Written paths are returned even when the second write fails.
func (c *Converter) ConvertBoth(ctx context.Context, in, dir string) ([]string, error) {
	d, err := c.Load(ctx, in)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = filepath.Dir(in)
	}

	var written []string
	var errs []error
	for _, f := range []Format{FormatDRN, FormatWidget} {
		out := filepath.Join(dir, util.Stem(in)+f.Extension())
		if filepath.Clean(out) == filepath.Clean(in) {
			c.logger().Info("skipping output that would overwrite its input", zap.String("path", out))
			continue
		}
		if err := c.ExportAs(ctx, d, out, f); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, out)
	}
	return written, errors.Join(errs...)
}

// FromSource writes one diagram per interesting function of the source file
// at path into dir, named after the function, in each requested format.
func (c *Converter) FromSource(ctx context.Context, path, dir string, formats ...Format) ([]string, error) {
	diagrams, err := c.ExtractSource(path)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		formats = []Format{FormatDRN, FormatWidget}
	}

	var written []string
	var errs []error
	for _, d := range diagrams {
		for _, f := range formats {
			out := filepath.Join(dir, d.Name+f.Extension())
			if err := c.ExportAs(ctx, d, out, f); err != nil {
				errs = append(errs, err)
				continue
			}
			written = append(written, out)
		}
	}
	c.logger().Info("generated diagrams from source",
		zap.String("path", path),
		zap.Int("functions", len(diagrams)),
		zap.Int("files", len(written)),
	)
	return written, errors.Join(errs...)
}

// ExtractSource returns the diagrams of every interesting function in the
// source file at path.
func (c *Converter) ExtractSource(path string) ([]*graph.Diagram, error) {
	src, err := afero.ReadFile(c.fs(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ingest.ExtractFile(path, src, c.Locator, c.Dialect)
}
