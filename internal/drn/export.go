package drn

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"drakonflow/internal/fsutil"
	"drakonflow/internal/graph"
)

const (
	DefaultGenerator = "drakonflow"
	diagramID        = 1
	fileVersion      = "5"
)

const schema = `
CREATE TABLE IF NOT EXISTS info (
  key TEXT UNIQUE,
  value TEXT
);
CREATE TABLE IF NOT EXISTS state (
  row INTEGER UNIQUE DEFAULT 1,
  current_dia INTEGER REFERENCES diagrams(diagram_id),
  description TEXT
);
CREATE TABLE IF NOT EXISTS diagrams (
  diagram_id INTEGER UNIQUE PRIMARY KEY,
  name TEXT UNIQUE,
  origin TEXT,
  description TEXT,
  zoom DOUBLE DEFAULT 1.0
);
CREATE TABLE IF NOT EXISTS diagram_info (
  diagram_id INTEGER REFERENCES diagrams(diagram_id),
  name TEXT,
  value TEXT,
  PRIMARY KEY (diagram_id, name)
);
CREATE TABLE IF NOT EXISTS items (
  item_id INTEGER UNIQUE PRIMARY KEY,
  diagram_id INTEGER REFERENCES diagrams(diagram_id),
  type TEXT NOT NULL,
  text TEXT,
  text2 TEXT,
  selected INTEGER DEFAULT 0,
  x INTEGER NOT NULL,
  y INTEGER NOT NULL,
  w INTEGER NOT NULL,
  h INTEGER NOT NULL,
  a INTEGER,
  b INTEGER,
  color TEXT,
  aux_value TEXT,
  format TEXT
);
CREATE TABLE IF NOT EXISTS tree_nodes (
  node_id INTEGER UNIQUE PRIMARY KEY,
  parent INTEGER REFERENCES tree_nodes(node_id),
  type TEXT,
  name TEXT,
  diagram_id INTEGER REFERENCES diagrams(diagram_id)
);
`

// Options configure Export. Zero values select the defaults.
type Options struct {
	Generator string
	Geometry  *Geometry
	Layout    Layout
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Generator == "" {
		o.Generator = DefaultGenerator
	}
	if o.Geometry == nil {
		g := DefaultGeometry()
		o.Geometry = &g
	}
	if o.Layout == nil {
		o.Layout = LinearLayout{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Export writes d as a single-diagram project at path. The database is
// built in a temporary file beside path and renamed into place, so an
// existing file is replaced only on success.
func Export(ctx context.Context, path string, d *graph.Diagram, opts Options) error {
	opts = opts.withDefaults()
	if d.Style != "" && !json.Valid([]byte(d.Style)) {
		return fmt.Errorf("%w: style of %q is not valid JSON", graph.ErrMalformed, d.Name)
	}

	icons, linear := opts.Layout.Place(d, *opts.Geometry)
	if !linear {
		opts.Logger.Warn("diagram branches; DRAKON Editor will not reconstruct its connections from a single column",
			zap.String("diagram", d.Name),
			zap.String("path", path),
		)
	}

	dir := filepath.Dir(path)
	tmp, err := fsutil.TempPath(afero.NewOsFs(), dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if err := write(ctx, tmp, d, icons, opts.Generator); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to export %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	opts.Logger.Info("exported diagram",
		zap.String("diagram", d.Name),
		zap.String("path", path),
		zap.Int("icons", len(icons)),
	)
	return nil
}

func write(ctx context.Context, path string, d *graph.Diagram, icons []Icon, generator string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exec := func(query string, args ...any) {
		if err != nil {
			return
		}
		_, err = tx.ExecContext(ctx, query, args...)
	}

	exec(`INSERT OR REPLACE INTO info VALUES ('type', 'drakon')`)
	exec(`INSERT OR REPLACE INTO info VALUES ('version', ?)`, fileVersion)
	exec(`INSERT OR REPLACE INTO info VALUES ('start_version', '1')`)
	exec(`INSERT OR REPLACE INTO info VALUES ('generator', ?)`, generator)
	exec(`INSERT INTO diagrams (diagram_id, name, origin, description, zoom) VALUES (?, ?, '0 0', ?, 1.0)`,
		diagramID, d.Name, d.Description)
	exec(`INSERT OR REPLACE INTO state (row, current_dia) VALUES (1, ?)`, diagramID)
	if len(d.Params) > 0 {
		exec(`INSERT INTO diagram_info (diagram_id, name, value) VALUES (?, 'params', ?)`,
			diagramID, strings.Join(d.Params, "\n"))
	}
	if d.Style != "" {
		exec(`INSERT INTO diagram_info (diagram_id, name, value) VALUES (?, 'style', ?)`, diagramID, d.Style)
	}
	exec(`INSERT INTO tree_nodes (node_id, parent, type, name, diagram_id) VALUES (1, NULL, 'item', ?, ?)`,
		d.Name, diagramID)

	for _, icon := range icons {
		exec(`INSERT INTO items (
  item_id, diagram_id, type, text, text2, selected,
  x, y, w, h, a, b, color, aux_value, format
) VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, 0, 0, NULL, NULL, ?)`,
			icon.ItemID, diagramID, icon.Type, icon.Text, icon.Text2,
			icon.X, icon.Y, icon.W, icon.H, `{"style": "default"}`)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}
