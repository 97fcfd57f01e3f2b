package drn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"drakonflow/internal/graph"
)

// connector items draw lines between icons and carry no node.
var connectors = map[string]bool{
	"vertical":   true,
	"horizontal": true,
	"arrow":      true,
	"parallel":   true,
}

// Project is a diagram loaded from a .drn file together with its stored
// geometry and file metadata.
type Project struct {
	Diagram *graph.Diagram
	Icons   []Icon
	Info    map[string]string
}

// Read loads the current diagram of the project at path. Placement carries
// no edges, so icons are ordered by (x, y) and chained top to bottom within
// each column.
func Read(ctx context.Context, path string) (*Project, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer db.Close()

	p := &Project{Info: make(map[string]string)}
	if err := readInfo(ctx, db, p.Info); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	id, name, desc, err := currentDiagram(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d := graph.New(name)
	d.Description = desc

	props, err := diagramInfo(ctx, db, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Params = graph.SplitParams(props["params"])
	d.Style = props["style"]

	if p.Icons, err = readIcons(ctx, db, id); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var prev *Icon
	for i := range p.Icons {
		icon := &p.Icons[i]
		kind, err := graph.ParseKind(icon.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: item %d: %w", path, icon.ItemID, err)
		}
		d.Upsert(graph.Node{ID: icon.NodeID, Kind: kind, Label: icon.Text, Secondary: icon.Text2})
		if prev != nil && prev.X == icon.X {
			d.Link(prev.NodeID, icon.NodeID, "")
		}
		prev = icon
	}
	p.Diagram = d
	return p, nil
}

func readInfo(ctx context.Context, db *sql.DB, into map[string]string) error {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM info`)
	if err != nil {
		return fmt.Errorf("%w: no info table: %v", graph.ErrMalformed, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		into[key] = value.String
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if into["type"] != "drakon" {
		return fmt.Errorf("%w: not a DRAKON project", graph.ErrMalformed)
	}
	return nil
}

// currentDiagram returns the diagram the state row points at, or the lowest
// diagram id when none is selected.
func currentDiagram(ctx context.Context, db *sql.DB) (int64, string, string, error) {
	var id int64
	var name, desc sql.NullString
	row := db.QueryRowContext(ctx, `
SELECT d.diagram_id, d.name, d.description
FROM diagrams d
LEFT JOIN state s ON s.row = 1
ORDER BY (d.diagram_id = s.current_dia) DESC, d.diagram_id
LIMIT 1`)
	if err := row.Scan(&id, &name, &desc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", "", fmt.Errorf("%w: project has no diagrams", graph.ErrMalformed)
		}
		return 0, "", "", err
	}
	return id, name.String, desc.String, nil
}

func diagramInfo(ctx context.Context, db *sql.DB, id int64) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, value FROM diagram_info WHERE diagram_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value.String
	}
	return out, rows.Err()
}

func readIcons(ctx context.Context, db *sql.DB, id int64) ([]Icon, error) {
	rows, err := db.QueryContext(ctx, `
SELECT item_id, type, text, text2, x, y, w, h
FROM items WHERE diagram_id = ?
ORDER BY x, y, item_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var icons []Icon
	for rows.Next() {
		var icon Icon
		var text, text2 sql.NullString
		if err := rows.Scan(&icon.ItemID, &icon.Type, &text, &text2, &icon.X, &icon.Y, &icon.W, &icon.H); err != nil {
			return nil, err
		}
		if connectors[icon.Type] {
			continue
		}
		icon.NodeID = strconv.Itoa(icon.ItemID)
		icon.Text, icon.Text2 = text.String, text2.String
		icons = append(icons, icon)
	}
	return icons, rows.Err()
}
