// Package drn reads and writes the SQLite project files of DRAKON Editor.
package drn

import (
	"drakonflow/internal/graph"
)

// Size is the full logical size of an icon.
type Size struct {
	W int `yaml:"w" json:"w" validate:"gt=0"`
	H int `yaml:"h" json:"h" validate:"gt=0"`
}

// Geometry controls icon placement. Dimensions is keyed by wire type name
// and only needs the kinds it overrides.
type Geometry struct {
	BaseX      int             `yaml:"base_x" json:"base_x" validate:"gte=0"`
	StartY     int             `yaml:"start_y" json:"start_y" validate:"gte=0"`
	Gap        int             `yaml:"gap" json:"gap" validate:"gte=0"`
	Dimensions map[string]Size `yaml:"dimensions,omitempty" json:"dimensions,omitempty" validate:"dive"`
}

var unknownSize = Size{W: 120, H: 40}

// defaultDimensions follows the desktop editor's icon presets; question and
// branch are enlarged to 120x80 and 80x80.
var defaultDimensions = map[string]Size{
	"action":     {W: 120, H: 40},
	"question":   {W: 120, H: 80},
	"select":     {W: 120, H: 40},
	"case":       {W: 120, H: 40},
	"foreach":    {W: 120, H: 40},
	"loopbegin":  {W: 120, H: 30},
	"loopend":    {W: 120, H: 30},
	"branch":     {W: 80, H: 80},
	"address":    {W: 80, H: 40},
	"start":      {W: 120, H: 40},
	"end":        {W: 120, H: 40},
	"parameters": {W: 120, H: 40},
	"comment":    {W: 150, H: 60},
}

func DefaultGeometry() Geometry {
	return Geometry{BaseX: 200, StartY: 100, Gap: 80}
}

// SizeOf returns the full size for kind: an override, then the default
// table, then 120x40.
func (g Geometry) SizeOf(kind graph.Kind) Size {
	name := kind.WireName()
	if s, ok := g.Dimensions[name]; ok {
		return s
	}
	if s, ok := defaultDimensions[name]; ok {
		return s
	}
	return unknownSize
}

// Icon is one row of the items table. X and Y are the icon centre; W and H
// are stored as half the logical size.
type Icon struct {
	ItemID int
	NodeID string
	Type   string
	Text   string
	Text2  string
	X, Y   int
	W, H   int
}

// Layout places the nodes of a diagram. Linear reports whether the editor
// can recover every main edge from the placement alone.
type Layout interface {
	Place(d *graph.Diagram, g Geometry) (icons []Icon, linear bool)
}

// LinearLayout stacks every icon in one column.
type LinearLayout struct{}

func (LinearLayout) Place(d *graph.Diagram, g Geometry) ([]Icon, bool) {
	order := walkOrder(d)
	pos := make(map[string]int, len(order))
	icons := make([]Icon, 0, len(order))
	top := g.StartY
	for i, n := range order {
		size := g.SizeOf(n.Kind)
		icons = append(icons, Icon{
			ItemID: i + 1,
			NodeID: n.ID,
			Type:   n.Kind.WireName(),
			Text:   n.Label,
			Text2:  n.Secondary,
			X:      g.BaseX,
			Y:      top + size.H/2,
			W:      size.W / 2,
			H:      size.H / 2,
		})
		pos[n.ID] = i
		top += size.H + g.Gap
	}

	linear := true
	for _, e := range d.Edges() {
		if e.IsSide() {
			continue
		}
		src, ok1 := pos[e.Source]
		dst, ok2 := pos[e.Target]
		if !ok1 || !ok2 || dst != src+1 {
			linear = false
			break
		}
	}
	return icons, linear
}

// walkOrder follows the first successor from the first root, then appends
// the nodes the walk did not reach in insertion order.
func walkOrder(d *graph.Diagram) []graph.Node {
	nodes := d.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	root := nodes[0]
	for _, n := range nodes {
		if len(d.Incoming(n.ID)) == 0 {
			root = n
			break
		}
	}

	seen := make(map[string]bool, len(nodes))
	var order []graph.Node
	for cur, ok := root, true; ok && !seen[cur.ID]; {
		seen[cur.ID] = true
		order = append(order, cur)
		succ := d.Successors(cur.ID)
		if len(succ) == 0 {
			break
		}
		cur, ok = d.Node(succ[0].Target)
	}
	for _, n := range nodes {
		if !seen[n.ID] {
			order = append(order, n)
		}
	}
	return order
}
