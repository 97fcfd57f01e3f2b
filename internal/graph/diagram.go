package graph

import "errors"

var (
	ErrMalformed     = errors.New("malformed input")
	ErrUnknownKind   = errors.New("unknown icon type")
	ErrDuplicateNode = errors.New("duplicate node id")
)

// Diagram is the canonical in-memory form every format converts through.
type Diagram struct {
	Name        string
	Access      Access
	Params      []string
	Style       string
	Description string

	nodes map[string]Node
	order []string
	edges []Edge
}

// New creates an empty writable diagram.
func New(name string) *Diagram {
	return &Diagram{
		Name:   name,
		Access: AccessWrite,
		nodes:  make(map[string]Node),
	}
}

// Upsert adds n or replaces the node with the same ID. A replaced node keeps
// its original position in insertion order.
func (d *Diagram) Upsert(n Node) {
	if _, exists := d.nodes[n.ID]; !exists {
		d.order = append(d.order, n.ID)
	}
	d.nodes[n.ID] = n
}

// Connect appends an edge. Parallel edges are kept.
func (d *Diagram) Connect(e Edge) {
	if e.Role == "" {
		e.Role = RoleMain
	}
	d.edges = append(d.edges, e)
}

// Link is shorthand for Connect with a main edge.
func (d *Diagram) Link(source, target, label string) {
	d.Connect(Edge{Source: source, Target: target, Label: label})
}

// Node looks up a node. A missing ID returns false; traversal treats that as
// the end of the path.
func (d *Diagram) Node(id string) (Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Has reports whether id exists.
func (d *Diagram) Has(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (d *Diagram) Nodes() []Node {
	out := make([]Node, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.nodes[id])
	}
	return out
}

// NodesOfKind returns the nodes of kind k in insertion order.
func (d *Diagram) NodesOfKind(k Kind) []Node {
	var out []Node
	for _, id := range d.order {
		if n := d.nodes[id]; n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns a copy of the edge list.
func (d *Diagram) Edges() []Edge {
	return append([]Edge(nil), d.edges...)
}

// Outgoing returns every edge leaving id, side edges included, in insertion order.
func (d *Diagram) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range d.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Successors returns the main-role edges leaving id.
func (d *Diagram) Successors(id string) []Edge {
	var out []Edge
	for _, e := range d.edges {
		if e.Source == id && !e.IsSide() {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the main-role edges entering id.
func (d *Diagram) Incoming(id string) []Edge {
	var out []Edge
	for _, e := range d.edges {
		if e.Target == id && !e.IsSide() {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of nodes.
func (d *Diagram) Len() int { return len(d.order) }

// Clone returns a deep copy.
func (d *Diagram) Clone() *Diagram {
	c := New(d.Name)
	c.Access = d.Access
	c.Params = append([]string(nil), d.Params...)
	c.Style = d.Style
	c.Description = d.Description
	for _, n := range d.Nodes() {
		if n.Seq != nil {
			n.Seq = IntPtr(*n.Seq)
		}
		if n.X != nil {
			n.X = IntPtr(*n.X)
		}
		c.Upsert(n)
	}
	c.edges = d.Edges()
	return c
}

// Chain builds a diagram whose nodes are linked one after another in the
// given order.
func Chain(name string, nodes ...Node) *Diagram {
	d := New(name)
	for i, n := range nodes {
		d.Upsert(n)
		if i > 0 {
			d.Link(nodes[i-1].ID, n.ID, "")
		}
	}
	return d
}
