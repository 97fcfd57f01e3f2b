// Package narrative renders a diagram as indented pseudocode text.
package narrative

import (
	"fmt"
	"sort"
	"strings"

	"drakonflow/internal/graph"
)

const (
	DefaultIndent = "  "
	DefaultWidth  = 70
)

// Options control the text layout. Zero values select the defaults.
type Options struct {
	Indent string
	// Width is the length of the "=" rules framing the document.
	Width  int
	Labels graph.LabelSet
}

type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Indent == "" {
		opts.Indent = DefaultIndent
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	opts.Labels = opts.Labels.OrDefault()
	return &Renderer{opts: opts}
}

// Render uses the default options.
func Render(d *graph.Diagram) string {
	return NewRenderer(Options{}).Render(d)
}

func (r *Renderer) Render(d *graph.Diagram) string {
	w := &writer{indent: r.opts.Indent}
	rule := strings.Repeat("=", r.opts.Width)

	w.line(0, rule)
	w.line(0, "DRAKON PSEUDOCODE: "+d.Name)
	w.line(0, rule)
	w.line(0, "")

	branches := d.NodesOfKind(graph.KindBranch)
	starts := d.NodesOfKind(graph.KindStart)
	if len(branches) == 0 && len(starts) == 0 {
		w.line(0, "# ERROR: START node not found")
		return w.String()
	}

	r.params(w, d)
	if len(branches) > 0 {
		r.silhouette(w, d, branches)
	} else {
		start := starts[0]
		w.line(0, "ALGORITHM: "+orDefault(start.Label, "Unnamed"))
		w.line(0, "")
		w.line(0, "BEGIN")
		r.walk(w, d, successorFrames(d, start.ID, 1, pathSet{}))
		w.line(0, "END")
	}

	w.line(0, "")
	w.line(0, rule)
	w.line(0, "END OF ALGORITHM")
	w.line(0, rule)
	return w.String()
}

func (r *Renderer) params(w *writer, d *graph.Diagram) {
	if len(d.Params) > 0 {
		w.line(0, "PARAMETERS: "+strings.Join(d.Params, ", "))
		w.line(0, "")
	}
	for _, n := range d.NodesOfKind(graph.KindParams) {
		if n.Label != "" {
			w.line(0, "PARAMETERS: "+n.Label)
			w.line(0, "")
		}
	}
}

func (r *Renderer) silhouette(w *writer, d *graph.Diagram, branches []graph.Node) {
	orderBranches(branches)

	w.line(0, "# STRUCTURE: silhouette")
	w.line(0, "")
	w.line(0, "BRANCHES:")
	for i, b := range branches {
		w.line(1, fmt.Sprintf("%d. %s", i+1, orDefault(b.Label, "Branch "+b.ID)))
	}
	w.line(0, "")
	w.line(0, "EXECUTION:")
	w.line(0, "")

	for _, b := range branches {
		w.line(0, fmt.Sprintf("=== BRANCH: %s ===", orDefault(b.Label, "Branch "+b.ID)))
		r.walk(w, d, successorFrames(d, b.ID, 1, pathSet{}))
		w.line(0, "=== END BRANCH ===")
		w.line(0, "")
	}
}

// orderBranches sorts by the X hint when every branch has one and keeps
// insertion order otherwise.
func orderBranches(branches []graph.Node) {
	for _, b := range branches {
		if b.X == nil {
			return
		}
	}
	sort.SliceStable(branches, func(i, j int) bool { return *branches[i].X < *branches[j].X })
}

// frame is one work-stack item: either a node to visit or a literal line.
// Each visit frame owns its path set.
type frame struct {
	id      string
	text    string
	literal bool
	indent  int
	path    pathSet
}

func visit(id string, indent int, path pathSet) frame {
	return frame{id: id, indent: indent, path: path}
}

func literal(text string, indent int) frame {
	return frame{text: text, indent: indent, literal: true}
}

type pathSet map[string]struct{}

func (p pathSet) has(id string) bool {
	_, ok := p[id]
	return ok
}

// with returns a new set holding p plus id.
func (p pathSet) with(id string) pathSet {
	out := make(pathSet, len(p)+1)
	for k := range p {
		out[k] = struct{}{}
	}
	out[id] = struct{}{}
	return out
}

func successorFrames(d *graph.Diagram, id string, indent int, path pathSet) []frame {
	var out []frame
	for _, e := range d.Successors(id) {
		out = append(out, visit(e.Target, indent, path.with(id)))
	}
	return out
}

// walk drains an explicit stack seeded with frames, in order.
func (r *Renderer) walk(w *writer, d *graph.Diagram, frames []frame) {
	var stack []frame
	push := func(fs []frame) {
		for i := len(fs) - 1; i >= 0; i-- {
			stack = append(stack, fs[i])
		}
	}
	push(frames)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.literal {
			w.line(f.indent, f.text)
			continue
		}
		if f.path.has(f.id) {
			w.line(f.indent, "# [LOOP: back to "+f.id+"]")
			continue
		}
		n, ok := d.Node(f.id)
		if !ok {
			continue
		}
		push(r.expand(w, d, n, f))
	}
}

// expand emits the node's own line and returns the frames that follow it.
func (r *Renderer) expand(w *writer, d *graph.Diagram, n graph.Node, f frame) []frame {
	in := f.indent
	labels := r.opts.Labels
	child := func(target string, indent int) frame {
		return visit(target, indent, f.path.with(n.ID))
	}

	switch n.Kind {
	case graph.KindQuestion:
		w.line(in, fmt.Sprintf("IF (%s):", orDefault(n.Label, "condition?")))
		yes, no := d.QuestionExits(n.ID, labels)
		var out []frame
		if len(yes) > 0 {
			out = append(out, literal("# [YES - main path]", in+1))
			for _, e := range yes {
				out = append(out, child(e.Target, in+1))
			}
		} else {
			out = append(out, literal("# [YES - empty]", in+1))
		}
		if len(no) > 0 {
			out = append(out, literal("ELSE:", in), literal("# [NO - alternative path]", in+1))
			for _, e := range no {
				out = append(out, child(e.Target, in+1))
			}
		}
		return append(out, literal("END IF", in))

	case graph.KindSelect:
		w.line(in, fmt.Sprintf("SELECT (%s):", orDefault(n.Label, "expression")))
		var out []frame
		for _, e := range d.Successors(n.ID) {
			if e.Label != "" {
				out = append(out, literal(fmt.Sprintf("CASE '%s':", e.Label), in+1))
			} else {
				out = append(out, literal("CASE default:", in+1))
			}
			out = append(out, child(e.Target, in+2))
		}
		return append(out, literal("END SELECT", in))

	case graph.KindForLoop, graph.KindLoopBegin:
		header, footer := "FOR EACH (%s):", "END FOR EACH"
		fallback := "item in collection"
		if n.Kind == graph.KindLoopBegin {
			header, footer, fallback = "WHILE (%s):", "END WHILE", "loop condition"
		}
		w.line(in, fmt.Sprintf(header, orDefault(n.Label, fallback)))
		var out []frame
		for _, e := range d.Successors(n.ID) {
			if !labels.IsBackward(e.Label) {
				out = append(out, child(e.Target, in+1))
			}
		}
		return append(out, literal(footer, in))

	case graph.KindAddress:
		w.line(in, "GOTO BRANCH "+orDefault(n.Label, "branch"))
		return nil

	case graph.KindBranch:
		return nil

	case graph.KindAction:
		if n.Label != "" {
			w.line(in, "DO: "+n.Label)
		} else {
			w.line(in, fmt.Sprintf("DO: [operation %s]", n.ID))
		}
	case graph.KindComment:
		w.line(in, "# COMMENT: "+n.Label)
	case graph.KindEnd:
		w.line(in, "# EXIT")
	}

	var out []frame
	for _, e := range d.Successors(n.ID) {
		out = append(out, child(e.Target, in))
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type writer struct {
	indent string
	b      strings.Builder
}

func (w *writer) line(depth int, text string) {
	if text != "" {
		w.b.WriteString(strings.Repeat(w.indent, depth))
		w.b.WriteString(text)
	}
	w.b.WriteByte('\n')
}

func (w *writer) String() string { return w.b.String() }
