package widget

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"drakonflow/internal/graph"
)

type Options struct {
	// KeepIDs keeps node IDs as item keys instead of renumbering "1".."n".
	KeepIDs bool
	// Labels decide which question exit is affirmative. Zero means
	// graph.DefaultLabels.
	Labels graph.LabelSet
}

// Encode converts a diagram to a widget document.
//
// Questions put the affirmative exit in one and the negative exit in two,
// with flag1 = 1 when both exist; an unlabelled edge fills the first free
// slot. A select whose exits all lead to case nodes links one to the first
// case and chains the cases through two. Every other node puts its first
// successor in one and its second in two.
func Encode(d *graph.Diagram, opts Options) (*Document, error) {
	if d.Style != "" && !json.Valid([]byte(d.Style)) {
		return nil, fmt.Errorf("%w: style of %q is not valid JSON", graph.ErrMalformed, d.Name)
	}

	nodes := d.Nodes()
	ids := make(map[string]string, len(nodes))
	for i, n := range nodes {
		if opts.KeepIDs {
			ids[n.ID] = n.ID
		} else {
			ids[n.ID] = strconv.Itoa(i + 1)
		}
	}

	doc := &Document{
		Name:   d.Name,
		Access: string(d.Access),
		Params: Params(strings.Join(d.Params, "\n")),
		Style:  d.Style,
		Items:  make(map[string]*Item, len(nodes)),
	}
	if doc.Access == "" {
		doc.Access = string(graph.AccessWrite)
	}

	ref := func(e graph.Edge) (string, error) {
		id, ok := ids[e.Target]
		if !ok {
			return "", fmt.Errorf("%w: edge %s -> %s points at a missing node", graph.ErrMalformed, e.Source, e.Target)
		}
		return id, nil
	}

	chained := caseChains(d)
	branchIDs := assignBranchIDs(nodes)

	for i, n := range nodes {
		if !n.Kind.Valid() {
			return nil, fmt.Errorf("node %s: %w: %q", n.ID, graph.ErrUnknownKind, n.Kind)
		}
		item := &Item{
			Type:      n.Kind.WireName(),
			Content:   n.Label,
			Secondary: n.Secondary,
		}
		if n.Kind == graph.KindBranch {
			item.BranchID = graph.IntPtr(branchIDs[i])
		}

		var err error
		next, isChained := chained[n.ID]
		switch {
		case n.Kind == graph.KindQuestion:
			err = encodeQuestion(d, n, item, opts.Labels, ref)
		case n.Kind == graph.KindSelect && allCases(d, n.ID):
			err = encodeSelect(d, n, item, ref)
		case n.Kind == graph.KindCase && isChained:
			err = encodeCase(d, n, item, next, ids, ref)
		default:
			err = encodeGeneric(d, n, item, ref)
		}
		if err != nil {
			return nil, err
		}

		var sides []graph.Edge
		for _, e := range d.Outgoing(n.ID) {
			if e.IsSide() {
				sides = append(sides, e)
			}
		}
		if len(sides) > 1 {
			return nil, fmt.Errorf("%w: node %s has %d side references", ErrUnrepresentable, n.ID, len(sides))
		}
		if len(sides) == 1 {
			if item.Side, err = ref(sides[0]); err != nil {
				return nil, err
			}
		}

		doc.Items[ids[n.ID]] = item
	}
	return doc, nil
}

type refFunc func(graph.Edge) (string, error)

func encodeQuestion(d *graph.Diagram, n graph.Node, item *Item, labels graph.LabelSet, ref refFunc) error {
	yes, no := d.QuestionExits(n.ID, labels)
	if len(yes) > 1 || len(no) > 1 || len(yes)+len(no) != len(d.Successors(n.ID)) {
		return fmt.Errorf("%w: question %s needs exactly one affirmative and one negative exit", ErrUnrepresentable, n.ID)
	}
	var err error
	switch {
	case len(yes) == 1 && len(no) == 1:
		if item.One, err = ref(yes[0]); err != nil {
			return err
		}
		if item.Two, err = ref(no[0]); err != nil {
			return err
		}
		item.Flag1 = graph.IntPtr(1)
	case len(yes) == 1:
		item.One, err = ref(yes[0])
	case len(no) == 1:
		item.One, err = ref(no[0])
		item.Flag1 = graph.IntPtr(0)
	}
	return err
}

func encodeSelect(d *graph.Diagram, n graph.Node, item *Item, ref refFunc) error {
	succ := d.Successors(n.ID)
	if len(succ) == 0 {
		return nil
	}
	var err error
	item.One, err = ref(succ[0])
	return err
}

func encodeCase(d *graph.Diagram, n graph.Node, item *Item, next string, ids map[string]string, ref refFunc) error {
	succ := d.Successors(n.ID)
	if len(succ) > 1 {
		return fmt.Errorf("%w: case %s has %d exits", ErrUnrepresentable, n.ID, len(succ))
	}
	if len(succ) == 1 {
		var err error
		if item.One, err = ref(succ[0]); err != nil {
			return err
		}
	}
	if next != "" {
		item.Two = ids[next]
	}
	return nil
}

func encodeGeneric(d *graph.Diagram, n graph.Node, item *Item, ref refFunc) error {
	succ := d.Successors(n.ID)
	if len(succ) > 2 {
		return fmt.Errorf("%w: %s %s has %d exits", ErrUnrepresentable, n.Kind, n.ID, len(succ))
	}
	var err error
	if len(succ) > 0 {
		if item.One, err = ref(succ[0]); err != nil {
			return err
		}
	}
	if len(succ) > 1 {
		item.Two, err = ref(succ[1])
	}
	return err
}

// allCases reports whether every exit of a select leads to a case node.
func allCases(d *graph.Diagram, id string) bool {
	succ := d.Successors(id)
	if len(succ) == 0 {
		return false
	}
	for _, e := range succ {
		n, ok := d.Node(e.Target)
		if !ok || n.Kind != graph.KindCase {
			return false
		}
	}
	return true
}

// caseChains maps every case reached from a chained select to the next case
// in that select's exit order; the last case maps to "".
func caseChains(d *graph.Diagram) map[string]string {
	chained := make(map[string]string)
	for _, sel := range d.NodesOfKind(graph.KindSelect) {
		if !allCases(d, sel.ID) {
			continue
		}
		succ := d.Successors(sel.ID)
		for i, e := range succ {
			next := ""
			if i+1 < len(succ) {
				next = succ[i+1].Target
			}
			chained[e.Target] = next
		}
	}
	return chained
}

// assignBranchIDs keeps Seq where present and gives other branches the next
// unused value counting from 0. The result is indexed like nodes.
func assignBranchIDs(nodes []graph.Node) []int {
	used := make(map[int]bool)
	for _, n := range nodes {
		if n.Kind == graph.KindBranch && n.Seq != nil {
			used[*n.Seq] = true
		}
	}
	out := make([]int, len(nodes))
	next := 0
	for i, n := range nodes {
		if n.Kind != graph.KindBranch {
			continue
		}
		if n.Seq != nil {
			out[i] = *n.Seq
			continue
		}
		for used[next] {
			next++
		}
		out[i] = next
		used[next] = true
	}
	return out
}

// Chain builds a document straight from an ordered node list, linking each
// item's one to the next item.
func Chain(name string, nodes []graph.Node) *Document {
	doc := &Document{
		Name:   name,
		Access: string(graph.AccessWrite),
		Items:  make(map[string]*Item, len(nodes)),
	}
	branchIDs := assignBranchIDs(nodes)
	for i, n := range nodes {
		item := &Item{Type: n.Kind.WireName(), Content: n.Label, Secondary: n.Secondary}
		if i+1 < len(nodes) {
			item.One = strconv.Itoa(i + 2)
		}
		if n.Kind == graph.KindBranch {
			item.BranchID = graph.IntPtr(branchIDs[i])
		}
		doc.Items[strconv.Itoa(i+1)] = item
	}
	return doc
}
