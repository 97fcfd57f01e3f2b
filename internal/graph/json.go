package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// graphDoc is the graph-native JSON layout: a node dictionary plus an
// explicit edge list.
type graphDoc struct {
	Name        string              `json:"name"`
	Access      string              `json:"access,omitempty"`
	Description string              `json:"description,omitempty"`
	Params      json.RawMessage     `json:"params,omitempty"`
	Style       string              `json:"style,omitempty"`
	Nodes       map[string]nodeJSON `json:"nodes"`
	Edges       []edgeJSON          `json:"edges"`
}

type nodeJSON struct {
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content,omitempty"`
	Secondary string          `json:"secondary,omitempty"`
	BranchID  *int            `json:"branchId,omitempty"`
	X         *int            `json:"x,omitempty"`
	Y         *int            `json:"y,omitempty"`
}

type edgeJSON struct {
	Src   string `json:"src"`
	Dst   string `json:"dst"`
	Label string `json:"label,omitempty"`
	Side  bool   `json:"side,omitempty"`
}

// Decode reads the graph-native JSON format. Content may be a plain string
// or an object with a "txt" field. Nodes are inserted in natural ID order.
func Decode(data []byte) (*Diagram, error) {
	var doc graphDoc
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Nodes == nil {
		return nil, fmt.Errorf("%w: missing \"nodes\" object", ErrMalformed)
	}

	d := New(doc.Name)
	if doc.Access != "" {
		d.Access = Access(doc.Access)
	}
	d.Description = doc.Description
	d.Style = doc.Style
	params, err := decodeParams(doc.Params)
	if err != nil {
		return nil, err
	}
	d.Params = params

	ids := make([]string, 0, len(doc.Nodes))
	for id := range doc.Nodes {
		ids = append(ids, id)
	}
	SortIDs(ids)

	for _, id := range ids {
		raw := doc.Nodes[id]
		kind, err := ParseKind(raw.Type)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		text, err := decodeContent(raw.Content)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		d.Upsert(Node{
			ID:        id,
			Kind:      kind,
			Label:     text,
			Secondary: raw.Secondary,
			Seq:       raw.BranchID,
			X:         raw.X,
		})
	}

	for _, e := range doc.Edges {
		edge := Edge{Source: e.Src, Target: e.Dst, Label: strings.TrimSpace(e.Label)}
		if e.Side {
			edge.Role = RoleSide
		}
		d.Connect(edge)
	}
	return d, nil
}

// Encode writes d in the graph-native JSON format.
func Encode(d *Diagram) ([]byte, error) {
	doc := graphDoc{
		Name:        d.Name,
		Access:      string(d.Access),
		Description: d.Description,
		Style:       d.Style,
		Nodes:       make(map[string]nodeJSON, d.Len()),
		Edges:       make([]edgeJSON, 0, len(d.edges)),
	}
	if len(d.Params) > 0 {
		raw, err := json.Marshal(d.Params)
		if err != nil {
			return nil, err
		}
		doc.Params = raw
	}
	for _, n := range d.Nodes() {
		nj := nodeJSON{Type: string(n.Kind), Secondary: n.Secondary, BranchID: n.Seq, X: n.X}
		if n.Label != "" {
			raw, err := json.Marshal(n.Label)
			if err != nil {
				return nil, err
			}
			nj.Content = raw
		}
		doc.Nodes[n.ID] = nj
	}
	for _, e := range d.edges {
		doc.Edges = append(doc.Edges, edgeJSON{Src: e.Source, Dst: e.Target, Label: e.Label, Side: e.IsSide()})
	}
	return json.MarshalIndent(doc, "", "  ")
}

func decodeContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var obj struct {
		Txt string `json:"txt"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("%w: content must be a string or {\"txt\": ...}", ErrMalformed)
	}
	return strings.TrimSpace(obj.Txt), nil
}

// decodeParams accepts either a list of names or newline-separated text.
func decodeParams(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("%w: params must be a list or a string", ErrMalformed)
	}
	return SplitParams(text), nil
}

// SplitParams splits newline-separated parameter text, dropping blank lines.
func SplitParams(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// SortIDs orders item keys naturally: numeric keys by value first, then the
// rest lexicographically.
func SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool { return IDLess(ids[i], ids[j]) })
}

// IDLess is the comparison behind SortIDs.
func IDLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
