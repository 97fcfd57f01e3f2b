package widget

import (
	"encoding/json"
	"fmt"

	"drakonflow/internal/graph"
	"drakonflow/internal/integrity"
)

// Decode is the validating boundary for widget JSON. Malformed JSON returns
// graph.ErrMalformed; a document that fails validation returns
// integrity.ErrStructural with the report. Item types the model has no kind
// for return graph.ErrUnknownKind. The report's warnings are returned on
// success.
func Decode(data []byte) (*graph.Diagram, integrity.Report, error) {
	return DecodeWith(data, Options{})
}

// DecodeWith is Decode with question exits labelled from opts.Labels.
func DecodeWith(data []byte, opts Options) (*graph.Diagram, integrity.Report, error) {
	loose, err := integrity.ParseDocument(data)
	if err != nil {
		return nil, integrity.Report{}, err
	}
	report := integrity.Validate(loose)
	if !report.Valid() {
		return nil, report, &integrity.ReportError{Kind: integrity.ErrStructural, Report: report}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, report, fmt.Errorf("%w: %v", graph.ErrMalformed, err)
	}
	d, err := ToDiagram(&doc, opts.Labels)
	if err != nil {
		return nil, report, err
	}
	return d, report, nil
}

// ToDiagram converts a document that already passed validation. Question
// exits get the first yes and no label of labels according to flag1; a
// select's case chain becomes one edge per case labelled with the case text.
func ToDiagram(doc *Document, labels graph.LabelSet) (*graph.Diagram, error) {
	d := graph.New(doc.Name)
	if doc.Access != "" {
		d.Access = graph.Access(doc.Access)
	}
	d.Params = graph.SplitParams(string(doc.Params))
	d.Style = doc.Style

	keys := make([]string, 0, len(doc.Items))
	for id := range doc.Items {
		keys = append(keys, id)
	}
	graph.SortIDs(keys)

	for _, id := range keys {
		item := doc.Items[id]
		kind, err := graph.ParseKind(item.Type)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", id, err)
		}
		n := graph.Node{ID: id, Kind: kind, Label: item.Content, Secondary: item.Secondary}
		if kind == graph.KindBranch && item.BranchID != nil {
			n.Seq = graph.IntPtr(*item.BranchID)
		}
		d.Upsert(n)
	}

	inChain := make(map[string]bool)
	for _, id := range keys {
		item := doc.Items[id]
		if item.Type != string(graph.KindSelect) {
			continue
		}
		for _, c := range caseChain(doc, item.One) {
			inChain[c] = true
		}
	}

	for _, id := range keys {
		item := doc.Items[id]
		switch {
		case item.Type == string(graph.KindQuestion):
			yes, no := item.One, item.Two
			if item.Flag1 != nil && *item.Flag1 == 0 {
				yes, no = no, yes
			}
			link(d, id, yes, labels.YesLabel())
			link(d, id, no, labels.NoLabel())
		case item.Type == string(graph.KindSelect) && len(caseChain(doc, item.One)) > 0:
			for _, c := range caseChain(doc, item.One) {
				d.Link(id, c, doc.Items[c].Content)
			}
		case inChain[id]:
			link(d, id, item.One, "")
		default:
			link(d, id, item.One, "")
			link(d, id, item.Two, "")
		}
		if item.Side != "" {
			d.Connect(graph.Edge{Source: id, Target: item.Side, Role: graph.RoleSide})
		}
	}
	return d, nil
}

func link(d *graph.Diagram, source, target, label string) {
	if target != "" {
		d.Link(source, target, label)
	}
}

// caseChain follows two from the first case of a select.
func caseChain(doc *Document, first string) []string {
	var chain []string
	seen := make(map[string]bool)
	for id := first; id != "" && !seen[id]; {
		item, ok := doc.Items[id]
		if !ok || item.Type != string(graph.KindCase) {
			break
		}
		seen[id] = true
		chain = append(chain, id)
		id = item.Two
	}
	return chain
}
