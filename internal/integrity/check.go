package integrity

import "drakonflow/internal/graph"

// CheckDiagram verifies the structural invariants of a typed diagram: the
// icon vocabulary, end icons, branch numbering, edge endpoints and question
// exits. Exits are split under labels.
func CheckDiagram(d *graph.Diagram, labels graph.LabelSet) Report {
	var r Report
	if d.Len() == 0 {
		r.errorf(CodeEmptyItems, "", "diagram contains no nodes")
		return r
	}

	var ends int
	var seqs []int
	var branches int
	for _, n := range d.Nodes() {
		if !n.Kind.Valid() {
			r.errorf(CodeUnknownType, n.ID, "unknown icon type '%s' in %s", n.Kind, n.ID)
		}
		switch n.Kind {
		case graph.KindEnd:
			ends++
		case graph.KindBranch:
			branches++
			if n.Seq != nil {
				seqs = append(seqs, *n.Seq)
			}
		}
	}

	for i, e := range d.Edges() {
		if !d.Has(e.Source) {
			r.errorf(CodeDanglingReference, e.Source, "edge %d starts at missing node '%s'", i, e.Source)
		}
		if !d.Has(e.Target) {
			r.errorf(CodeDanglingReference, e.Source, "edge %d points at missing node '%s'", i, e.Target)
		}
	}

	switch {
	case ends == 0:
		r.errorf(CodeMissingEnd, "", "diagram must contain at least one 'end' node")
	case ends > 1:
		r.warnf(CodeMultipleEnd, "", "diagram contains %d 'end' nodes", ends)
	}
	if branches > 0 {
		checkBranchSequence(seqs, &r)
	}

	for _, q := range d.NodesOfKind(graph.KindQuestion) {
		yes, no := d.QuestionExits(q.ID, labels)
		if len(yes) == 0 {
			r.warnf(CodeQuestionExit, q.ID, "question %s has no affirmative exit", q.ID)
		}
		if len(no) == 0 {
			r.warnf(CodeQuestionExit, q.ID, "question %s has no negative exit", q.ID)
		}
	}
	return r
}
