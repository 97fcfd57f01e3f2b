package graph

// QuestionExits splits the successors of a question into its affirmative and
// negative exits under labels (DefaultLabels when zero). Labelled edges go to
// their side; unlabelled edges fill the affirmative slot first, then the
// negative one. Edges with any other label are ignored.
func (d *Diagram) QuestionExits(id string, labels LabelSet) (yes, no []Edge) {
	labels = labels.OrDefault()
	var unlabelled []Edge
	for _, e := range d.Successors(id) {
		switch {
		case labels.IsYes(e.Label):
			yes = append(yes, e)
		case labels.IsNo(e.Label):
			no = append(no, e)
		case e.Label == "":
			unlabelled = append(unlabelled, e)
		}
	}
	for _, e := range unlabelled {
		switch {
		case len(yes) == 0:
			yes = append(yes, e)
		case len(no) == 0:
			no = append(no, e)
		}
	}
	return yes, no
}
