package integrity

// Mode selects how Import treats invalid documents.
type Mode struct {
	// Strict refuses a document that is still invalid after correction.
	Strict bool
	// AutoFix runs the corrector on invalid documents.
	AutoFix bool
}

// Outcome is the result of one Import call.
type Outcome struct {
	Doc         map[string]any
	Initial     Report
	Report      Report
	Corrections []string
	Corrected   bool
}

// Import validates doc and, when allowed, corrects and re-validates it.
//
// An invalid document with AutoFix off returns ErrStructural. A document that
// fails again after correction returns ErrUncorrectable; in lenient mode the
// best-effort corrected document is still returned in Outcome.Doc.
func Import(doc map[string]any, mode Mode) (Outcome, error) {
	return ImportInOrder(doc, nil, mode)
}

// ImportInOrder is Import with corrections applied through CorrectInOrder.
func ImportInOrder(doc map[string]any, order []string, mode Mode) (Outcome, error) {
	initial := Validate(doc)
	if initial.Valid() {
		return Outcome{Doc: doc, Initial: initial, Report: initial}, nil
	}
	if !mode.AutoFix {
		return Outcome{Initial: initial, Report: initial}, &ReportError{Kind: ErrStructural, Report: initial}
	}

	fixed, corrections := CorrectInOrder(doc, order)
	after := Validate(fixed)
	out := Outcome{
		Initial:     initial,
		Report:      after,
		Corrections: corrections,
		Corrected:   true,
	}
	if !after.Valid() {
		if !mode.Strict {
			out.Doc = fixed
		}
		return out, &ReportError{Kind: ErrUncorrectable, Report: after}
	}
	out.Doc = fixed
	return out, nil
}
