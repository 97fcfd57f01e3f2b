// Package integrity validates DRAKON diagrams and repairs the defects that
// can be fixed mechanically.
package integrity

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies an Issue.
type Code string

const (
	CodeMissingField      Code = "missing-field"
	CodeWrongType         Code = "wrong-type"
	CodeInvalidValue      Code = "invalid-value"
	CodeEmptyItems        Code = "empty-items"
	CodeUnknownType       Code = "unknown-type"
	CodeDanglingReference Code = "dangling-reference"
	CodeMissingEnd        Code = "missing-end"
	CodeMultipleEnd       Code = "multiple-end"
	CodeMissingBranch     Code = "missing-branch"
	CodeBranchSequence    Code = "branch-sequence"
	CodeBranchGap         Code = "branch-gap"
	CodeQuestionExit      Code = "question-exit"
	CodeMalformedStyle    Code = "malformed-style"
)

// Issue is one finding. Item is empty for diagram-level findings.
type Issue struct {
	Code    Code   `json:"code"`
	Item    string `json:"item,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Message
}

// Report collects every error and warning found in one pass.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Valid reports whether no errors were found. Warnings do not count.
func (r Report) Valid() bool { return len(r.Errors) == 0 }

// HasError reports whether an error with the given code exists.
func (r Report) HasError(code Code) bool { return hasCode(r.Errors, code) }

// HasWarning reports whether a warning with the given code exists.
func (r Report) HasWarning(code Code) bool { return hasCode(r.Warnings, code) }

func (r *Report) errorf(code Code, item, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, Item: item, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(code Code, item, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Item: item, Message: fmt.Sprintf(format, args...)})
}

// String renders numbered ERRORS and WARNINGS sections.
func (r Report) String() string {
	var b strings.Builder
	if len(r.Errors) > 0 {
		b.WriteString("=== ERRORS ===\n")
		for i, e := range r.Errors {
			fmt.Fprintf(&b, "%d. %s\n", i+1, e.Message)
		}
	}
	if len(r.Warnings) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("=== WARNINGS ===\n")
		for i, w := range r.Warnings {
			fmt.Fprintf(&b, "%d. %s\n", i+1, w.Message)
		}
	}
	if b.Len() == 0 {
		return "Diagram is valid\n"
	}
	return b.String()
}

// FormatCorrections renders a numbered list of applied corrections.
func FormatCorrections(corrections []string) string {
	if len(corrections) == 0 {
		return "No corrections needed\n"
	}
	var b strings.Builder
	b.WriteString("=== CORRECTIONS ===\n")
	for i, c := range corrections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return b.String()
}

func hasCode(issues []Issue, code Code) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

var (
	// ErrStructural marks a recognised diagram with invalid content.
	ErrStructural = errors.New("structural defect")
	// ErrUncorrectable marks a diagram that still fails validation after correction.
	ErrUncorrectable = errors.New("uncorrectable defect")
)

// ReportError carries the report behind ErrStructural or ErrUncorrectable.
type ReportError struct {
	Kind   error
	Report Report
}

func (e *ReportError) Error() string {
	msgs := make([]string, 0, len(e.Report.Errors))
	for _, issue := range e.Report.Errors {
		msgs = append(msgs, issue.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(msgs, "; "))
}

func (e *ReportError) Unwrap() error { return e.Kind }
