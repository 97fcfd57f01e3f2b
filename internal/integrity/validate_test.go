package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) map[string]any {
	t.Helper()
	doc, err := ParseDocument([]byte(src))
	require.NoError(t, err)
	return doc
}

func codes(issues []Issue) []Code {
	out := make([]Code, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func TestValidateValidDiagram(t *testing.T) {
	doc := mustParse(t, `{
		"name": "demo",
		"access": "write",
		"items": {
			"1": {"type": "branch", "branchId": 0, "one": "2"},
			"2": {"type": "action", "content": "work", "one": "3"},
			"3": {"type": "end"}
		}
	}`)

	r := Validate(doc)
	assert.True(t, r.Valid())
	assert.Empty(t, r.Warnings)
	assert.Equal(t, "Diagram is valid\n", r.String())
}

func TestValidateBranchGapIsWarning(t *testing.T) {
	doc := mustParse(t, `{
		"name": "gap",
		"access": "write",
		"items": {
			"1": {"type": "branch", "branchId": 0, "one": "2"},
			"2": {"type": "action", "content": "a", "one": "3"},
			"3": {"type": "branch", "branchId": 2, "one": "4"},
			"4": {"type": "end"}
		}
	}`)

	r := Validate(doc)
	assert.Empty(t, r.Errors)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, CodeBranchGap, r.Warnings[0].Code)
}

func TestValidateBranchMustStartAtZero(t *testing.T) {
	doc := mustParse(t, `{
		"name": "x",
		"access": "read",
		"items": {
			"1": {"type": "branch", "branchId": 1, "one": "2"},
			"2": {"type": "end"}
		}
	}`)

	r := Validate(doc)
	assert.True(t, r.HasError(CodeBranchSequence))
}

func TestValidateTopLevel(t *testing.T) {
	r := Validate(map[string]any{})
	assert.Equal(t, []Code{CodeMissingField, CodeMissingField, CodeMissingField}, codes(r.Errors))

	r = Validate(mustParse(t, `{"name": 3, "access": "admin", "items": [], "style": "{oops"}`))
	assert.Equal(t, []Code{CodeWrongType, CodeInvalidValue, CodeWrongType, CodeMalformedStyle}, codes(r.Errors))

	r = Validate(mustParse(t, `{"name": "x", "access": "write", "items": {}}`))
	assert.Equal(t, []Code{CodeEmptyItems}, codes(r.Errors))
	assert.Empty(t, r.Warnings)
}

func TestValidateItems(t *testing.T) {
	doc := mustParse(t, `{
		"name": "items",
		"access": "write",
		"items": {
			"1": {"type": "branch", "branchId": "zero", "one": "9"},
			"2": {"type": "teleport"},
			"3": {"content": "no type"},
			"4": {"type": "question", "flag1": 1.5, "content": 7},
			"5": "not an object",
			"6": {"type": "action", "style": {"color": "red"}}
		}
	}`)

	r := Validate(doc)
	assert.False(t, r.Valid())
	assert.True(t, r.HasError(CodeWrongType))
	assert.True(t, r.HasError(CodeUnknownType))
	assert.True(t, r.HasError(CodeMissingField))
	assert.True(t, r.HasError(CodeDanglingReference))
	assert.True(t, r.HasError(CodeMissingEnd))

	var items []string
	for _, e := range r.Errors {
		if e.Code == CodeWrongType {
			items = append(items, e.Item)
		}
	}
	assert.Equal(t, []string{"1", "4", "4", "5", "6"}, items)
}

func TestValidateWarnings(t *testing.T) {
	doc := mustParse(t, `{
		"name": "w",
		"access": "write",
		"items": {
			"1": {"type": "action", "one": "2"},
			"2": {"type": "end"},
			"3": {"type": "end"}
		}
	}`)

	r := Validate(doc)
	assert.True(t, r.Valid())
	assert.Equal(t, []Code{CodeMultipleEnd, CodeMissingBranch}, codes(r.Warnings))
}

func TestValidateAcceptsWidgetOnlyTypes(t *testing.T) {
	doc := mustParse(t, `{
		"name": "w",
		"access": "write",
		"items": {
			"1": {"type": "branch", "branchId": 0, "one": "2"},
			"2": {"type": "timer", "one": "3"},
			"3": {"type": "end"}
		}
	}`)
	assert.True(t, Validate(doc).Valid())
}

func TestValidateDoesNotMutate(t *testing.T) {
	src := `{"name": "x", "items": [{"type": "end"}]}`
	doc := mustParse(t, src)
	Validate(doc)
	assert.Equal(t, mustParse(t, src), doc)
}

func TestReportString(t *testing.T) {
	var r Report
	r.errorf(CodeMissingEnd, "", "missing end")
	r.warnf(CodeMissingBranch, "", "no branch")
	assert.Equal(t, "=== ERRORS ===\n1. missing end\n\n=== WARNINGS ===\n1. no branch\n", r.String())

	assert.Equal(t, "No corrections needed\n", FormatCorrections(nil))
	assert.Equal(t, "=== CORRECTIONS ===\n1. a\n2. b\n", FormatCorrections([]string{"a", "b"}))
}

func TestAsInt(t *testing.T) {
	doc := mustParse(t, `{"a": 3, "b": 3.5, "c": "3"}`)
	n, ok := AsInt(doc["a"])
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = AsInt(doc["b"])
	assert.False(t, ok)
	_, ok = AsInt(doc["c"])
	assert.False(t, ok)
	n, ok = AsInt(float64(2))
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}
