package integrity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrectListItems(t *testing.T) {
	doc := mustParse(t, `{
		"name": "list",
		"access": "write",
		"items": [
			{"type": "branch", "branchId": 0, "one": "2"},
			{"type": "action", "content": "x", "one": "3"},
			{"type": "end"}
		]
	}`)

	fixed, corrections := Correct(doc)
	require.NotEmpty(t, corrections)
	assert.Equal(t, "converted 'items' from a list to a dictionary", corrections[0])

	items := fixed["items"].(map[string]any)
	assert.Len(t, items, 3)
	for _, id := range []string{"1", "2", "3"} {
		assert.Contains(t, items, id)
	}
	assert.Equal(t, "action", items["2"].(map[string]any)["type"])
	assert.True(t, Validate(fixed).Valid())

	_, isList := doc["items"].([]any)
	assert.True(t, isList, "input must not be modified")
}

func TestCorrectFillsDefaults(t *testing.T) {
	fixed, corrections := Correct(map[string]any{})
	assert.Equal(t, DefaultName, fixed["name"])
	assert.Equal(t, "write", fixed["access"])

	items := fixed["items"].(map[string]any)
	require.Len(t, items, 2)
	assert.Equal(t, "end", items["1"].(map[string]any)["type"])
	branch := items["2"].(map[string]any)
	assert.Equal(t, "branch", branch["type"])
	assert.Equal(t, 0, branch["branchId"])
	assert.Equal(t, "1", branch["one"])

	assert.Equal(t, []string{
		"added missing field 'name'",
		"added missing field 'access'",
		"added missing field 'items'",
		"added missing 'end' item 1",
		"added missing 'branch' item 2",
	}, corrections)
	assert.True(t, Validate(fixed).Valid())
}

func TestCorrectBranchSequencing(t *testing.T) {
	doc := mustParse(t, `{
		"name": "b",
		"access": "write",
		"items": {
			"1": {"type": "branch", "one": "2"},
			"2": {"type": "action", "one": "3"},
			"3": {"type": "branch", "one": "4"},
			"4": {"type": "action", "one": "5"},
			"5": {"type": "branch", "one": "6"},
			"6": {"type": "end"}
		}
	}`)

	fixed, _ := Correct(doc)
	items := fixed["items"].(map[string]any)
	for id, want := range map[string]int{"1": 0, "3": 1, "5": 2} {
		got, ok := AsInt(items[id].(map[string]any)["branchId"])
		require.True(t, ok)
		assert.Equal(t, want, got, "branch %s", id)
	}
	r := Validate(fixed)
	assert.True(t, r.Valid())
	assert.Empty(t, r.Warnings)
}

func TestCorrectSkipsUsedBranchIDs(t *testing.T) {
	doc := mustParse(t, `{
		"name": "b",
		"access": "write",
		"items": {
			"1": {"type": "branch", "one": "2"},
			"2": {"type": "branch", "branchId": 0, "one": "3"},
			"3": {"type": "end"}
		}
	}`)

	fixed, _ := Correct(doc)
	got, _ := AsInt(fixed["items"].(map[string]any)["1"].(map[string]any)["branchId"])
	assert.Equal(t, 1, got)
}

func TestCorrectBranchIDsFollowDocumentOrder(t *testing.T) {
	src := `{
		"name": "b",
		"access": "write",
		"items": {
			"10": {"type": "branch", "one": "3"},
			"2": {"type": "branch", "one": "3"},
			"3": {"type": "end"}
		}
	}`
	doc := mustParse(t, src)
	branchID := func(fixed map[string]any, id string) int {
		n, ok := AsInt(fixed["items"].(map[string]any)[id].(map[string]any)["branchId"])
		require.True(t, ok)
		return n
	}

	ordered, corrections := CorrectInOrder(doc, ItemOrder([]byte(src)))
	assert.Equal(t, 0, branchID(ordered, "10"))
	assert.Equal(t, 1, branchID(ordered, "2"))
	assert.Equal(t, "added 'branchId' 0 for branch item 10", corrections[0])

	natural, _ := Correct(doc)
	assert.Equal(t, 0, branchID(natural, "2"))
	assert.Equal(t, 1, branchID(natural, "10"))
}

func TestItemOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "10", "9"}, ItemOrder([]byte(`{"items": {"b": {}, "a": {}, "10": {}, "9": {}}}`)))
	assert.Nil(t, ItemOrder([]byte(`{"items": [{}, {}]}`)))
	assert.Nil(t, ItemOrder([]byte(`{"name": "x"}`)))
	assert.Equal(t, []string{"x", "y"}, orderedKeys(map[string]any{"y": 1, "x": 2}, []string{"missing", "x"}))
}

func TestCorrectCoercesFields(t *testing.T) {
	doc := mustParse(t, `{
		"name": "c",
		"access": "write",
		"style": {"background": "white"},
		"items": {
			"1": {"type": "branch", "branchId": 0, "one": 2},
			"2": {"content": 42, "one": 3, "two": null, "style": {"color": "red"}},
			"3": {"type": "end"},
			"4": "loose text"
		}
	}`)

	fixed, corrections := Correct(doc)
	assert.Equal(t, `{"background":"white"}`, fixed["style"])

	items := fixed["items"].(map[string]any)
	two := items["2"].(map[string]any)
	assert.Equal(t, "action", two["type"])
	assert.Equal(t, "42", two["content"])
	assert.Equal(t, "3", two["one"])
	assert.NotContains(t, two, "two")
	assert.Equal(t, `{"color":"red"}`, two["style"])
	assert.Equal(t, "2", items["1"].(map[string]any)["one"])
	assert.Equal(t, "loose text", items["4"].(map[string]any)["content"])

	assert.Contains(t, corrections, "removed null 'two' from item 2")
	assert.Contains(t, corrections, "converted 'content' to a string for item 2")
	assert.True(t, Validate(fixed).Valid())
}

func TestCorrectIdempotent(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"name": "x", "items": [{"type": "action"}, {"type": "question", "one": 1}]}`,
		`{"name": "x", "access": "read", "items": {"1": {"type": "branch", "one": "2"}, "2": {"type": "end"}}}`,
		`{"items": {"a": {"content": 1, "style": {}}, "b": null}, "style": {"x": 1}}`,
		`{"name": "x", "access": "write", "items": "nope"}`,
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			once, _ := Correct(mustParse(t, src))
			twice, corrections := Correct(once)
			assert.Empty(t, corrections)
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("second pass changed the document (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestCorrectPreservesValidity(t *testing.T) {
	inputs := []string{
		`{"name": "ok", "access": "write", "items": {"1": {"type": "branch", "branchId": 0, "one": "2"}, "2": {"type": "end"}}}`,
		`{"name": "ok", "access": "write", "items": {"1": {"type": "question", "one": "2", "two": "3", "flag1": 1}, "2": {"type": "end"}, "3": {"type": "action", "one": "2"}}}`,
		`{"name": "ok", "access": "read", "items": {"1": {"type": "timer", "one": "2"}, "2": {"type": "end"}, "3": {"type": "end"}}}`,
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			doc := mustParse(t, src)
			require.True(t, Validate(doc).Valid())
			fixed, _ := Correct(doc)
			assert.True(t, Validate(fixed).Valid())
		})
	}
}

func TestCorrectNeverAddsErrors(t *testing.T) {
	inputs := []string{
		`{"name": 5, "access": "write", "items": {"1": {"type": "warp"}, "2": {"type": "end", "one": "9"}}}`,
		`{"name": "x", "access": "root", "items": [{"type": "branch", "branchId": "a"}, 7]}`,
		`{"items": {"1": {"type": "question", "flag1": "yes", "one": 2}}}`,
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			doc := mustParse(t, src)
			before := Validate(doc)
			fixed, _ := Correct(doc)
			after := Validate(fixed)
			assert.LessOrEqual(t, len(after.Errors), len(before.Errors))
		})
	}
}
