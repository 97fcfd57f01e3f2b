package ingest

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drakonflow/internal/graph"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line  string
		kind  graph.Kind
		label string
	}{
		{"if (user.age >= 18) {", graph.KindQuestion, "user.age >= 18"},
		{"} else if (x > 1) {", graph.KindQuestion, "x > 1"},
		{"} else {", graph.KindAction, "ELSE"},
		{"for (const item of items) {", graph.KindAction, "LOOP: const item of items"},
		{"while (running) {", graph.KindAction, "LOOP: running"},
		{"switch (action.type) {", graph.KindAction, "SWITCH: action.type"},
		{`case "add":`, graph.KindAction, `CASE: "add"`},
		{"try {", graph.KindAction, "TRY: error handling"},
		{"} catch (err) {", graph.KindAction, "CATCH: handle err"},
		{"return result;", graph.KindAction, "RETURN: result"},
		{`throw new Error("boom");`, graph.KindAction, `THROW: new Error("boom")`},
		{"const user = await repo.find(id);", graph.KindAction, "AWAIT: repo.find(id)"},
		{"count += 1;", graph.KindAction, "SET: count"},
		{"x := compute()", graph.KindAction, "SET: x"},
		{"fmt.Println(x)", graph.KindAction, "CALL: fmt.Println()"},
		{"if err != nil {", graph.KindQuestion, "err != nil"},
		{"elif ready:", graph.KindQuestion, "ready"},
	}
	d := DefaultDialect()
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			n, ok := d.Classify(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.label, n.Label)
		})
	}
}

func TestClassifySkips(t *testing.T) {
	d := DefaultDialect()
	for _, line := range []string{"", "   ", "}", "// note", "/* block", "# python", "return;", "return", "});"} {
		_, ok := d.Classify(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestConditionTruncation(t *testing.T) {
	cond := Condition("if (" + strings.Repeat("a", 60) + ") {")
	assert.Equal(t, 50, utf8.RuneCountInString(cond))
	assert.True(t, strings.HasSuffix(cond, "..."))
	assert.Equal(t, strings.Repeat("a", 47)+"...", cond)

	cond = Condition("if (" + strings.Repeat("ж", 55) + ")")
	assert.Equal(t, 50, utf8.RuneCountInString(cond))

	assert.Equal(t, "condition", Condition("else"))
	assert.Equal(t, "a(b) && c", Condition("if (a(b) && c) {"))
}

func TestCustomRules(t *testing.T) {
	rule, err := RuleSpec{Name: "log", Pattern: `^log\.`, Kind: "comment", Template: "LOG: {rest}"}.Compile()
	require.NoError(t, err)

	d := DefaultDialect().WithRules(rule)
	n, ok := d.Classify("log.Info(x)")
	require.True(t, ok)
	assert.Equal(t, graph.KindComment, n.Kind)
	assert.Equal(t, "LOG: Info(x)", n.Label)

	n, ok = DefaultDialect().Classify("log.Info(x)")
	require.True(t, ok)
	assert.Equal(t, "CALL: log.Info()", n.Label)

	_, err = RuleSpec{Name: "bad", Pattern: "("}.Compile()
	assert.Error(t, err)

	_, err = RuleSpec{Name: "bad", Pattern: "x", Kind: "timer"}.Compile()
	assert.True(t, errors.Is(err, graph.ErrUnknownKind))
}
