// Package ingest turns source text into DRAKON diagrams: a keyword line
// scanner for program code and a parser for tagged pseudocode files.
package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"drakonflow/internal/graph"
)

// MaxConditionRunes bounds the condition text copied into a node label.
const MaxConditionRunes = 50

// Rule maps one kind of source line to a node.
//
// Template placeholders: {cond} is the first parenthesised group of the line
// (or the text after the keyword), {rest} is the text after the match, and
// {1}..{9} are the regexp submatches. Trailing ';', '{' and ':' are trimmed
// from every substitution.
type Rule struct {
	Name     string
	Match    *regexp.Regexp
	Kind     graph.Kind
	Template string
	// Skip consumes the line without producing a node.
	Skip bool
	// SkipEmpty consumes the line without a node when every placeholder in
	// Template resolves to empty text.
	SkipEmpty bool
}

// RuleSpec is the configuration form of a Rule.
type RuleSpec struct {
	Name      string `yaml:"name" json:"name" validate:"required"`
	Pattern   string `yaml:"pattern" json:"pattern" validate:"required"`
	Kind      string `yaml:"kind" json:"kind"`
	Template  string `yaml:"template" json:"template"`
	Skip      bool   `yaml:"skip" json:"skip"`
	SkipEmpty bool   `yaml:"skip_empty" json:"skip_empty"`
}

// Compile turns a RuleSpec into a Rule. An empty kind means action.
func (s RuleSpec) Compile() (Rule, error) {
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to compile rule %q: %w", s.Name, err)
	}
	kind := graph.KindAction
	if s.Kind != "" {
		kind, err = graph.ParseKind(s.Kind)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q: %w", s.Name, err)
		}
	}
	return Rule{
		Name:      s.Name,
		Match:     re,
		Kind:      kind,
		Template:  s.Template,
		Skip:      s.Skip,
		SkipEmpty: s.SkipEmpty,
	}, nil
}

// Dialect is the ordered rule table of the code-flow extractor plus the
// header patterns BraceLocator uses to find functions. The first matching
// rule wins.
type Dialect struct {
	Rules []Rule
	// Functions must each carry a named group "name".
	Functions []*regexp.Regexp
	// Keywords are never accepted as function names.
	Keywords []string
}

// DefaultDialect recognises the control-flow lines of C-family languages,
// Go and Python.
func DefaultDialect() *Dialect {
	return &Dialect{
		Rules: []Rule{
			{Name: "comment", Match: regexp.MustCompile(`^(//|/\*|\*|#)`), Skip: true},
			{Name: "try", Match: regexp.MustCompile(`^try\b`), Kind: graph.KindAction, Template: "TRY: error handling"},
			{Name: "catch", Match: regexp.MustCompile(`^(?:catch|except)\b\s*(?:\(\s*(\w+))?`), Kind: graph.KindAction, Template: "CATCH: handle {1}"},
			{Name: "if", Match: regexp.MustCompile(`^if\b`), Kind: graph.KindQuestion, Template: "{cond}"},
			{Name: "else-if", Match: regexp.MustCompile(`^(?:else\s+if|elif)\b`), Kind: graph.KindQuestion, Template: "{cond}"},
			{Name: "else", Match: regexp.MustCompile(`^else\b`), Kind: graph.KindAction, Template: "ELSE"},
			{Name: "loop", Match: regexp.MustCompile(`^(?:for|while)\b`), Kind: graph.KindAction, Template: "LOOP: {cond}"},
			{Name: "switch", Match: regexp.MustCompile(`^(?:switch|match)\b`), Kind: graph.KindAction, Template: "SWITCH: {cond}"},
			{Name: "case", Match: regexp.MustCompile(`^case\b`), Kind: graph.KindAction, Template: "CASE: {rest}"},
			{Name: "return", Match: regexp.MustCompile(`\breturn\b`), Kind: graph.KindAction, Template: "RETURN: {rest}", SkipEmpty: true},
			{Name: "throw", Match: regexp.MustCompile(`\b(?:throw|raise|panic)\b`), Kind: graph.KindAction, Template: "THROW: {rest}"},
			{Name: "await", Match: regexp.MustCompile(`\bawait\b`), Kind: graph.KindAction, Template: "AWAIT: {rest}"},
			{Name: "assignment", Match: regexp.MustCompile(`^(?:(?:const|let|var)\s+)?([\w.\[\], ]+?)\s*(?::=|[-+*/%]?=)(?:[^=]|$)`), Kind: graph.KindAction, Template: "SET: {1}"},
			{Name: "call", Match: regexp.MustCompile(`([\w.]+)\s*\(.*\)`), Kind: graph.KindAction, Template: "CALL: {1}()"},
		},
		Functions: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(?P<name>\w+)\s*\(`),
			regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(?P<name>\w+)\s*=\s*(?:async\s+)?(?:\([^)]*\)|\w+)\s*(?::\s*[^=]+)?=>`),
			regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?(?P<name>\w+)\s*[\[(]`),
			regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|override|readonly)\s+)*(?P<name>\w+)\s*\([^)]*\)\s*(?::\s*[^{]+)?\{`),
		},
		Keywords: []string{"if", "for", "while", "switch", "catch", "else", "return", "function"},
	}
}

// WithRules returns a copy of d with rules tried before its own.
func (d *Dialect) WithRules(rules ...Rule) *Dialect {
	out := *d
	out.Rules = append(append([]Rule(nil), rules...), d.Rules...)
	return &out
}

func (d *Dialect) isKeyword(name string) bool {
	for _, k := range d.Keywords {
		if k == name {
			return true
		}
	}
	return false
}

// Classify returns the node produced for one source line. ok is false when
// the line is skipped or matches no rule.
func (d *Dialect) Classify(line string) (node graph.Node, ok bool) {
	text := normalizeLine(line)
	if text == "" {
		return graph.Node{}, false
	}
	for _, r := range d.Rules {
		loc := r.Match.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if r.Skip {
			return graph.Node{}, false
		}
		label, empty := r.expand(text, loc)
		if r.SkipEmpty && empty {
			return graph.Node{}, false
		}
		return graph.Node{Kind: r.Kind, Label: label}, true
	}
	return graph.Node{}, false
}

// expand fills the template. empty reports whether every placeholder
// resolved to nothing.
func (r Rule) expand(text string, loc []int) (string, bool) {
	values := map[string]string{
		"{cond}": Condition(text),
		"{rest}": cleanFragment(text[loc[1]:]),
	}
	for i := 1; i <= 9 && 2*i+1 < len(loc); i++ {
		v := ""
		if loc[2*i] >= 0 {
			v = cleanFragment(text[loc[2*i]:loc[2*i+1]])
		}
		values[fmt.Sprintf("{%d}", i)] = v
	}

	empty := true
	pairs := make([]string, 0, 2*len(values))
	for k, v := range values {
		if strings.Contains(r.Template, k) && v != "" {
			empty = false
		}
		pairs = append(pairs, k, v)
	}
	if !strings.Contains(r.Template, "{") {
		empty = false
	}
	label := strings.NewReplacer(pairs...).Replace(r.Template)
	return strings.TrimSpace(label), empty
}

// normalizeLine trims the line and drops leading closing braces so that
// "} else {" reads as "else {".
func normalizeLine(line string) string {
	text := strings.TrimSpace(line)
	text = strings.TrimLeft(text, "} \t")
	return strings.TrimSpace(text)
}

func cleanFragment(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ";{:"))
}

// Condition extracts the first parenthesised group of line, or the text
// after its leading keyword, truncated to MaxConditionRunes.
func Condition(line string) string {
	var cond string
	if open := strings.Index(line, "("); open >= 0 {
		if end := matchingParen(line, open); end > open {
			cond = strings.TrimSpace(line[open+1 : end])
		}
	}
	if cond == "" {
		fields := strings.Fields(normalizeLine(line))
		if len(fields) > 1 {
			start := 1
			if fields[0] == "else" && len(fields) > 2 && fields[1] == "if" {
				start = 2
			}
			cond = cleanFragment(strings.Join(fields[start:], " "))
		}
	}
	if cond == "" {
		return "condition"
	}
	return Truncate(cond, MaxConditionRunes)
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Truncate shortens s to max runes, ending in "..." when cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
