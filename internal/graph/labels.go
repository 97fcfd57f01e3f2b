package graph

import "strings"

// LabelSet holds the edge labels that mark the two exits of a question and
// the marks that flag a loop-closing edge.
type LabelSet struct {
	Yes      []string `yaml:"yes" json:"yes"`
	No       []string `yaml:"no" json:"no"`
	Backward []string `yaml:"backward" json:"backward"`
}

// DefaultLabels is used by the Edge helper methods.
var DefaultLabels = LabelSet{
	Yes:      []string{"yes", "y", "+", "да", "так", "true"},
	No:       []string{"no", "n", "-", "нет", "но", "ні", "false"},
	Backward: []string{"loop", "↑"},
}

func (s LabelSet) IsYes(label string) bool { return matchAny(s.Yes, label) }

func (s LabelSet) IsNo(label string) bool { return matchAny(s.No, label) }

// IsBackward matches by substring, so "loop back" counts.
func (s LabelSet) IsBackward(label string) bool {
	l := strings.ToLower(label)
	for _, mark := range s.Backward {
		if mark != "" && strings.Contains(l, strings.ToLower(mark)) {
			return true
		}
	}
	return false
}

// IsZero reports whether s carries no labels at all.
func (s LabelSet) IsZero() bool {
	return len(s.Yes) == 0 && len(s.No) == 0 && len(s.Backward) == 0
}

// OrDefault returns DefaultLabels when s is zero, and s otherwise.
func (s LabelSet) OrDefault() LabelSet {
	if s.IsZero() {
		return DefaultLabels
	}
	return s
}

// YesLabel is the label written on a decoded affirmative exit.
func (s LabelSet) YesLabel() string { return firstOr(s.OrDefault().Yes, "yes") }

// NoLabel is the label written on a decoded negative exit.
func (s LabelSet) NoLabel() string { return firstOr(s.OrDefault().No, "no") }

func firstOr(set []string, def string) string {
	if len(set) > 0 && set[0] != "" {
		return set[0]
	}
	return def
}

// Merge returns s with the non-empty lists of other replacing its own.
func (s LabelSet) Merge(other LabelSet) LabelSet {
	if len(other.Yes) > 0 {
		s.Yes = other.Yes
	}
	if len(other.No) > 0 {
		s.No = other.No
	}
	if len(other.Backward) > 0 {
		s.Backward = other.Backward
	}
	return s
}

func matchAny(set []string, label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return false
	}
	for _, v := range set {
		if strings.ToLower(v) == l {
			return true
		}
	}
	return false
}
