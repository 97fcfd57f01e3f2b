package graph

import (
	"fmt"
	"strings"
)

// Kind is a DRAKON icon type. The set is closed: ParseKind rejects anything
// outside it.
type Kind string

const (
	KindAction    Kind = "action"
	KindQuestion  Kind = "question"
	KindSelect    Kind = "select"
	KindCase      Kind = "case"
	KindForLoop   Kind = "foreach"
	KindLoopBegin Kind = "loopbegin"
	KindLoopEnd   Kind = "loopend"
	KindBranch    Kind = "branch"
	KindAddress   Kind = "address"
	KindStart     Kind = "start"
	KindEnd       Kind = "end"
	KindParams    Kind = "params"
	KindComment   Kind = "comment"
)

// Kinds lists the vocabulary in a stable order.
var Kinds = []Kind{
	KindAction, KindQuestion, KindSelect, KindCase, KindForLoop,
	KindLoopBegin, KindLoopEnd, KindBranch, KindAddress, KindStart,
	KindEnd, KindParams, KindComment,
}

var kindAliases = map[string]Kind{
	"forloop":    KindForLoop,
	"for":        KindForLoop,
	"parameters": KindParams,
}

// ParseKind resolves a type name case-insensitively, ignoring '-' and '_'
// separators, so "loop_begin", "loopBegin" and "for-loop" all resolve.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "").Replace(norm)
	for _, k := range Kinds {
		if string(k) == norm {
			return k, nil
		}
	}
	if k, ok := kindAliases[norm]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Valid reports whether k belongs to the vocabulary.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// WireName is the type string used by the widget JSON and .drn formats.
func (k Kind) WireName() string {
	if k == KindParams {
		return "parameters"
	}
	return string(k)
}

// IsControlFlow reports whether the renderer lets the icon manage its own
// continuation instead of following every successor.
func (k Kind) IsControlFlow() bool {
	switch k {
	case KindQuestion, KindSelect, KindLoopBegin, KindForLoop, KindBranch, KindAddress:
		return true
	}
	return false
}

// Node is one icon of a diagram. Nodes carry no geometry; X is only a
// horizontal ordering hint for silhouette branches.
type Node struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Label     string `json:"label,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Seq       *int   `json:"seq,omitempty"`
	X         *int   `json:"x,omitempty"`
}

// EdgeRole separates flow edges from companion references.
type EdgeRole string

const (
	RoleMain EdgeRole = "main"
	RoleSide EdgeRole = "side" // duration/timer companion, never traversed
)

// Edge is a directed connection between two nodes.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Label  string   `json:"label,omitempty"`
	Role   EdgeRole `json:"role,omitempty"`
}

// IsAffirmative reports whether the label is in the default yes-set.
func (e Edge) IsAffirmative() bool { return DefaultLabels.IsYes(e.Label) }

// IsNegative reports whether the label is in the default no-set.
func (e Edge) IsNegative() bool { return DefaultLabels.IsNo(e.Label) }

// IsBackward reports whether the edge closes a loop.
func (e Edge) IsBackward() bool { return DefaultLabels.IsBackward(e.Label) }

// IsSide reports whether the edge is a companion reference.
func (e Edge) IsSide() bool { return e.Role == RoleSide }

// Access is the diagram's edit mode.
type Access string

const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

// IntPtr is a convenience for the optional integer fields.
func IntPtr(v int) *int { return &v }
