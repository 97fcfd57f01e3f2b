// Package widget reads and writes the keyed-dictionary JSON consumed by
// DrakonWidget and DrakonHub.
package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"drakonflow/internal/integrity"
)

// ErrUnrepresentable marks a diagram whose node has more exits than the
// one/two/side fields can carry.
var ErrUnrepresentable = errors.New("diagram cannot be represented in widget JSON")

// Document is a widget diagram. Items are keyed by string IDs; order is
// carried only by the one/two/side references.
type Document struct {
	Name   string           `json:"name"`
	Access string           `json:"access,omitempty"`
	Params Params           `json:"params,omitempty"`
	Style  string           `json:"style,omitempty"`
	Items  map[string]*Item `json:"items"`
}

type Item struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Link      string `json:"link,omitempty"`
	One       string `json:"one,omitempty"`
	Two       string `json:"two,omitempty"`
	Side      string `json:"side,omitempty"`
	Flag1     *int   `json:"flag1,omitempty"`
	BranchID  *int   `json:"branchId,omitempty"`
	Margin    *int   `json:"margin,omitempty"`
	Style     string `json:"style,omitempty"`
}

// Params is newline-joined parameter text. A JSON list of strings is also
// accepted on read.
type Params string

func (p *Params) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Params(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("params must be a string or a list of strings")
	}
	*p = Params(strings.Join(list, "\n"))
	return nil
}

// Marshal renders doc with two-space indentation.
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diagram %q: %w", doc.Name, err)
	}
	return append(data, '\n'), nil
}

// Loose returns doc in the untyped form the integrity engine works on.
func (doc *Document) Loose() (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diagram %q: %w", doc.Name, err)
	}
	return integrity.ParseDocument(data)
}

// Validate runs the integrity validator over doc.
func (doc *Document) Validate() (integrity.Report, error) {
	loose, err := doc.Loose()
	if err != nil {
		return integrity.Report{}, err
	}
	return integrity.Validate(loose), nil
}
