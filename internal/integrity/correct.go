package integrity

import (
	"encoding/json"
	"fmt"
	"strconv"

	"drakonflow/internal/graph"
)

const (
	DefaultName   = "Unnamed DRAKON Diagram"
	DefaultAccess = graph.AccessWrite
)

var coercedFields = []string{"content", "one", "two", "side"}

// Correct repairs the mechanically fixable defects of doc and returns the
// repaired copy plus one description per change. The input is not modified.
// Steps run in a fixed order and items are visited in natural key order, so
// the result is deterministic and Correct(Correct(d)) needs no changes.
func Correct(doc map[string]any) (map[string]any, []string) {
	return CorrectInOrder(doc, nil)
}

// CorrectInOrder is Correct with missing branch ids numbered in the given
// item order, usually ItemOrder of the source text. Keys absent from order
// follow in natural order.
func CorrectInOrder(doc map[string]any, order []string) (map[string]any, []string) {
	c := corrector{order: order}
	out, _ := deepCopy(doc).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}

	c.fillRequired(out)
	items := c.normalizeItems(out)
	c.stringifyStyles(out, items)
	c.defaultTypes(items)
	c.assignBranchIDs(items)
	c.coerceStrings(items)
	endID := c.ensureEnd(items)
	c.ensureBranch(items, endID)

	out["items"] = items
	return out, c.corrections
}

type corrector struct {
	order       []string
	corrections []string
}

func (c *corrector) notef(format string, args ...any) {
	c.corrections = append(c.corrections, fmt.Sprintf(format, args...))
}

func (c *corrector) fillRequired(doc map[string]any) {
	if _, ok := doc["name"]; !ok {
		doc["name"] = DefaultName
		c.notef("added missing field 'name'")
	}
	if _, ok := doc["access"]; !ok {
		doc["access"] = string(DefaultAccess)
		c.notef("added missing field 'access'")
	}
	if _, ok := doc["items"]; !ok {
		doc["items"] = map[string]any{}
		c.notef("added missing field 'items'")
	}
}

// normalizeItems converts a list to a dictionary keyed "1".."n". Entries
// that are not objects become actions holding their text, so references to
// them keep resolving.
func (c *corrector) normalizeItems(doc map[string]any) map[string]any {
	var items map[string]any
	switch raw := doc["items"].(type) {
	case map[string]any:
		items = raw
	case []any:
		items = make(map[string]any, len(raw))
		for i, item := range raw {
			items[strconv.Itoa(i+1)] = item
		}
		c.notef("converted 'items' from a list to a dictionary")
	default:
		items = map[string]any{}
		c.notef("replaced non-dictionary 'items' with an empty dictionary")
	}

	for _, id := range sortedKeys(items) {
		switch v := items[id].(type) {
		case map[string]any:
		case nil:
			items[id] = map[string]any{}
			c.notef("replaced null item %s with an empty item", id)
		default:
			items[id] = map[string]any{"content": stringify(v)}
			c.notef("wrapped non-object item %s as an item with content", id)
		}
	}
	return items
}

func (c *corrector) stringifyStyles(doc, items map[string]any) {
	if style, ok := doc["style"].(map[string]any); ok {
		doc["style"] = marshalStyle(style)
		c.notef("converted 'style' from an object to a JSON string")
	}
	for _, id := range sortedKeys(items) {
		item := items[id].(map[string]any)
		if style, ok := item["style"].(map[string]any); ok {
			item["style"] = marshalStyle(style)
			c.notef("converted 'style' to a JSON string for item %s", id)
		}
	}
}

func marshalStyle(style map[string]any) string {
	data, err := json.Marshal(style)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (c *corrector) defaultTypes(items map[string]any) {
	for _, id := range sortedKeys(items) {
		item := items[id].(map[string]any)
		if _, ok := item["type"]; !ok {
			item["type"] = string(graph.KindAction)
			c.notef("added missing 'type' for item %s", id)
		}
	}
}

// assignBranchIDs gives each branch without a branchId the next counter value
// not already used by another branch, walking items in document order.
func (c *corrector) assignBranchIDs(items map[string]any) {
	used := make(map[int]bool)
	for _, item := range items {
		it := item.(map[string]any)
		if itemType(it) != string(graph.KindBranch) {
			continue
		}
		if n, ok := AsInt(it["branchId"]); ok {
			used[n] = true
		}
	}

	next := 0
	for _, id := range orderedKeys(items, c.order) {
		item := items[id].(map[string]any)
		if itemType(item) != string(graph.KindBranch) {
			continue
		}
		if _, ok := item["branchId"]; ok {
			continue
		}
		for used[next] {
			next++
		}
		item["branchId"] = next
		used[next] = true
		c.notef("added 'branchId' %d for branch item %s", next, id)
	}
}

func (c *corrector) coerceStrings(items map[string]any) {
	for _, id := range sortedKeys(items) {
		item := items[id].(map[string]any)
		for _, field := range coercedFields {
			v, ok := item[field]
			if !ok {
				continue
			}
			switch v.(type) {
			case string:
			case nil:
				delete(item, field)
				c.notef("removed null '%s' from item %s", field, id)
			default:
				item[field] = stringify(v)
				c.notef("converted '%s' to a string for item %s", field, id)
			}
		}
	}
}

// ensureEnd returns the ID of the first end item, adding one when none exists.
func (c *corrector) ensureEnd(items map[string]any) string {
	for _, id := range sortedKeys(items) {
		if itemType(items[id].(map[string]any)) == string(graph.KindEnd) {
			return id
		}
	}
	id := freshID(items)
	items[id] = map[string]any{"type": string(graph.KindEnd)}
	c.notef("added missing 'end' item %s", id)
	return id
}

func (c *corrector) ensureBranch(items map[string]any, endID string) {
	keys := sortedKeys(items)
	for _, id := range keys {
		if itemType(items[id].(map[string]any)) == string(graph.KindBranch) {
			return
		}
	}
	first := endID
	for _, id := range keys {
		if itemType(items[id].(map[string]any)) != string(graph.KindEnd) {
			first = id
			break
		}
	}
	id := freshID(items)
	items[id] = map[string]any{
		"type":     string(graph.KindBranch),
		"branchId": 0,
		"one":      first,
	}
	c.notef("added missing 'branch' item %s", id)
}

func freshID(items map[string]any) string {
	n := len(items) + 1
	for {
		id := strconv.Itoa(n)
		if _, taken := items[id]; !taken {
			return id
		}
		n++
	}
}
