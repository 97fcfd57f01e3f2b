package integrity

import (
	"encoding/json"
	"sort"

	"drakonflow/internal/graph"
)

// widgetOnlyTypes are accepted in widget JSON but have no model kind.
var widgetOnlyTypes = []string{
	"header", "insertion", "parblock", "par", "timer", "pause", "duration",
	"shelf", "process", "input", "output", "ctrlstart", "ctrlend", "drakon-image",
}

// ItemTypes is the closed set of widget item types.
var ItemTypes = buildItemTypes()

func buildItemTypes() map[string]bool {
	types := make(map[string]bool)
	for _, k := range graph.Kinds {
		types[k.WireName()] = true
	}
	for _, t := range widgetOnlyTypes {
		types[t] = true
	}
	return types
}

var requiredFields = []string{"name", "access", "items"}

var referenceFields = []string{"one", "two", "side"}

// Validate checks a loosely typed widget document. It never mutates doc and
// reports every defect it finds in one pass.
func Validate(doc map[string]any) Report {
	var r Report
	validateTopLevel(doc, &r)

	items, ok := doc["items"].(map[string]any)
	if !ok {
		return r
	}
	if len(items) == 0 {
		r.errorf(CodeEmptyItems, "", "diagram contains no items")
		return r
	}

	keys := sortedKeys(items)
	validateItems(items, keys, &r)
	validateReferences(items, keys, &r)
	validateSemantics(items, keys, &r)
	return r
}

func validateTopLevel(doc map[string]any, r *Report) {
	for _, field := range requiredFields {
		if _, ok := doc[field]; !ok {
			r.errorf(CodeMissingField, "", "missing required field '%s'", field)
		}
	}
	if name, ok := doc["name"]; ok {
		if _, isString := name.(string); !isString {
			r.errorf(CodeWrongType, "", "field 'name' must be a string")
		}
	}
	if access, ok := doc["access"]; ok {
		if s, _ := access.(string); s != string(graph.AccessRead) && s != string(graph.AccessWrite) {
			r.errorf(CodeInvalidValue, "", "field 'access' must be 'read' or 'write'")
		}
	}
	if items, ok := doc["items"]; ok {
		if _, isMap := items.(map[string]any); !isMap {
			r.errorf(CodeWrongType, "", "field 'items' must be a dictionary")
		}
	}
	if style, ok := doc["style"]; ok {
		checkStyle(style, "", r)
	}
}

func validateItems(items map[string]any, keys []string, r *Report) {
	for _, id := range keys {
		item, ok := items[id].(map[string]any)
		if !ok {
			r.errorf(CodeWrongType, id, "item %s must be an object", id)
			continue
		}
		rawType, ok := item["type"]
		if !ok {
			r.errorf(CodeMissingField, id, "item %s has no 'type'", id)
			continue
		}
		typ, _ := rawType.(string)
		if !ItemTypes[typ] {
			r.errorf(CodeUnknownType, id, "unknown item type '%v' in %s", rawType, id)
		}

		switch typ {
		case string(graph.KindBranch):
			if v, ok := item["branchId"]; !ok {
				r.errorf(CodeMissingField, id, "branch item %s must have 'branchId'", id)
			} else if _, isInt := AsInt(v); !isInt {
				r.errorf(CodeWrongType, id, "branchId in %s must be an integer", id)
			}
		case string(graph.KindQuestion):
			if v, ok := item["flag1"]; ok {
				if _, isInt := AsInt(v); !isInt {
					r.errorf(CodeWrongType, id, "flag1 in %s must be an integer", id)
				}
			}
		}

		if v, ok := item["content"]; ok {
			if _, isString := v.(string); !isString {
				r.errorf(CodeWrongType, id, "content in %s must be a string", id)
			}
		}
		if v, ok := item["style"]; ok {
			checkStyle(v, id, r)
		}
	}
}

func checkStyle(v any, id string, r *Report) {
	where := "field 'style'"
	if id != "" {
		where = "style in " + id
	}
	s, ok := v.(string)
	if !ok {
		r.errorf(CodeWrongType, id, "%s must be a JSON string", where)
		return
	}
	if !json.Valid([]byte(s)) {
		r.errorf(CodeMalformedStyle, id, "%s contains invalid JSON", where)
	}
}

func validateReferences(items map[string]any, keys []string, r *Report) {
	for _, id := range keys {
		item, ok := items[id].(map[string]any)
		if !ok {
			continue
		}
		for _, field := range referenceFields {
			v, ok := item[field]
			if !ok {
				continue
			}
			ref, isString := v.(string)
			if _, exists := items[ref]; !isString || !exists {
				r.errorf(CodeDanglingReference, id, "item %s references missing item '%v' in '%s'", id, v, field)
			}
		}
	}
}

func validateSemantics(items map[string]any, keys []string, r *Report) {
	var ends int
	var branchIDs []int
	var branches int
	for _, id := range keys {
		item, ok := items[id].(map[string]any)
		if !ok {
			continue
		}
		switch itemType(item) {
		case string(graph.KindEnd):
			ends++
		case string(graph.KindBranch):
			branches++
			if n, ok := AsInt(item["branchId"]); ok {
				branchIDs = append(branchIDs, n)
			}
		}
	}

	switch {
	case ends == 0:
		r.errorf(CodeMissingEnd, "", "diagram must contain at least one 'end' item")
	case ends > 1:
		r.warnf(CodeMultipleEnd, "", "diagram contains %d 'end' items", ends)
	}

	if branches == 0 {
		r.warnf(CodeMissingBranch, "", "diagram contains no 'branch' items")
		return
	}
	checkBranchSequence(branchIDs, r)
}

// checkBranchSequence requires the sorted IDs to start at 0 and warns once on
// the first gap.
func checkBranchSequence(ids []int, r *Report) {
	if len(ids) == 0 {
		return
	}
	sort.Ints(ids)
	if ids[0] != 0 {
		r.errorf(CodeBranchSequence, "", "first branch must have branchId 0, got %d", ids[0])
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[i-1]+1 {
			r.warnf(CodeBranchGap, "", "branchId values are not contiguous: %d follows %d", ids[i], ids[i-1])
			return
		}
	}
}
