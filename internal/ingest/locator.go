package ingest

import "strings"

// BraceLocator finds functions by matching header patterns line by line and
// counting braces to find the closing line. Headers must open their body on
// the same line; headers whose body never closes are dropped.
type BraceLocator struct {
	Dialect *Dialect
}

func (l *BraceLocator) Locate(_ string, src []byte) ([]Function, error) {
	dialect := l.Dialect
	if dialect == nil {
		dialect = DefaultDialect()
	}
	lines := strings.Split(string(src), "\n")

	var funcs []Function
	for i, line := range lines {
		name := dialect.functionName(line)
		if name == "" || !strings.Contains(line, "{") {
			continue
		}
		end, ok := closingLine(lines, i)
		if !ok {
			continue
		}
		funcs = append(funcs, Function{Name: name, Start: i + 1, End: end + 1})
	}
	return funcs, nil
}

func (d *Dialect) functionName(line string) string {
	for _, re := range d.Functions {
		idx := re.SubexpIndex("name")
		m := re.FindStringSubmatch(line)
		if m == nil || idx < 0 {
			continue
		}
		name := m[idx]
		if name == "" || d.isKeyword(name) {
			return ""
		}
		return name
	}
	return ""
}

// closingLine counts brace depth from start and returns the first line where
// depth is back to zero and the line holds a '}'.
func closingLine(lines []string, start int) (int, bool) {
	depth := 0
	for i := start; i < len(lines); i++ {
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		if depth == 0 && strings.Contains(lines[i], "}") {
			return i, true
		}
	}
	return 0, false
}
