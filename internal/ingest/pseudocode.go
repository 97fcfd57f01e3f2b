package ingest

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"drakonflow/internal/graph"
)

const unknownMeta = "Unknown"

var (
	taggedLine = regexp.MustCompile(`\[(\w+)\]\s+(ACTION|QUESTION|STATE)\s+"([^"]+)"`)
	metaLine   = regexp.MustCompile(`^\s*(TITLE|AUTHOR|DATE):\s*(.+)$`)
)

// Meta is the header information of a pseudocode file.
type Meta struct {
	Title  string
	Author string
	Date   string
}

type tagged struct {
	id    string
	kind  graph.Kind
	label string
}

// ParsePseudocode reads tagged pseudocode lines:
//
//	TITLE: Demo
//	[a1] ACTION "Load"
//	[q1] QUESTION "Valid?"
//	[s1] STATE "Waiting"
//
// and returns the chain branch, START, one node per tagged line, end. name
// supplies the default title. Lines in any other form are ignored.
func ParsePseudocode(name string, r io.Reader) (*graph.Diagram, Meta, error) {
	meta := Meta{
		Title:  strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
		Author: unknownMeta,
		Date:   unknownMeta,
	}
	seen := map[string]bool{}

	var lines []tagged
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m := metaLine.FindStringSubmatch(line); m != nil {
			value := strings.TrimSpace(m[2])
			switch {
			case m[1] == "TITLE" && !seen["TITLE"]:
				meta.Title = value
			case m[1] == "AUTHOR" && !seen["AUTHOR"]:
				meta.Author = value
			case m[1] == "DATE" && !seen["DATE"]:
				meta.Date = value
			}
			seen[m[1]] = true
			continue
		}
		m := taggedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind := graph.KindAction
		if m[2] == "QUESTION" {
			kind = graph.KindQuestion
		}
		lines = append(lines, tagged{id: m[1], kind: kind, label: m[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, meta, fmt.Errorf("failed to read pseudocode %s: %w", name, err)
	}

	ids := newIDSet()
	for i := range lines {
		lines[i].id = ids.claim(lines[i].id)
	}

	nodes := []graph.Node{
		{ID: ids.claim("branch"), Kind: graph.KindBranch, Label: meta.Title, Seq: graph.IntPtr(0)},
		{ID: ids.claim("start"), Kind: graph.KindAction, Label: "START"},
	}
	for _, t := range lines {
		nodes = append(nodes, graph.Node{ID: t.id, Kind: t.kind, Label: t.label})
	}
	nodes = append(nodes, graph.Node{ID: ids.claim("end"), Kind: graph.KindEnd})

	d := graph.Chain(meta.Title, nodes...)
	d.Description = fmt.Sprintf("Author: %s, Date: %s", meta.Author, meta.Date)
	return d, meta, nil
}

type idSet map[string]bool

func newIDSet() idSet { return idSet{} }

// claim returns id, or id with the first free "_N" suffix when taken.
func (s idSet) claim(id string) string {
	candidate := id
	for n := 2; s[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	s[candidate] = true
	return candidate
}
