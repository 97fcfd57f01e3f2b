package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"action", KindAction},
		{"Question", KindQuestion},
		{"loop_begin", KindLoopBegin},
		{"loopBegin", KindLoopBegin},
		{"loop-end", KindLoopEnd},
		{"for-loop", KindForLoop},
		{"foreach", KindForLoop},
		{"parameters", KindParams},
		{"params", KindParams},
		{" end ", KindEnd},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("timer")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestWireName(t *testing.T) {
	assert.Equal(t, "parameters", KindParams.WireName())
	assert.Equal(t, "loopbegin", KindLoopBegin.WireName())
	for _, k := range Kinds {
		parsed, err := ParseKind(k.WireName())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestUpsertKeepsPosition(t *testing.T) {
	d := New("demo")
	d.Upsert(Node{ID: "a", Kind: KindAction, Label: "first"})
	d.Upsert(Node{ID: "b", Kind: KindAction})
	d.Upsert(Node{ID: "a", Kind: KindComment, Label: "replaced"})

	nodes := d.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].ID)
	assert.Equal(t, KindComment, nodes[0].Kind)
	assert.Equal(t, "replaced", nodes[0].Label)
}

func TestEdgesAreNotDeduplicated(t *testing.T) {
	d := New("select")
	d.Upsert(Node{ID: "s", Kind: KindSelect})
	d.Upsert(Node{ID: "x", Kind: KindAction})
	d.Link("s", "x", "1")
	d.Link("s", "x", "2")
	d.Connect(Edge{Source: "s", Target: "x", Role: RoleSide})

	assert.Len(t, d.Outgoing("s"), 3)
	succ := d.Successors("s")
	require.Len(t, succ, 2)
	assert.Equal(t, "1", succ[0].Label)
	assert.Equal(t, "2", succ[1].Label)
}

func TestMissingNodeLookup(t *testing.T) {
	d := New("empty")
	_, ok := d.Node("ghost")
	assert.False(t, ok)
	assert.Empty(t, d.Outgoing("ghost"))
}

func TestEdgeFlags(t *testing.T) {
	assert.True(t, Edge{Label: "Yes"}.IsAffirmative())
	assert.True(t, Edge{Label: " да "}.IsAffirmative())
	assert.True(t, Edge{Label: "-"}.IsNegative())
	assert.False(t, Edge{Label: ""}.IsNegative())
	assert.True(t, Edge{Label: "loop back"}.IsBackward())
	assert.False(t, Edge{Label: "next"}.IsBackward())
}

func TestCloneIsIndependent(t *testing.T) {
	d := Chain("c",
		Node{ID: "b", Kind: KindBranch, Seq: IntPtr(0)},
		Node{ID: "e", Kind: KindEnd},
	)
	c := d.Clone()
	c.Upsert(Node{ID: "x", Kind: KindAction})
	c.Link("e", "x", "")
	n, _ := c.Node("b")
	*n.Seq = 5

	assert.Equal(t, 2, d.Len())
	assert.Len(t, d.Edges(), 1)
	orig, _ := d.Node("b")
	assert.Equal(t, 0, *orig.Seq)
}

func TestChain(t *testing.T) {
	d := Chain("c",
		Node{ID: "1", Kind: KindBranch},
		Node{ID: "2", Kind: KindAction},
		Node{ID: "3", Kind: KindEnd},
	)
	edges := d.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, Edge{Source: "1", Target: "2", Role: RoleMain}, edges[0])
	assert.Equal(t, Edge{Source: "2", Target: "3", Role: RoleMain}, edges[1])
}

func TestSortIDs(t *testing.T) {
	ids := []string{"10", "b", "2", "a", "1"}
	SortIDs(ids)
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, ids)
}

func TestQuestionExits(t *testing.T) {
	d := New("q")
	for _, id := range []string{"q", "a", "b"} {
		d.Upsert(Node{ID: id, Kind: KindAction})
	}
	d.Link("q", "a", "")
	d.Link("q", "b", "no")

	yes, no := d.QuestionExits("q", LabelSet{})
	require.Len(t, yes, 1)
	require.Len(t, no, 1)
	assert.Equal(t, "a", yes[0].Target)
	assert.Equal(t, "b", no[0].Target)

	custom := New("q")
	for _, id := range []string{"q", "a", "b"} {
		custom.Upsert(Node{ID: id, Kind: KindAction})
	}
	custom.Link("q", "b", "nein")
	custom.Link("q", "a", "ok")
	labels := LabelSet{Yes: []string{"ok"}, No: []string{"nein"}}

	yes, no = custom.QuestionExits("q", labels)
	require.Len(t, yes, 1)
	require.Len(t, no, 1)
	assert.Equal(t, "a", yes[0].Target)
	assert.Equal(t, "b", no[0].Target)

	yes, no = custom.QuestionExits("q", LabelSet{})
	assert.Empty(t, yes, "labels outside the set are ignored")
	assert.Empty(t, no)

	assert.Equal(t, "ok", labels.YesLabel())
	assert.Equal(t, "nein", labels.NoLabel())
	assert.Equal(t, "yes", LabelSet{}.YesLabel())
}
