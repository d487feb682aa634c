package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyOf(sheet, id string) CellKey {
	return CellKey{Sheet: sheet, Cell: MustCellID(id)}
}

func TestDependencyGraph_NodeReuse(t *testing.T) {
	g := newDependencyGraph()
	a := g.node(keyOf("S", "A1"))
	assert.Equal(t, a, g.node(keyOf("S", "A1")))

	b := g.node(keyOf("S", "B1"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, g.nodeCount())

	require.True(t, g.release(a))
	_, ok := g.lookup(keyOf("S", "A1"))
	assert.False(t, ok)

	c := g.node(keyOf("S", "C1"))
	assert.Equal(t, a, c, "released IDs are reused")
	assert.Equal(t, keyOf("S", "C1"), g.key(c))
}

func TestDependencyGraph_ReleaseKeepsReferencedNodes(t *testing.T) {
	g := newDependencyGraph()
	a := g.node(keyOf("S", "A1"))
	b := g.node(keyOf("S", "B1"))
	g.setEdges(b, []int{a}, []string{"S"})

	assert.False(t, g.release(a), "read by B1")
	assert.False(t, g.release(b), "owns edges")

	g.clearEdges(b)
	assert.True(t, g.release(a))
	assert.True(t, g.release(b))
	assert.Equal(t, 0, g.nodeCount())
}

func TestDependencyGraph_SetEdgesReplaces(t *testing.T) {
	g := newDependencyGraph()
	a := g.node(keyOf("S", "A1"))
	b := g.node(keyOf("S", "B1"))
	c := g.node(keyOf("S", "C1"))

	g.setEdges(c, []int{a, b}, []string{"S", "Other"})
	assert.Equal(t, []int{a, b}, g.directPrecedents(c))
	assert.Equal(t, []int{c}, g.directDependents(a))
	assert.Equal(t, []int{c}, g.referencing("Other"))

	g.setEdges(c, []int{b}, []string{"S"})
	assert.Equal(t, []int{b}, g.directPrecedents(c))
	assert.Empty(t, g.directDependents(a))
	assert.Empty(t, g.referencing("Other"))
	assert.Equal(t, []int{c}, g.referencing("S"))
}

func TestDependencyGraph_ClosureFollowsDependents(t *testing.T) {
	g := newDependencyGraph()
	a := g.node(keyOf("S", "A1"))
	b := g.node(keyOf("S", "B1"))
	c := g.node(keyOf("S", "C1"))
	d := g.node(keyOf("S", "D1"))
	g.setEdges(b, []int{a}, nil)
	g.setEdges(c, []int{b}, nil)
	g.setEdges(d, []int{c}, nil)

	assert.Equal(t, []int{b, c, d}, g.sortedSet(g.closure([]int{b})))
	assert.Equal(t, []int{a, b, c, d}, g.sortedSet(g.closure([]int{a})))
}

func TestDependencyGraph_ComponentsTopological(t *testing.T) {
	g := newDependencyGraph()
	// D1 = B1 + C1, B1 = A1, C1 = A1
	a := g.node(keyOf("S", "A1"))
	b := g.node(keyOf("S", "B1"))
	c := g.node(keyOf("S", "C1"))
	d := g.node(keyOf("S", "D1"))
	g.setEdges(d, []int{b, c}, nil)
	g.setEdges(b, []int{a}, nil)
	g.setEdges(c, []int{a}, nil)

	comps := g.components(g.closure([]int{a}))
	require.Len(t, comps, 4)

	pos := make(map[int]int)
	for i, comp := range comps {
		require.Len(t, comp.nodes, 1)
		assert.False(t, comp.cyclic)
		pos[comp.nodes[0]] = i
	}
	assert.Less(t, pos[a], pos[b])
	assert.Less(t, pos[a], pos[c])
	assert.Less(t, pos[b], pos[d])
	assert.Less(t, pos[c], pos[d])
}

func TestDependencyGraph_ComponentsDetectCycles(t *testing.T) {
	g := newDependencyGraph()
	a := g.node(keyOf("S", "A1"))
	b := g.node(keyOf("S", "B1"))
	c := g.node(keyOf("S", "C1"))
	self := g.node(keyOf("S", "E1"))
	g.setEdges(a, []int{b}, nil)
	g.setEdges(b, []int{a}, nil)
	g.setEdges(c, []int{a}, nil)
	g.setEdges(self, []int{self}, nil)

	comps := g.components(g.closure([]int{a, self}))
	require.Len(t, comps, 3)

	byFirst := make(map[int]component)
	for _, comp := range comps {
		byFirst[comp.nodes[0]] = comp
	}
	assert.Equal(t, []int{a, b}, byFirst[a].nodes)
	assert.True(t, byFirst[a].cyclic)
	assert.False(t, byFirst[c].cyclic)
	assert.True(t, byFirst[self].cyclic)

	// The cycle is emitted before the cell that reads it.
	for i, comp := range comps {
		if comp.nodes[0] == c {
			for _, earlier := range comps[:i] {
				if earlier.nodes[0] == a {
					return
				}
			}
			t.Fatal("C1 emitted before the A1/B1 cycle")
		}
	}
}

func TestDependencyGraph_RenameSheet(t *testing.T) {
	g := newDependencyGraph()
	a := g.node(keyOf("Old", "A1"))
	b := g.node(keyOf("Other", "A1"))
	g.setEdges(b, []int{a}, []string{"Old"})

	g.renameSheet("Old", "New")

	id, ok := g.lookup(keyOf("New", "A1"))
	require.True(t, ok)
	assert.Equal(t, a, id)
	_, ok = g.lookup(keyOf("Old", "A1"))
	assert.False(t, ok)
	assert.Equal(t, []int{a}, g.sheetNodes("New"))
	assert.Equal(t, []int{b}, g.referencing("Old"), "formula text still names the old sheet")
}

func TestDependencyGraph_SortIDs(t *testing.T) {
	g := newDependencyGraph()
	ids := []int{
		g.node(keyOf("B", "A1")),
		g.node(keyOf("A", "B2")),
		g.node(keyOf("A", "C1")),
		g.node(keyOf("A", "A2")),
	}
	g.sortIDs(ids)

	var keys []string
	for _, id := range ids {
		keys = append(keys, g.key(id).String())
	}
	assert.Equal(t, []string{"A!C1", "A!A2", "A!B2", "B!A1"}, keys)
}
