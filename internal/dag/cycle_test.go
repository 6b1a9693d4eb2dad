package dag

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairs(ps ...string) []Edge {
	out := make([]Edge, 0, len(ps)/2)
	for i := 0; i+1 < len(ps); i += 2 {
		out = append(out, Edge{Source: ps[i], Target: ps[i+1]})
	}
	return out
}

func TestBuild(t *testing.T) {
	g := Build(
		[]Node{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"}},
		pairs("a", "b", "a", "b", "b", "zzz", "c", "a"),
	)

	assert.Equal(t, []string{"a", "b", "c"}, g.IDs())
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"b", "b"}, g.Successors("a"))
	assert.Empty(t, g.Successors("b"))
	assert.Equal(t, 1, g.InDegree("a"))
	assert.Equal(t, 2, g.InDegree("b"))
	assert.Equal(t, 0, g.InDegree("c"))
	assert.False(t, g.Has("zzz"))
}

func TestReduce(t *testing.T) {
	t.Run("orders a diamond", func(t *testing.T) {
		//   a
		//  / \
		// b   c
		//  \ /
		//   d
		g := Build([]Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
			pairs("a", "b", "a", "c", "b", "d", "c", "d"))
		red := Reduce(g)
		assert.True(t, red.Acyclic())
		assert.Equal(t, []string{"a", "b", "c", "d"}, red.Visited)
		assert.Empty(t, red.Remaining)
		assert.Equal(t, 2, g.InDegree("d"), "graph must not be mutated")
	})

	t.Run("leaves cycle and downstream nodes", func(t *testing.T) {
		g := Build([]Node{{ID: "r"}, {ID: "a"}, {ID: "b"}, {ID: "tail"}},
			pairs("r", "a", "a", "b", "b", "a", "b", "tail"))
		red := Reduce(g)
		assert.False(t, red.Acyclic())
		assert.Equal(t, []string{"r"}, red.Visited)
		assert.Equal(t, []string{"a", "b", "tail"}, red.Remaining)
	})
}

func TestPruneAcyclic(t *testing.T) {
	t.Run("strips downstream chain", func(t *testing.T) {
		got := pruneAcyclic([]string{"a", "b", "c", "d", "e"},
			pairs("a", "b", "b", "a", "b", "c", "c", "d", "d", "e"))
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("keeps self loop", func(t *testing.T) {
		got := pruneAcyclic([]string{"x", "y"}, pairs("x", "x", "x", "y"))
		assert.Equal(t, []string{"x"}, got)
	})

	t.Run("keeps bridge between two cycles", func(t *testing.T) {
		// a<->b -> m -> c<->d : m is on no cycle, but it always has an
		// incoming and an outgoing edge, so the degree rule keeps it.
		got := pruneAcyclic([]string{"a", "b", "m", "c", "d"},
			pairs("a", "b", "b", "a", "b", "m", "m", "c", "c", "d", "d", "c"))
		assert.Equal(t, []string{"a", "b", "m", "c", "d"}, got)
	})

	t.Run("ignores edges leaving the set", func(t *testing.T) {
		got := pruneAcyclic([]string{"a", "b"}, pairs("a", "b", "b", "outside", "outside", "a"))
		assert.Empty(t, got)
	})

	t.Run("long tail is peeled", func(t *testing.T) {
		ids := []string{"a", "b"}
		es := pairs("a", "b", "b", "a")
		prev := "b"
		for i := 0; i < 1000; i++ {
			id := fmt.Sprintf("t%d", i)
			ids = append(ids, id)
			es = append(es, Edge{Source: prev, Target: id})
			prev = id
		}
		assert.Equal(t, []string{"a", "b"}, pruneAcyclic(ids, es))
	})
}

func TestFindCycle(t *testing.T) {
	t.Run("back edge path runs from ancestor to closing node", func(t *testing.T) {
		adj := map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"a"}}
		assert.Equal(t, []string{"a", "b", "c"}, findCycle(adj, []string{"a", "b", "c"}))
	})

	t.Run("root order picks the start", func(t *testing.T) {
		adj := map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"a"}}
		assert.Equal(t, []string{"c", "a", "b"}, findCycle(adj, []string{"c", "a", "b"}))
	})

	t.Run("cycle below the root excludes the root", func(t *testing.T) {
		adj := map[string][]string{"r": {"x"}, "x": {"y"}, "y": {"x"}}
		assert.Equal(t, []string{"x", "y"}, findCycle(adj, []string{"r", "x", "y"}))
	})

	t.Run("cycle closes deep in the first branch", func(t *testing.T) {
		// a -> b -> d -> c -> b closes while b is still on the path;
		// a's second edge a -> c is never reached.
		adj := map[string][]string{"a": {"b", "c"}, "c": {"b"}, "b": {"d"}, "d": {"c"}}
		assert.Equal(t, []string{"b", "d", "c"}, findCycle(adj, []string{"a", "b", "c", "d"}))
	})

	t.Run("self loop", func(t *testing.T) {
		adj := map[string][]string{"a": {"a"}}
		assert.Equal(t, []string{"a"}, findCycle(adj, []string{"a"}))
	})

	// An acyclic set handed to the DFS yields an empty path while the caller
	// still holds the nodes: the inconsistency is visible, not hidden.
	t.Run("acyclic subgraph yields empty path", func(t *testing.T) {
		adj := map[string][]string{"a": {"b"}, "b": {"c"}}
		path := findCycle(adj, []string{"a", "b", "c"})
		require.NotNil(t, path)
		assert.Empty(t, path)
	})
}

func TestExtractCycle(t *testing.T) {
	es := pairs("a", "b", "b", "c", "c", "a", "c", "tail", "ghost", "a")
	info := ExtractCycle([]string{"a", "b", "c", "tail"}, es)

	require.NotNil(t, info)
	assert.Equal(t, []string{"a", "b", "c"}, info.CyclePath)
	assert.Equal(t, []string{"a", "b", "c"}, info.CycleNodeIDs)
	assert.Equal(t, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, info.CycleEdges)
}
