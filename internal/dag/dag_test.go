package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds a linear graph where every stage depends on the previous one.
func chain(t *testing.T, ids ...string) *Graph {
	t.Helper()
	g := New()
	for i, id := range ids {
		g.AddNode(id)
		if i > 0 {
			require.NoError(t, g.AddEdge(ids[i-1], id))
		}
	}
	return g
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("load_raw")
	assert.Len(t, g.nodes, 1)
	raw, ok := g.nodes["load_raw"]
	require.True(t, ok)
	assert.Equal(t, "load_raw", raw.id)
	assert.Equal(t, 0, raw.seq)

	g.AddNode("load_raw") // idempotent, keeps original position
	assert.Len(t, g.nodes, 1)

	g.AddNode("staging")
	assert.Len(t, g.nodes, 2)
	assert.Equal(t, 1, g.nodes["staging"].seq)
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("staging")
		g.AddNode("marts")

		require.NoError(t, g.AddEdge("staging", "marts"))

		assert.Contains(t, g.nodes["staging"].dependents, "marts")
		assert.Contains(t, g.nodes["marts"].deps, "staging")
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("staging")

		assert.ErrorContains(t, g.AddEdge("dne", "staging"), "source node not found")
		assert.ErrorContains(t, g.AddEdge("staging", "dne"), "destination node not found")
		assert.ErrorContains(t, g.AddEdge("staging", "staging"), "self-referential edge")
	})
}

func TestDependencies(t *testing.T) {
	g := chain(t, "load_raw", "staging", "intermediate")

	deps, err := g.Dependencies("staging")
	require.NoError(t, err)
	assert.Equal(t, []string{"load_raw"}, deps)

	deps, err = g.Dependencies("load_raw")
	require.NoError(t, err)
	assert.Empty(t, deps)

	_, err = g.Dependencies("dne")
	assert.ErrorContains(t, err, "node not found")
}

func TestDownstream(t *testing.T) {
	g := chain(t, "load_raw", "staging", "intermediate", "marts", "verify")

	skipped, err := g.Downstream("staging")
	require.NoError(t, err)
	assert.Equal(t, []string{"intermediate", "marts", "verify"}, skipped)

	skipped, err = g.Downstream("verify")
	require.NoError(t, err)
	assert.Empty(t, skipped)

	_, err = g.Downstream("dne")
	assert.ErrorContains(t, err, "node not found")
}

func TestTopologicalOrder_Cycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		order, err := New().TopologicalOrder()
		assert.NoError(t, err)
		assert.Empty(t, order)
	})

	t.Run("stage chain has no cycles", func(t *testing.T) {
		g := chain(t, "load_raw", "staging", "intermediate", "marts")
		require.NoError(t, g.AddEdge("staging", "marts")) // transitive edge
		_, err := g.TopologicalOrder()
		assert.NoError(t, err)
	})

	t.Run("direct cycle is detected", func(t *testing.T) {
		g := chain(t, "staging", "marts")
		require.NoError(t, g.AddEdge("marts", "staging"))
		_, err := g.TopologicalOrder()
		assert.ErrorContains(t, err, "cycle detected")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := chain(t, "load_raw", "staging")
		g.AddNode("x")
		g.AddNode("y")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "x"))
		_, err := g.TopologicalOrder()
		assert.ErrorContains(t, err, "cycle detected")
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("linear chain keeps declaration order", func(t *testing.T) {
		g := chain(t, "load_raw", "staging", "intermediate", "marts", "verify")
		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"load_raw", "staging", "intermediate", "marts", "verify"}, order)
	})

	t.Run("dependencies come first even when added later", func(t *testing.T) {
		g := New()
		g.AddNode("verify")
		g.AddNode("marts")
		require.NoError(t, g.AddEdge("marts", "verify"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"marts", "verify"}, order)
	})

	t.Run("ties are broken by insertion order", func(t *testing.T) {
		g := New()
		g.AddNode("b")
		g.AddNode("a")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c"}, order)
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		g := chain(t, "a", "b")
		require.NoError(t, g.AddEdge("b", "a"))
		_, err := g.TopologicalOrder()
		assert.ErrorContains(t, err, "cycle detected")
	})
}
