package graph_test

import (
	"testing"

	"github.com/rohmanhakim/crawlctl/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestAddEdge_CollapsesDuplicates(t *testing.T) {
	g := graph.New()
	g.AddEdge("https://a.test/", "https://a.test/x")
	g.AddEdge("https://a.test/", "https://a.test/x")

	require.Len(t, g.Edges(), 1)
	require.Len(t, g.Nodes(), 2)
}

func TestNodes_EveryEdgeEndpointIsANode(t *testing.T) {
	g := graph.New()
	g.AddEdge("https://a.test/", "https://a.test/x")
	g.AddEdge("https://a.test/x", "https://a.test/y")

	nodes := make(map[string]bool)
	for _, n := range g.Nodes() {
		nodes[n] = true
	}
	for _, e := range g.Edges() {
		require.True(t, nodes[e.Src])
		require.True(t, nodes[e.Dst])
	}
}

func TestAddNode_Standalone(t *testing.T) {
	g := graph.New()
	g.AddNode("https://a.test/")
	require.True(t, g.HasNode("https://a.test/"))
	require.Empty(t, g.Edges())
}
