package resonance

import (
	"fmt"
	"testing"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(name, sig string) apptype.Entity {
	return apptype.Entity{Name: name, EntityType: "Node", Observations: []string{"note", sig}}
}

func rel(from, to string) apptype.Relation {
	return apptype.Relation{From: from, To: to, RelationType: "links"}
}

func TestTraverseCycleVisitsEachNodeOnce(t *testing.T) {
	g := &apptype.Graph{
		Entities: []apptype.Entity{
			signed("A", "[Joy]S(0.9)"),
			signed("B", "[Joy]S(0.9)"),
			signed("C", "[Joy]S(0.9)"),
		},
		Relations: []apptype.Relation{rel("A", "B"), rel("B", "C"), rel("C", "A")},
	}
	res := Traverse(g, "A", DefaultBridgeOptions())

	require.Len(t, res.Bridges, 2)
	assert.Equal(t, "A", res.Bridges[0].From)
	assert.Equal(t, "B", res.Bridges[0].To)
	assert.Equal(t, 1, res.Bridges[0].Depth)
	assert.InDelta(t, 0.9, res.Bridges[0].Resonance, 1e-9)
	assert.True(t, res.Bridges[0].SignatureMatch)

	assert.Equal(t, "B", res.Bridges[1].From)
	assert.Equal(t, "C", res.Bridges[1].To)
	assert.Equal(t, 2, res.Bridges[1].Depth)
	assert.InDelta(t, 0.81, res.Bridges[1].Resonance, 1e-9)

	assert.Equal(t, 3, res.Stats.NodesVisited)
	assert.Equal(t, 2, res.Stats.BridgesFound)
	assert.InDelta(t, 0.9, res.Stats.MaxResonance, 1e-9)
}

func TestTraverseStopsAtMaxDepth(t *testing.T) {
	g := apptype.NewGraph()
	for i := 0; i < 6; i++ {
		g.Entities = append(g.Entities, signed(fmt.Sprintf("n%d", i), "[Calm]~(1)"))
		if i > 0 {
			g.Relations = append(g.Relations, rel(fmt.Sprintf("n%d", i-1), fmt.Sprintf("n%d", i)))
		}
	}
	res := Traverse(g, "n0", DefaultBridgeOptions())
	require.Len(t, res.Bridges, 3)
	for i, b := range res.Bridges {
		assert.Equal(t, i+1, b.Depth)
		assert.InDelta(t, 1.0, b.Resonance, 1e-9)
	}
	assert.Equal(t, 3, res.Stats.NodesVisited)

	res = Traverse(g, "n0", BridgeOptions{MaxDepth: 1, Threshold: 0.7})
	require.Len(t, res.Bridges, 1)
	assert.Equal(t, 1, res.Stats.NodesVisited)
}

func TestTraverseUnsignedEdgesFallBelowThreshold(t *testing.T) {
	res := Traverse(aliceAndBob(), "Alice", DefaultBridgeOptions())
	assert.Empty(t, res.Bridges)
	assert.Equal(t, 1, res.Stats.NodesVisited)
	assert.Zero(t, res.Stats.MaxResonance)

	res = Traverse(aliceAndBob(), "Alice", BridgeOptions{MaxDepth: 3, Threshold: 0.4})
	require.Len(t, res.Bridges, 1)
	assert.InDelta(t, 0.5, res.Bridges[0].Resonance, 1e-9)
	assert.False(t, res.Bridges[0].SignatureMatch)
}

func TestTraverseSkipsRelationsToMissingEntities(t *testing.T) {
	g := &apptype.Graph{
		Entities:  []apptype.Entity{{Name: "Alice", EntityType: "Person", Observations: []string{"likes cats"}}},
		Relations: []apptype.Relation{rel("Alice", "Ghost")},
	}
	res := Traverse(g, "Alice", BridgeOptions{MaxDepth: 3, Threshold: 0.4})
	assert.Empty(t, res.Bridges)
	assert.Equal(t, 1, res.Stats.NodesVisited)
	assert.Zero(t, res.Stats.BridgesFound)
}

func TestTraverseFollowsIncomingRelations(t *testing.T) {
	g := &apptype.Graph{
		Entities:  []apptype.Entity{signed("A", "[Joy]S(1)"), signed("B", "[Joy]S(1)")},
		Relations: []apptype.Relation{rel("B", "A")},
	}
	res := Traverse(g, "A", DefaultBridgeOptions())
	require.Len(t, res.Bridges, 1)
	assert.Equal(t, "B", res.Bridges[0].To)
}

func TestTraverseMissingStart(t *testing.T) {
	res := Traverse(aliceAndBob(), "Nobody", DefaultBridgeOptions())
	assert.Empty(t, res.Bridges)
	assert.Zero(t, res.Stats.BridgesFound)
}

func TestTraverseDenseGraphTerminates(t *testing.T) {
	g := apptype.NewGraph()
	const n = 30
	for i := 0; i < n; i++ {
		g.Entities = append(g.Entities, signed(fmt.Sprintf("n%d", i), "[Joy]S(1)"))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g.Relations = append(g.Relations, rel(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", j)))
		}
	}
	res := Traverse(g, "n0", BridgeOptions{MaxDepth: 100, Threshold: 0.7})
	assert.Equal(t, n, res.Stats.NodesVisited)
	seen := map[string]int{}
	for _, b := range res.Bridges {
		seen[b.To]++
	}
	for name, c := range seen {
		assert.Equal(t, 1, c, name)
	}
}

func TestEdgeResonance(t *testing.T) {
	joy := func(v string) signature.Loose { return loose(t, "[Joy]S("+v+")") }
	assert.Equal(t, 0.5, EdgeResonance(nil, []signature.Loose{joy("1")}))
	assert.InDelta(t, 0.75, EdgeResonance([]signature.Loose{joy("1")}, []signature.Loose{joy("0.5")}), 1e-9)
	assert.Zero(t, EdgeResonance([]signature.Loose{joy("1")}, []signature.Loose{loose(t, "[Calm]S(1)")}))
	assert.InDelta(t, 0.5, EdgeResonance([]signature.Loose{loose(t, "[Joy]")}, []signature.Loose{joy("1")}), 1e-9)
}
