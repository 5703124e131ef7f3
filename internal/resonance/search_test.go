package resonance

import (
	"fmt"
	"testing"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aliceAndBob() *apptype.Graph {
	return &apptype.Graph{
		Entities: []apptype.Entity{
			{Name: "Alice", EntityType: "Person", Observations: []string{"likes cats"}},
			{Name: "Bob", EntityType: "Person", Observations: []string{"likes dogs"}},
		},
		Relations: []apptype.Relation{{From: "Alice", To: "Bob", RelationType: "knows"}},
	}
}

func withThreshold(th float64) SearchOptions {
	o := DefaultSearchOptions()
	o.Threshold = th
	return o
}

func TestSearchByName(t *testing.T) {
	res := Search(aliceAndBob(), "Alice", withThreshold(0.5), DefaultVocabulary())
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Alice", res.Entities[0].Name)
	assert.Empty(t, res.Relations)
	assert.Equal(t, 1, res.Field.MatchCount)
	assert.InDelta(t, 1.2, res.Field.AverageResonance, 1e-9)
	assert.Equal(t, []float64{1.2}, res.Scores)
	assert.False(t, res.Field.UsedSignatureQuery)
}

func TestSearchBySubstring(t *testing.T) {
	res := Search(aliceAndBob(), "cat", withThreshold(0.5), DefaultVocabulary())
	assert.Equal(t, 1, res.Field.MatchCount)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Alice", res.Entities[0].Name)
	assert.InDelta(t, 0.8, res.Scores[0], 1e-9)
}

func TestSearchKeepsRelationsAmongMatches(t *testing.T) {
	res := Search(aliceAndBob(), "person", withThreshold(0.5), DefaultVocabulary())
	assert.Equal(t, 2, res.Field.MatchCount)
	assert.Equal(t, []apptype.Relation{{From: "Alice", To: "Bob", RelationType: "knows"}}, res.Relations)
}

func TestSearchThresholdIsStrict(t *testing.T) {
	res := Search(aliceAndBob(), "cat", withThreshold(0.8), DefaultVocabulary())
	assert.Zero(t, res.Field.MatchCount)
	assert.Zero(t, res.Field.AverageResonance)
	assert.NotNil(t, res.Entities)
	assert.NotNil(t, res.Relations)
}

func TestSearchMonotonicInThreshold(t *testing.T) {
	g := aliceAndBob()
	g.Entities = append(g.Entities,
		apptype.Entity{Name: "Catherine", EntityType: "Person", Observations: []string{"hollow laugh"}},
		apptype.Entity{Name: "cat", EntityType: "Animal"},
	)
	for _, q := range []string{"cat", "person", "likes", "hollow"} {
		prev := len(g.Entities) + 1
		for _, th := range []float64{0, 0.3, 0.5, 0.79, 0.8, 0.96, 1, 1.2, 1.5} {
			opts := withThreshold(th)
			opts.IncludeShadow = true
			n := Search(g, q, opts, DefaultVocabulary()).Field.MatchCount
			assert.LessOrEqual(t, n, prev, "query %q threshold %v", q, th)
			prev = n
		}
	}
}

func TestSearchOrderingAndLimit(t *testing.T) {
	g := &apptype.Graph{Entities: []apptype.Entity{
		{Name: "wildcat", EntityType: "Animal"},
		{Name: "cat1", EntityType: "Animal"},
		{Name: "cat", EntityType: "Animal"},
		{Name: "cat2", EntityType: "Animal"},
	}}
	opts := withThreshold(0.5)
	res := Search(g, "cat", opts, DefaultVocabulary())
	names := make([]string, 0, len(res.Entities))
	for _, e := range res.Entities {
		names = append(names, e.Name)
	}
	// exact name first, ties keep graph order
	assert.Equal(t, []string{"cat", "wildcat", "cat1", "cat2"}, names)

	opts.Limit = 2
	res = Search(g, "cat", opts, DefaultVocabulary())
	require.Len(t, res.Entities, 2)
	assert.Equal(t, "cat", res.Entities[0].Name)
	assert.Equal(t, "wildcat", res.Entities[1].Name)
	assert.Equal(t, 2, res.Field.MatchCount)
}

func TestSearchShadowMatches(t *testing.T) {
	g := &apptype.Graph{Entities: []apptype.Entity{
		{Name: "Hollow Echo", EntityType: "Concept", Observations: []string{"a reflection of unity"}},
		{Name: "Echo Chamber", EntityType: "Concept", Observations: []string{"loud"}},
	}}
	opts := withThreshold(0.5)
	opts.IncludeShadow = true
	res := Search(g, "echo", opts, DefaultVocabulary())
	require.Len(t, res.Entities, 2)
	assert.Equal(t, "Hollow Echo", res.Entities[0].Name)
	assert.InDelta(t, 1.46, res.Scores[0], 1e-9)
	assert.Equal(t, 1, res.Field.ShadowMatches)
	assert.True(t, res.Field.UsedShadow)

	opts.IncludeShadow = false
	res = Search(g, "echo", opts, DefaultVocabulary())
	assert.Zero(t, res.Field.ShadowMatches)
}

func TestSearchShadowMatchesCountNameHitsOnly(t *testing.T) {
	g := &apptype.Graph{Entities: []apptype.Entity{
		{Name: "Alice", EntityType: "Person", Observations: []string{"feels hollow"}},
	}}
	opts := withThreshold(0.5)
	opts.IncludeShadow = true
	res := Search(g, "Alice", opts, DefaultVocabulary())
	require.Len(t, res.Entities, 1)
	// The observation hit still adds its bonus to the score.
	assert.InDelta(t, 1.4, res.Scores[0], 1e-9)
	assert.Zero(t, res.Field.ShadowMatches)
}

func TestSearchSignatureQuery(t *testing.T) {
	g := &apptype.Graph{Entities: []apptype.Entity{
		{Name: "JoyS(0.8)T(0.3)U(0.1)", EntityType: StateEntityType, Observations: []string{"Signature: [Joy]S(0.8)T(0.3)U(0.1)"}},
		{Name: "CalmS(0.2)T(0.3)U(0.1)", EntityType: StateEntityType, Observations: []string{"Signature: [Calm]S(0.2)T(0.3)U(0.1)"}},
	}}
	opts := DefaultSearchOptions()
	opts.PreFilter = true
	res := Search(g, "[Joy]S(0.8)", opts, DefaultVocabulary())
	assert.True(t, res.Field.UsedSignatureQuery)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "JoyS(0.8)T(0.3)U(0.1)", res.Entities[0].Name)
	assert.InDelta(t, 1.0, res.Scores[0], 1e-9)
}

func TestSearchPreFilter(t *testing.T) {
	opts := withThreshold(0.5)
	opts.PreFilter = true
	// type matches are not visible to the pre-filter
	res := Search(aliceAndBob(), "person", opts, DefaultVocabulary())
	assert.Zero(t, res.Field.MatchCount)

	res = Search(aliceAndBob(), "dogs", opts, DefaultVocabulary())
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Bob", res.Entities[0].Name)
}

func BenchmarkSearch(b *testing.B) {
	g := apptype.NewGraph()
	for i := 0; i < 2000; i++ {
		g.Entities = append(g.Entities, apptype.Entity{
			Name:         fmt.Sprintf("entity-%d", i),
			EntityType:   "Bench",
			Observations: []string{fmt.Sprintf("observation %d", i), "[Joy]S(0.5)", "hollow note"},
		})
		if i > 0 {
			g.Relations = append(g.Relations, apptype.Relation{From: fmt.Sprintf("entity-%d", i-1), To: fmt.Sprintf("entity-%d", i), RelationType: "next"})
		}
	}
	opts := DefaultSearchOptions()
	opts.IncludeShadow = true
	vocab := DefaultVocabulary()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Search(g, "[Joy]S(0.6)", opts, vocab)
	}
}
