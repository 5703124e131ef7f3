package resonance

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
)

const (
	DefaultSearchThreshold = 0.7
	DefaultSearchLimit     = 20
)

// SearchOptions tunes Search. Zero Limit means DefaultSearchLimit.
type SearchOptions struct {
	Threshold     float64
	IncludeShadow bool
	Limit         int
	// PreFilter drops entities whose name and observations do not contain
	// the raw query before scoring. Ignored for signature queries.
	PreFilter bool
}

// DefaultSearchOptions returns threshold 0.7, limit 20, no shadow bonus.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Threshold: DefaultSearchThreshold, Limit: DefaultSearchLimit}
}

type scored struct {
	entity apptype.Entity
	score  float64
}

// Search ranks entities of g against query. Entities must score strictly
// above the threshold; ties keep graph order.
func Search(g *apptype.Graph, query string, opts SearchOptions, vocab Vocabulary) apptype.ResonanceResult {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	q := NewQuery(query)

	candidates := g.Entities
	if opts.PreFilter && q.Signature == nil {
		candidates = preFilter(g.Entities, query)
	}

	kept := make([]scored, 0)
	for _, e := range candidates {
		s := EntityResonance(e, q, opts.IncludeShadow, vocab)
		if s > opts.Threshold {
			kept = append(kept, scored{entity: e, score: s})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if len(kept) > opts.Limit {
		kept = kept[:opts.Limit]
	}

	res := apptype.ResonanceResult{
		Entities: make([]apptype.Entity, 0, len(kept)),
		Scores:   make([]float64, 0, len(kept)),
		Field: apptype.ResonanceField{
			Threshold:          opts.Threshold,
			MatchCount:         len(kept),
			UsedSignatureQuery: q.Signature != nil,
			UsedShadow:         opts.IncludeShadow,
		},
	}
	names := make(map[string]struct{}, len(kept))
	var total float64
	for _, k := range kept {
		res.Entities = append(res.Entities, k.entity)
		res.Scores = append(res.Scores, k.score)
		names[k.entity.Name] = struct{}{}
		total += k.score
		// Only name hits count; observation hits feed the score bonus alone.
		if opts.IncludeShadow && vocab.HasMatch(k.entity.Name) {
			res.Field.ShadowMatches++
		}
	}
	if len(kept) > 0 {
		res.Field.AverageResonance = total / float64(len(kept))
	}
	res.Relations = g.RelationsAmong(names)
	return res
}

func preFilter(entities []apptype.Entity, query string) []apptype.Entity {
	needle := strings.ToLower(query)
	out := make([]apptype.Entity, 0, len(entities))
	for _, e := range entities {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			out = append(out, e)
			continue
		}
		for _, o := range e.Observations {
			if strings.Contains(strings.ToLower(o), needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
