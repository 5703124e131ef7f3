package resonance

import (
	"sort"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/signature"
)

// StateEntityType marks entities that carry a full signature.
const StateEntityType = "F33ling_State"

const (
	DefaultClusterThreshold = 0.7
	DefaultClusterDepth     = 2
	DefaultShadowWeight     = 0.3
	DefaultClusterRadius    = 0.2

	shadowPatternLevel = 0.1
)

type ClusterOptions struct {
	Threshold     float64
	Depth         int
	ShadowWeight  float64
	ClusterRadius float64
}

func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		Threshold:     DefaultClusterThreshold,
		Depth:         DefaultClusterDepth,
		ShadowWeight:  DefaultShadowWeight,
		ClusterRadius: DefaultClusterRadius,
	}
}

// SignatureOf resolves the full signature of a state entity from a
// bracketed name, or else from the first observation that parses.
func SignatureOf(e apptype.Entity) (signature.Full, bool) {
	if f, err := signature.ParseFull(e.Name); err == nil {
		return f, true
	}
	for _, o := range e.Observations {
		if f, err := signature.ParseFull(o); err == nil {
			return f, true
		}
	}
	return signature.Full{}, false
}

// Distance is the mean absolute aspect difference with the shadow aspect
// weighted by shadowWeight. shadow is the raw shadow aspect difference.
func Distance(a, b signature.Full, shadowWeight float64) (distance, shadow float64) {
	var sum float64
	for i := range a.Aspects {
		w := 1.0
		if i == signature.ShadowIndex {
			w = shadowWeight
		}
		sum += abs(a.Aspects[i].Value-b.Aspects[i].Value) * w
	}
	return sum / signature.Arity, abs(a.Shadow() - b.Shadow())
}

type stateCandidate struct {
	entity apptype.Entity
	sig    signature.Full
}

// exploration is the state shared across one Explore call.
type exploration struct {
	opts       ClusterOptions
	candidates []stateCandidate
	processed  map[string]struct{}
	byDepth    map[int][]apptype.ClusterState
}

// Explore groups state entities by distance from source. A state joins the
// cluster of the level it is first reached at and is never reconsidered;
// close enough states are expanded in turn until the depth limit.
func Explore(g *apptype.Graph, source signature.Full, opts ClusterOptions) apptype.ClusterResult {
	x := &exploration{
		opts:      opts,
		processed: make(map[string]struct{}),
		byDepth:   make(map[int][]apptype.ClusterState),
	}
	for _, e := range g.Entities {
		if e.EntityType != StateEntityType {
			continue
		}
		if sig, ok := SignatureOf(e); ok {
			x.candidates = append(x.candidates, stateCandidate{entity: e, sig: sig})
		}
	}
	explore(x, source, 0)
	return summarize(x.byDepth)
}

func explore(x *exploration, from signature.Full, depth int) {
	if depth >= x.opts.Depth {
		return
	}
	for _, c := range x.candidates {
		if _, done := x.processed[c.entity.Name]; done {
			continue
		}
		d, shadow := Distance(from, c.sig, x.opts.ShadowWeight)
		if d > x.opts.ClusterRadius {
			continue
		}
		x.byDepth[depth] = append(x.byDepth[depth], apptype.ClusterState{
			State:             c.entity.Name,
			Observations:      append([]string(nil), c.entity.Observations...),
			ResonanceStrength: 1 - d,
			ShadowResonance:   shadow,
		})
		x.processed[c.entity.Name] = struct{}{}
		if 1-d >= x.opts.Threshold {
			explore(x, c.sig, depth+1)
		}
	}
}

func summarize(byDepth map[int][]apptype.ClusterState) apptype.ClusterResult {
	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	res := apptype.ClusterResult{Clusters: make([]apptype.Cluster, 0, len(depths))}
	var sumOfMeans float64
	for _, d := range depths {
		states := byDepth[d]
		res.Clusters = append(res.Clusters, apptype.Cluster{Depth: d, States: states})
		var sum float64
		for _, s := range states {
			sum += s.ResonanceStrength
			if s.ShadowResonance < shadowPatternLevel {
				res.Stats.ShadowPatterns++
			}
		}
		sumOfMeans += sum / float64(len(states))
		res.Stats.TotalStates += len(states)
	}
	res.Stats.TotalClusters = len(res.Clusters)
	if res.Stats.TotalClusters > 0 {
		res.Stats.AverageResonance = sumOfMeans / float64(res.Stats.TotalClusters)
	}
	if res.Stats.TotalStates > 0 {
		res.Coherence = res.Stats.AverageResonance * (1 - float64(res.Stats.ShadowPatterns)/float64(res.Stats.TotalStates))
	}
	return res
}
