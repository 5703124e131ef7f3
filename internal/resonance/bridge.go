package resonance

import (
	"strings"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/signature"
)

const (
	DefaultBridgeDepth     = 3
	DefaultBridgeThreshold = 0.7

	// unsignedEdgeResonance applies when either endpoint has no parsable signature.
	unsignedEdgeResonance = 0.5
	signatureMatchLevel   = 0.8
)

type BridgeOptions struct {
	MaxDepth  int
	Threshold float64
}

func DefaultBridgeOptions() BridgeOptions {
	return BridgeOptions{MaxDepth: DefaultBridgeDepth, Threshold: DefaultBridgeThreshold}
}

// graphIndex resolves names and undirected neighbours without rescanning the graph.
type graphIndex struct {
	entities  map[string]*apptype.Entity
	neighbors map[string][]string
}

func newGraphIndex(g *apptype.Graph) *graphIndex {
	idx := &graphIndex{
		entities:  make(map[string]*apptype.Entity, len(g.Entities)),
		neighbors: make(map[string][]string),
	}
	for i := range g.Entities {
		if _, ok := idx.entities[g.Entities[i].Name]; !ok {
			idx.entities[g.Entities[i].Name] = &g.Entities[i]
		}
	}
	seen := make(map[[2]string]struct{})
	link := func(a, b string) {
		k := [2]string{a, b}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		idx.neighbors[a] = append(idx.neighbors[a], b)
	}
	for _, r := range g.Relations {
		link(r.From, r.To)
		link(r.To, r.From)
	}
	return idx
}

// walk holds the state shared by one traversal: the visited set and the
// bridges found so far. It is owned by Traverse and passed down explicitly.
type walk struct {
	idx     *graphIndex
	opts    BridgeOptions
	visited map[string]struct{}
	bridges []apptype.Bridge
}

// Traverse walks relations depth-first from start, multiplying edge
// resonances into a path resonance and recording an edge as a bridge while
// that product stays above the threshold. Each node is expanded at most once.
func Traverse(g *apptype.Graph, start string, opts BridgeOptions) apptype.BridgeResult {
	w := &walk{
		idx:     newGraphIndex(g),
		opts:    opts,
		visited: make(map[string]struct{}),
		bridges: make([]apptype.Bridge, 0),
	}
	traverse(w, start, 0, 1.0)

	res := apptype.BridgeResult{
		Bridges: w.bridges,
		Stats: apptype.BridgeStats{
			NodesVisited: len(w.visited),
			BridgesFound: len(w.bridges),
		},
	}
	for _, b := range w.bridges {
		res.Stats.MaxResonance = max(res.Stats.MaxResonance, b.Resonance)
	}
	return res
}

func traverse(w *walk, node string, depth int, path float64) {
	if depth >= w.opts.MaxDepth {
		return
	}
	if _, done := w.visited[node]; done {
		return
	}
	w.visited[node] = struct{}{}

	e, ok := w.idx.entities[node]
	if !ok {
		return
	}
	fromSigs := observationSignatures(e)
	for _, next := range w.idx.neighbors[node] {
		if _, done := w.visited[next]; done {
			continue
		}
		// Relations may name entities that no longer exist.
		ne, ok := w.idx.entities[next]
		if !ok {
			continue
		}
		edge := EdgeResonance(fromSigs, observationSignatures(ne))
		np := path * edge
		if np <= w.opts.Threshold {
			continue
		}
		w.bridges = append(w.bridges, apptype.Bridge{
			From:           node,
			To:             next,
			Resonance:      np,
			SignatureMatch: edge > signatureMatchLevel,
			Depth:          depth + 1,
		})
		traverse(w, next, depth+1, np)
	}
}

// EdgeResonance is the best (va+vb)/2 over signature pairs sharing a name,
// 0 when none share a name, and 0.5 when either side has no signatures.
// Absent values count as 0.
func EdgeResonance(a, b []signature.Loose) float64 {
	if len(a) == 0 || len(b) == 0 {
		return unsignedEdgeResonance
	}
	var best float64
	for _, sa := range a {
		for _, sb := range b {
			if sa.Name != sb.Name {
				continue
			}
			best = max(best, (valueOrZero(sa.Value)+valueOrZero(sb.Value))/2)
		}
	}
	return best
}

func observationSignatures(e *apptype.Entity) []signature.Loose {
	var out []signature.Loose
	for _, o := range e.Observations {
		if !strings.Contains(o, "[") || !strings.Contains(o, "]") {
			continue
		}
		if l, ok := signature.ParseLoose(o); ok {
			out = append(out, l)
		}
	}
	return out
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
