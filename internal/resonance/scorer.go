// Package resonance ranks, walks and clusters an in-memory graph by
// text and signature similarity. Every function is pure over its inputs.
package resonance

import (
	"strings"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/signature"
)

const (
	nameWeight         = 1.2
	substringResonance = 0.8
	shadowGate         = 0.3
)

// TextSimilarity is 1 for a case-insensitive match, 0.8 when either string
// contains the other and 0 otherwise. Empty input scores 0.
func TextSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch {
	case a == b:
		return 1
	case strings.Contains(a, b) || strings.Contains(b, a):
		return substringResonance
	default:
		return 0
	}
}

// SignatureSimilarity adds 0.6 for equal names, 0.3 for equal symbols and
// 0.1*(1-|Δ|) when both values are present. The sum is not clamped.
func SignatureSimilarity(a, b signature.Loose) float64 {
	var r float64
	if a.Name == b.Name {
		r += 0.6
	}
	if a.Symbol == b.Symbol {
		r += 0.3
	}
	if a.Value != nil && b.Value != nil {
		r += 0.1 * (1 - abs(*a.Value-*b.Value))
	}
	return r
}

// Query is a search string with its loose signature resolved once.
type Query struct {
	Text      string
	Signature *signature.Loose
}

// NewQuery parses the bracketed signature of text, if any.
func NewQuery(text string) Query {
	q := Query{Text: text}
	if strings.Contains(text, "[") && strings.Contains(text, "]") {
		if l, ok := signature.ParseLoose(text); ok {
			q.Signature = &l
		}
	}
	return q
}

// EntityResonance scores one entity against q. Signature and text scores
// are combined by maximum; with includeShadow a vocabulary bonus is added
// once the maximum exceeds 0.3, so results may exceed 1.
func EntityResonance(e apptype.Entity, q Query, includeShadow bool, vocab Vocabulary) float64 {
	var best float64
	if q.Signature != nil {
		for _, o := range e.Observations {
			if !strings.Contains(o, "[") {
				continue
			}
			var s float64
			if l, ok := signature.ParseLoose(o); ok {
				s = SignatureSimilarity(*q.Signature, l)
			}
			best = max(best, s)
		}
	}

	best = max(best, nameWeight*TextSimilarity(e.Name, q.Text), TextSimilarity(e.EntityType, q.Text))
	for _, o := range e.Observations {
		best = max(best, TextSimilarity(o, q.Text))
	}

	if includeShadow && best > shadowGate {
		best += vocab.Bonus(e)
	}
	return best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
