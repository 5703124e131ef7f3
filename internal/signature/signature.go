// Package signature parses and renders F33ling state signatures such as
// "[Joy]S(0.8)T(0.3)U(0.1)".
package signature

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
)

// Arity is the number of aspects carried by a full signature.
const Arity = 3

// ShadowIndex is the position of the shadow aspect within a full signature.
const ShadowIndex = 2

var (
	loosePattern = regexp.MustCompile(`\[(.*?)\]([^(]*)\(?([^)]*)\)?`)
	aspectGroup  = `\s*([^()]+?)\s*\(\s*([^()]*?)\s*\)`
	fullPattern  = regexp.MustCompile(`\[([^\]]*)\]` + strings.Repeat(aspectGroup, Arity) + `\s*$`)
)

// Loose is a single-aspect signature used for plain-text resonance queries.
// Symbol may be empty and Value is nil when no parsable number is present.
type Loose struct {
	Name   string
	Symbol string
	Value  *float64
}

// Aspect is one weighted symbol of a full signature.
type Aspect struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

// Full is a signature with exactly Arity aspects.
type Full struct {
	Name    string        `json:"name"`
	Aspects [Arity]Aspect `json:"aspects"`
}

// ParseLoose extracts the first bracketed name and an optional trailing
// symbol(value) pair. ok is false when text holds no bracketed name.
func ParseLoose(text string) (Loose, bool) {
	m := loosePattern.FindStringSubmatch(text)
	if m == nil {
		return Loose{}, false
	}
	l := Loose{
		Name:   strings.TrimSpace(m[1]),
		Symbol: strings.TrimSpace(m[2]),
	}
	if v, ok := parseValue(m[3]); ok {
		l.Value = &v
	}
	return l, true
}

// ParseFull requires a bracketed name followed by exactly three symbol(number)
// groups and nothing but whitespace afterwards. Text before the opening
// bracket is ignored so prefixed observations like "Signature: [..]" parse.
// The name and symbols are trimmed.
func ParseFull(text string) (Full, error) {
	m := fullPattern.FindStringSubmatch(text)
	if m == nil {
		return Full{}, fmt.Errorf("%w: %q does not match [name]s1(v1)s2(v2)s3(v3)", apptype.ErrMalformedSignature, text)
	}
	f := Full{Name: strings.TrimSpace(m[1])}
	for i := 0; i < Arity; i++ {
		sym, raw := strings.TrimSpace(m[2+2*i]), m[3+2*i]
		if sym == "" {
			return Full{}, fmt.Errorf("%w: aspect %d has no symbol", apptype.ErrMalformedSignature, i+1)
		}
		v, ok := parseValue(raw)
		if !ok {
			return Full{}, fmt.Errorf("%w: aspect %s has non-numeric value %q", apptype.ErrMalformedSignature, sym, raw)
		}
		f.Aspects[i] = Aspect{Symbol: sym, Value: v}
	}
	return f, nil
}

// Render returns the canonical entity name for a full signature: the name
// followed by each aspect as symbol(value), without brackets or separators.
func Render(f Full) string {
	var b strings.Builder
	b.WriteString(f.Name)
	writeAspects(&b, f)
	return b.String()
}

// Format returns the bracketed textual form accepted by ParseFull.
func Format(f Full) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(f.Name)
	b.WriteByte(']')
	writeAspects(&b, f)
	return b.String()
}

// FormatValue renders v with the shortest representation that parses back to v.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Shadow returns the shadow aspect value.
func (f Full) Shadow() float64 {
	return f.Aspects[ShadowIndex].Value
}

func writeAspects(b *strings.Builder, f Full) {
	for _, a := range f.Aspects {
		b.WriteString(a.Symbol)
		b.WriteByte('(')
		b.WriteString(FormatValue(a.Value))
		b.WriteByte(')')
	}
}

func parseValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
