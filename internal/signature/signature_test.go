package signature

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoose(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		ok     bool
		want   Loose
		hasVal bool
		val    float64
	}{
		{name: "bracketed with value", in: "[Joy]S(0.8)", ok: true, want: Loose{Name: "Joy", Symbol: "S"}, hasVal: true, val: 0.8},
		{name: "full signature uses first aspect", in: "[Joy]S(0.8)T(0.3)U(0.1)", ok: true, want: Loose{Name: "Joy", Symbol: "S"}, hasVal: true, val: 0.8},
		{name: "name only", in: "[Calm]", ok: true, want: Loose{Name: "Calm"}},
		{name: "trims name and symbol", in: "  [ Calm ]  ~ (0.5)", ok: true, want: Loose{Name: "Calm", Symbol: "~"}, hasVal: true, val: 0.5},
		{name: "non numeric value is absent", in: "[Calm]S(abc)", ok: true, want: Loose{Name: "Calm", Symbol: "S"}},
		{name: "zero is a value", in: "[Calm]S(0)", ok: true, want: Loose{Name: "Calm", Symbol: "S"}, hasVal: true, val: 0},
		{name: "no brackets", in: "Alice", ok: false},
		{name: "empty", in: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLoose(tt.in)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.Symbol, got.Symbol)
			if tt.hasVal {
				require.NotNil(t, got.Value)
				assert.InDelta(t, tt.val, *got.Value, 1e-12)
			} else {
				assert.Nil(t, got.Value)
			}
		})
	}
}

func TestParseFull(t *testing.T) {
	f, err := ParseFull("[Joy]S(0.8)T(0.3)U(0.1)")
	require.NoError(t, err)
	assert.Equal(t, "Joy", f.Name)
	assert.Equal(t, [Arity]Aspect{{"S", 0.8}, {"T", 0.3}, {"U", 0.1}}, f.Aspects)
	assert.InDelta(t, 0.1, f.Shadow(), 1e-12)

	prefixed, err := ParseFull("Signature: [Joy]S(0.8)T(0.3)U(0.1)")
	require.NoError(t, err)
	assert.Equal(t, f, prefixed)

	for _, in := range []string{
		"[Joy] S( 0.8 ) T(0.3) U(0.1)  ",
		"[ Joy ]S(0.8)T(0.3)U(0.1)",
		"[Joy] S (0.8) T (0.3) U (0.1)",
		"[Joy]\tS\t(0.8)T(0.3)U(0.1)",
	} {
		spaced, err := ParseFull(in)
		require.NoError(t, err, in)
		assert.Equal(t, f, spaced, in)
		assert.Equal(t, "JoyS(0.8)T(0.3)U(0.1)", Render(spaced), in)
	}

	inner, err := ParseFull("[Deep Calm]Slow Wave(0.5)T(0.3)U(0.1)")
	require.NoError(t, err)
	assert.Equal(t, "Deep Calm", inner.Name)
	assert.Equal(t, "Slow Wave", inner.Aspects[0].Symbol)

	// Loose and full parses agree on the trimmed name.
	loose, ok := ParseLoose("[ Joy ]S(0.8)T(0.3)U(0.1)")
	require.True(t, ok)
	assert.Equal(t, f.Name, loose.Name)
}

func TestParseFullRejectsOtherShapes(t *testing.T) {
	bad := []string{
		"",
		"JoyS(0.8)T(0.3)U(0.1)",
		"[Joy]S(0.8)T(0.3)",
		"[Joy]S(0.8)T(0.3)U(0.1)V(0.2)",
		"[Joy]S(0.8)T(x)U(0.1)",
		"[Joy]S(0.8)T(0.3)U(0.1) trailing",
		"[Joy]S(NaN)T(0.3)U(0.1)",
		"[Joy](0.8)T(0.3)U(0.1)",
		"[Joy] (0.8)T(0.3)U(0.1)",
		"[Joy]S (0.8) T (0.3)",
	}
	for _, in := range bad {
		_, err := ParseFull(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, apptype.ErrMalformedSignature), in)
	}
}

func TestRenderAndFormat(t *testing.T) {
	f, err := ParseFull("[Joy]S(0.8)T(0.3)U(0.1)")
	require.NoError(t, err)
	assert.Equal(t, "JoyS(0.8)T(0.3)U(0.1)", Render(f))
	assert.Equal(t, "[Joy]S(0.8)T(0.3)U(0.1)", Format(f))

	again, err := ParseFull(Format(f))
	require.NoError(t, err)
	assert.Equal(t, f, again)
	assert.Equal(t, Render(f), Render(again))
}

func TestFormatValueShortest(t *testing.T) {
	assert.Equal(t, "0.1", FormatValue(0.1))
	assert.Equal(t, "1", FormatValue(1))
	assert.Equal(t, "-0.25", FormatValue(-0.25))
	assert.Equal(t, "1e-07", FormatValue(1e-7))
}
