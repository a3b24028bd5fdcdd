package pluginapi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestComputeDefaultExplicitConstants(t *testing.T) {
	cases := []struct {
		hint DefaultHint
		want float64
	}{
		{DefaultNone, 0},
		{Default0, 0},
		{Default1, 1},
		{Default100, 100},
		{Default440, 440},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ComputeDefault(c.hint, false, 7, 9))
	}
}

func TestComputeDefaultBoundRelative(t *testing.T) {
	lo, hi := 10.0, 20.0
	require.Equal(t, lo, ComputeDefault(DefaultMin, false, lo, hi))
	require.Equal(t, hi, ComputeDefault(DefaultMax, false, lo, hi))
	require.InDelta(t, 0.75*lo+0.25*hi, ComputeDefault(DefaultLow, false, lo, hi), 1e-9)
	require.InDelta(t, 0.5*lo+0.5*hi, ComputeDefault(DefaultMiddle, false, lo, hi), 1e-9)
	require.InDelta(t, 0.25*lo+0.75*hi, ComputeDefault(DefaultHigh, false, lo, hi), 1e-9)
}

func TestComputeDefaultLogarithmic(t *testing.T) {
	lo, hi := 20.0, 20000.0
	want := math.Exp(math.Log(lo)*0.5 + math.Log(hi)*0.5)
	require.InDelta(t, want, ComputeDefault(DefaultMiddle, true, lo, hi), 1e-6)
}

// TestComputeDefaultFormulaHoldsForArbitraryBounds is the property
// test SPEC_FULL.md promises: the piecewise formula must hold exactly
// for every hint x positive bound pair, linear and logarithmic.
func TestComputeDefaultFormulaHoldsForArbitraryBounds(t *testing.T) {
	hints := []DefaultHint{
		DefaultNone, Default0, Default1, Default100, Default440,
		DefaultMin, DefaultLow, DefaultMiddle, DefaultHigh, DefaultMax,
	}

	rapid.Check(t, func(rt *rapid.T) {
		hint := hints[rapid.IntRange(0, len(hints)-1).Draw(rt, "hint")]
		logarithmic := rapid.Bool().Draw(rt, "logarithmic")
		lo := rapid.Float64Range(0.01, 1000).Draw(rt, "lo")
		hi := rapid.Float64Range(1000.01, 20000).Draw(rt, "hi")

		got := ComputeDefault(hint, logarithmic, lo, hi)

		var want float64
		switch hint {
		case DefaultNone, Default0:
			want = 0
		case Default1:
			want = 1
		case Default100:
			want = 100
		case Default440:
			want = 440
		case DefaultMin:
			want = lo
		case DefaultMax:
			want = hi
		case DefaultLow, DefaultMiddle, DefaultHigh:
			weight := map[DefaultHint]float64{DefaultLow: 0.75, DefaultMiddle: 0.5, DefaultHigh: 0.25}[hint]
			if logarithmic {
				want = math.Exp(math.Log(lo)*weight + math.Log(hi)*(1-weight))
			} else {
				want = lo*weight + hi*(1-weight)
			}
		}

		if math.IsNaN(want) {
			return
		}
		if math.Abs(want) < 1 {
			require.InDelta(rt, want, got, 1e-6)
		} else {
			require.InEpsilon(rt, want, got, 1e-9)
		}
	})
}

func TestPortDeclDefaultDelegatesToComputeDefault(t *testing.T) {
	p := PortDecl{Hint: DefaultMiddle, LowerBound: 0, UpperBound: 2}
	require.Equal(t, 1.0, p.Default())
}

func TestPortPredicates(t *testing.T) {
	audioIn := PortDecl{Medium: Audio, Direction: Input}
	audioOut := PortDecl{Medium: Audio, Direction: Output}
	ctrlIn := PortDecl{Medium: Control, Direction: Input}
	ctrlOut := PortDecl{Medium: Control, Direction: Output}

	require.True(t, audioIn.IsAudioInput())
	require.True(t, audioOut.IsAudioOutput())
	require.True(t, ctrlIn.IsControlInput())
	require.True(t, ctrlOut.IsControlOutput())

	require.False(t, audioIn.IsAudioOutput())
	require.False(t, ctrlIn.IsControlOutput())
}

func TestDescriptorPortLookup(t *testing.T) {
	d := &Descriptor{
		ID:   1,
		Name: "Amp",
		Ports: []PortDecl{
			{Ordinal: 0, Name: "Input", Medium: Audio, Direction: Input},
			{Ordinal: 1, Name: "Gain", Medium: Control, Direction: Input},
		},
	}

	p, ok := d.Port("Gain")
	require.True(t, ok)
	require.Equal(t, 1, p.Ordinal)

	_, ok = d.Port("NoSuchPort")
	require.False(t, ok)

	p2, ok := d.PortByOrdinal(0)
	require.True(t, ok)
	require.Equal(t, "Input", p2.Name)
}
