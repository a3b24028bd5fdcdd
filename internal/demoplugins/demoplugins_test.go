package demoplugins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundgraph/effectshost/internal/effect"
	"github.com/soundgraph/effectshost/internal/plugin"
)

func newRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	r := plugin.NewRegistry()
	require.NoError(t, r.RegisterLibrary(Library()))
	return r
}

func instantiate(t *testing.T, r *plugin.Registry, name string, sampleRate float64) *effect.Effect {
	t.Helper()
	d, err := r.GetDescriptorByName(name)
	require.NoError(t, err)
	h, err := r.Instantiate(d, sampleRate)
	require.NoError(t, err)
	return effect.New(d, h)
}

func TestLibraryRegistersEveryDescriptorWithUniqueIdentity(t *testing.T) {
	r := newRegistry(t)
	for _, name := range []string{
		"Identity", "Amp", "Oscillator",
		"LowPassFilter", "HighPassFilter", "BandPassFilter", "NotchFilter",
		"Delay", "Distortion", "Chorus", "BitCrusher",
	} {
		_, err := r.GetDescriptorByName(name)
		require.NoErrorf(t, err, "expected %s to be registered", name)
	}
}

func TestOscillatorGeneratesSineAtDefaultFrequency(t *testing.T) {
	e := instantiate(t, newRegistry(t), "Oscillator", 44100)
	out := make([]float32, 64)
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.Activate())

	e.Run(64)

	var nonZero bool
	for _, s := range out {
		if s != 0 {
			nonZero = true
			break
		}
	}
	require.True(t, nonZero, "oscillator should have produced non-silent output")
}

func TestOscillatorSquareWaveformAlternatesSign(t *testing.T) {
	e := instantiate(t, newRegistry(t), "Oscillator", 1000)
	out := make([]float32, 4)
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.SetControl("Waveform", float64(waveSquare)))
	require.NoError(t, e.SetControl("Frequency", 100))
	require.NoError(t, e.Activate())

	e.Run(4)
	require.Equal(t, float32(1), out[0])
}

func TestLowPassFilterAttenuatesHighFrequencyImpulse(t *testing.T) {
	e := instantiate(t, newRegistry(t), "LowPassFilter", 44100)
	in := []float32{1, -1, 1, -1, 1, -1, 1, -1}
	out := make([]float32, len(in))
	require.NoError(t, e.Connect("Input", in))
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.SetControl("Cutoff", 200))
	require.NoError(t, e.Activate())

	e.Run(len(in))

	require.Less(t, absF32(out[len(out)-1]), float32(1.0))
}

func TestDelayFeedsBackInput(t *testing.T) {
	e := instantiate(t, newRegistry(t), "Delay", 8)
	in := make([]float32, 16)
	in[0] = 1
	out := make([]float32, 16)
	require.NoError(t, e.Connect("Input", in))
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.SetControl("Time", 1.0))
	require.NoError(t, e.SetControl("Mix", 1.0))
	require.NoError(t, e.Activate())

	e.Run(16)
	require.NotEqual(t, float32(0), out[7])
}

func TestDistortionClipsLoudSignal(t *testing.T) {
	e := instantiate(t, newRegistry(t), "Distortion", 44100)
	in := []float32{10}
	out := make([]float32, 1)
	require.NoError(t, e.Connect("Input", in))
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.SetControl("Drive", 20))
	require.NoError(t, e.SetControl("Level", 1.0))
	require.NoError(t, e.SetControl("Mix", 1.0))
	require.NoError(t, e.Activate())

	e.Run(1)
	require.LessOrEqual(t, absF32(out[0]), float32(1.0))
}

func TestBitCrusherHoldsSamples(t *testing.T) {
	e := instantiate(t, newRegistry(t), "BitCrusher", 44100)
	in := []float32{0.5, 0.6, 0.7, 0.8}
	out := make([]float32, 4)
	require.NoError(t, e.Connect("Input", in))
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.SetControl("RateReduction", 0.25))
	require.NoError(t, e.SetControl("Mix", 1.0))
	require.NoError(t, e.Activate())

	e.Run(4)
	require.Equal(t, out[0], out[1])
	require.Equal(t, out[0], out[2])
	require.Equal(t, out[0], out[3])
}

func TestChorusPassesSignalWithinDelayWindow(t *testing.T) {
	e := instantiate(t, newRegistry(t), "Chorus", 44100)
	in := make([]float32, 32)
	for i := range in {
		in[i] = 0.5
	}
	out := make([]float32, 32)
	require.NoError(t, e.Connect("Input", in))
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.Activate())

	e.Run(32)
	require.NotEqual(t, make([]float32, 32), out)
}

func absF32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
