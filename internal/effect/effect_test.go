package effect

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundgraph/effectshost/pkg/pluginapi"
)

type gainHandle struct {
	in, out []float32
	gain    *float32
}

func (h *gainHandle) ConnectPort(ordinal int, buf []float32) {
	if ordinal == 0 {
		h.in = buf
	} else if ordinal == 2 {
		h.out = buf
	}
}

func (h *gainHandle) BindControl(ordinal int, slot *float32) {
	if ordinal == 1 {
		h.gain = slot
	}
}

func (h *gainHandle) Run(nframes int) {
	for i := 0; i < nframes; i++ {
		h.out[i] = h.in[i] * *h.gain
	}
}

func ampDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{
		ID:   42,
		Name: "Amp",
		Ports: []pluginapi.PortDecl{
			{Ordinal: 0, Name: "Input", Medium: pluginapi.Audio, Direction: pluginapi.Input},
			{Ordinal: 1, Name: "Gain", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.0, UpperBound: 2.0},
			{Ordinal: 2, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
		},
		Instantiate: func(sampleRate float64) (pluginapi.Handle, error) {
			return &gainHandle{}, nil
		},
	}
}

func newAmp(t *testing.T) *Effect {
	t.Helper()
	d := ampDescriptor()
	h, err := d.Instantiate(44100)
	require.NoError(t, err)
	return New(d, h)
}

func TestDefaultHintAppliedOnInstantiate(t *testing.T) {
	e := newAmp(t)
	v, err := e.GetControl("Gain")
	require.NoError(t, err)
	require.InDelta(t, 1.0, v, 1e-9) // MIDDLE over (0.0, 2.0)
}

func TestSetAndGetControl(t *testing.T) {
	e := newAmp(t)
	require.NoError(t, e.SetControl("Gain", 2.0))
	v, err := e.GetControl("Gain")
	require.NoError(t, err)
	require.Equal(t, 2.0, v)
}

func TestGetControlUnknownPort(t *testing.T) {
	e := newAmp(t)
	_, err := e.GetControl("NoSuchControl")
	require.Error(t, err)
}

func TestNudgeIsReadModifyWrite(t *testing.T) {
	e := newAmp(t)
	require.NoError(t, e.SetControl("Gain", 1.0))

	v, err := e.Nudge("Gain", 0.5)
	require.NoError(t, err)
	require.Equal(t, 1.5, v)

	got, _ := e.GetControl("Gain")
	require.Equal(t, 1.5, got)
}

func TestNudgeConcurrentIsSerialized(t *testing.T) {
	e := newAmp(t)
	require.NoError(t, e.SetControl("Gain", 0.0))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Nudge("Gain", 1.0)
		}()
	}
	wg.Wait()

	got, _ := e.GetControl("Gain")
	require.Equal(t, 100.0, got)
}

func TestActivateFailsWhenNotFullyConnected(t *testing.T) {
	e := newAmp(t)
	err := e.Activate()
	require.Error(t, err)
}

func TestConnectDisconnectConnectRoundTrip(t *testing.T) {
	e := newAmp(t)
	buf := make([]float32, 4)

	require.NoError(t, e.Connect("Input", buf))
	require.NoError(t, e.Disconnect("Input"))
	require.NoError(t, e.Connect("Input", buf))
	require.NoError(t, e.Connect("Output", buf))

	require.NoError(t, e.Activate())
}

func TestActivateIsOneWay(t *testing.T) {
	e := newAmp(t)
	buf := make([]float32, 4)
	require.NoError(t, e.Connect("Input", buf))
	require.NoError(t, e.Connect("Output", buf))

	require.NoError(t, e.Activate())
	require.True(t, e.Active())
	require.NoError(t, e.Activate()) // idempotent, still active
	require.True(t, e.Active())
}

func TestRunZeroFramesIsNoop(t *testing.T) {
	e := newAmp(t)
	in := []float32{1, 2, 3, 4}
	out := make([]float32, 4)
	require.NoError(t, e.Connect("Input", in))
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.SetControl("Gain", 2.0))
	require.NoError(t, e.Activate())

	e.Run(0)
	require.Equal(t, []float32{0, 0, 0, 0}, out)
}

func TestRunAppliesGain(t *testing.T) {
	e := newAmp(t)
	in := []float32{0.1, -0.1}
	out := make([]float32, 2)
	require.NoError(t, e.Connect("Input", in))
	require.NoError(t, e.Connect("Output", out))
	require.NoError(t, e.SetControl("Gain", 2.0))
	require.NoError(t, e.Activate())

	e.Run(2)
	require.InDeltaSlice(t, []float64{0.2, -0.2}, toFloat64(out), 1e-6)
}

func toFloat64(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
