package demoplugins

import (
	"math"

	"github.com/soundgraph/effectshost/pkg/pluginapi"
)

// biquadKind selects which difference equation updateBiquad derives
// from cutoff/resonance. Each kind gets its own descriptor (§3's port
// bitset has no room for a type-selecting control), mirroring how the
// original single-engine filter exposed LowPass/HighPass/BandPass/
// Notch as one enum.
type biquadKind int

const (
	biquadLowPass biquadKind = iota
	biquadHighPass
	biquadBandPass
	biquadNotch
)

type filterHandle struct {
	kind biquadKind
	in   []float32
	out  []float32

	cutoff     *float32
	resonance  *float32
	sampleRate float64

	lastCutoff, lastResonance float64
	b0, b1, b2, a1, a2         float64
	x1, x2, y1, y2             float64
}

func (h *filterHandle) ConnectPort(ordinal int, buf []float32) {
	switch ordinal {
	case 0:
		h.in = buf
	case 2:
		h.out = buf
	}
}

func (h *filterHandle) BindControl(ordinal int, slot *float32) {
	switch ordinal {
	case 1:
		h.cutoff = slot
	case 3:
		h.resonance = slot
	}
}

// updateCoefficients recomputes the biquad's normalized coefficients
// from the current cutoff/resonance, ported from the original
// Butterworth-derivation formulas — only recomputed when either
// control has actually moved, so Run's hot path stays a single
// multiply-add chain on the unchanged-knob case.
func (h *filterHandle) updateCoefficients() {
	cutoff := float64(*h.cutoff)
	resonance := float64(*h.resonance)
	if cutoff == h.lastCutoff && resonance == h.lastResonance {
		return
	}
	h.lastCutoff, h.lastResonance = cutoff, resonance

	q := resonance
	if q < 0.1 {
		q = 0.1
	}
	if q > 10.0 {
		q = 10.0
	}

	omega := 2.0 * math.Pi * cutoff / h.sampleRate
	sin, cos := math.Sin(omega), math.Cos(omega)
	alpha := sin / (2.0 * q)

	var a0 float64
	switch h.kind {
	case biquadLowPass:
		h.b0 = (1.0 - cos) / 2.0
		h.b1 = 1.0 - cos
		h.b2 = (1.0 - cos) / 2.0
		a0 = 1.0 + alpha
		h.a1 = -2.0 * cos
		h.a2 = 1.0 - alpha
	case biquadHighPass:
		h.b0 = (1.0 + cos) / 2.0
		h.b1 = -(1.0 + cos)
		h.b2 = (1.0 + cos) / 2.0
		a0 = 1.0 + alpha
		h.a1 = -2.0 * cos
		h.a2 = 1.0 - alpha
	case biquadBandPass:
		h.b0 = alpha
		h.b1 = 0.0
		h.b2 = -alpha
		a0 = 1.0 + alpha
		h.a1 = -2.0 * cos
		h.a2 = 1.0 - alpha
	case biquadNotch:
		h.b0 = 1.0
		h.b1 = -2.0 * cos
		h.b2 = 1.0
		a0 = 1.0 + alpha
		h.a1 = -2.0 * cos
		h.a2 = 1.0 - alpha
	}

	h.b0 /= a0
	h.b1 /= a0
	h.b2 /= a0
	h.a1 /= a0
	h.a2 /= a0
}

func (h *filterHandle) Run(nframes int) {
	h.updateCoefficients()

	for i := 0; i < nframes; i++ {
		x0 := float64(h.in[i])
		y0 := h.b0*x0 + h.b1*h.x1 + h.b2*h.x2 - h.a1*h.y1 - h.a2*h.y2

		h.x2, h.x1 = h.x1, x0
		h.y2, h.y1 = h.y1, y0

		if y0 > 1.0 {
			y0 = 1.0
		} else if y0 < -1.0 {
			y0 = -1.0
		}
		h.out[i] = float32(y0)
	}
}

func newFilterInstantiate(kind biquadKind) func(float64) (pluginapi.Handle, error) {
	return func(sampleRate float64) (pluginapi.Handle, error) {
		return &filterHandle{kind: kind, sampleRate: sampleRate, lastCutoff: -1, lastResonance: -1}, nil
	}
}

func filterPorts() []pluginapi.PortDecl {
	return []pluginapi.PortDecl{
		{Ordinal: 0, Name: "Input", Medium: pluginapi.Audio, Direction: pluginapi.Input},
		{Ordinal: 1, Name: "Cutoff", Medium: pluginapi.Control, Direction: pluginapi.Input,
			Hint: pluginapi.DefaultMiddle, Logarithmic: true, LowerBound: 20.0, UpperBound: 20000.0},
		{Ordinal: 2, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
		{Ordinal: 3, Name: "Resonance", Medium: pluginapi.Control, Direction: pluginapi.Input,
			Hint: pluginapi.DefaultMiddle, LowerBound: 0.1, UpperBound: 10.0},
	}
}

func lowPassFilterDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{ID: 10, Name: "LowPassFilter", Ports: filterPorts(), Instantiate: newFilterInstantiate(biquadLowPass)}
}

func highPassFilterDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{ID: 11, Name: "HighPassFilter", Ports: filterPorts(), Instantiate: newFilterInstantiate(biquadHighPass)}
}

func bandPassFilterDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{ID: 12, Name: "BandPassFilter", Ports: filterPorts(), Instantiate: newFilterInstantiate(biquadBandPass)}
}

func notchFilterDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{ID: 13, Name: "NotchFilter", Ports: filterPorts(), Instantiate: newFilterInstantiate(biquadNotch)}
}
