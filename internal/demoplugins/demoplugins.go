// Package demoplugins is a built-in plugin library the host can load
// without a real shared-object file: it satisfies the same
// pluginapi.Descriptor/Handle contract a `.so` built with
// `-buildmode=plugin` would, so a config document can reference
// "Identity", "Amp", "Oscillator", and friends with no external
// dependency. Registered via plugin.Registry.RegisterLibrary rather
// than Registry.Open.
//
// The DSP content here — oscillator waveforms, the biquad filter, and
// the delay/distortion/chorus/bit-crusher effects — is carried over
// from this project's previous single-engine synth, rewritten against
// the per-instance Handle contract instead of a shared mutable
// processing list: each Handle below owns its own state and is driven
// only through ConnectPort/Run, so many instances of the same plugin
// type can run concurrently in different chains.
package demoplugins

import (
	"github.com/soundgraph/effectshost/internal/plugin"
	"github.com/soundgraph/effectshost/pkg/pluginapi"
)

// LibraryPath is the synthetic path recorded for this library in the
// registry's load order; it never resolves to a real file.
const LibraryPath = "builtin://demoplugins"

// Library returns the plugin.Library the processor registers at
// startup for every config that wants these built-in types, via
// Registry.RegisterLibrary (no filesystem .so involved).
func Library() *plugin.Library {
	return &plugin.Library{
		Path: LibraryPath,
		Descriptors: []*pluginapi.Descriptor{
			identityDescriptor(),
			ampDescriptor(),
			oscillatorDescriptor(),
			lowPassFilterDescriptor(),
			highPassFilterDescriptor(),
			bandPassFilterDescriptor(),
			notchFilterDescriptor(),
			delayDescriptor(),
			distortionDescriptor(),
			chorusDescriptor(),
			bitCrusherDescriptor(),
		},
	}
}

// --- Identity -------------------------------------------------------

type identityHandle struct {
	in, out []float32
}

func (h *identityHandle) ConnectPort(ordinal int, buf []float32) {
	switch ordinal {
	case 0:
		h.in = buf
	case 1:
		h.out = buf
	}
}

func (h *identityHandle) Run(nframes int) {
	copy(h.out[:nframes], h.in[:nframes])
}

func identityDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{
		ID:   1,
		Name: "Identity",
		Ports: []pluginapi.PortDecl{
			{Ordinal: 0, Name: "Input", Medium: pluginapi.Audio, Direction: pluginapi.Input},
			{Ordinal: 1, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
		},
		Instantiate: func(float64) (pluginapi.Handle, error) {
			return &identityHandle{}, nil
		},
	}
}

// --- Amp --------------------------------------------------------------

type ampHandle struct {
	in, out []float32
	gain    *float32
}

func (h *ampHandle) ConnectPort(ordinal int, buf []float32) {
	switch ordinal {
	case 0:
		h.in = buf
	case 2:
		h.out = buf
	}
}

func (h *ampHandle) BindControl(ordinal int, slot *float32) {
	if ordinal == 1 {
		h.gain = slot
	}
}

func (h *ampHandle) Run(nframes int) {
	g := *h.gain
	for i := 0; i < nframes; i++ {
		h.out[i] = h.in[i] * g
	}
}

func ampDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{
		ID:   2,
		Name: "Amp",
		Ports: []pluginapi.PortDecl{
			{Ordinal: 0, Name: "Input", Medium: pluginapi.Audio, Direction: pluginapi.Input},
			{Ordinal: 1, Name: "Gain", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.0, UpperBound: 2.0},
			{Ordinal: 2, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
		},
		Instantiate: func(float64) (pluginapi.Handle, error) {
			return &ampHandle{}, nil
		},
	}
}
