package demoplugins

import (
	"math"

	"github.com/soundgraph/effectshost/pkg/pluginapi"
)

// waveform selects the oscillator's shape. Controlled through the
// Waveform control port, which carries the enum ordinal as a float and
// is rounded on read — control ports are scalar by contract (§3), so a
// closed enum rides on the same storage a continuous knob would use.
type waveform int

const (
	waveSine waveform = iota
	waveSaw
	waveSquare
	waveTriangle
	waveNoise
)

type oscillatorHandle struct {
	out []float32

	frequency *float32
	amplitude *float32
	waveform  *float32

	sampleRate float64
	phase      float64
	phaseInc   float64
	randState  uint64
}

func (h *oscillatorHandle) ConnectPort(ordinal int, buf []float32) {
	if ordinal == outOrdinalOscillator {
		h.out = buf
	}
}

const outOrdinalOscillator = 3

func (h *oscillatorHandle) BindControl(ordinal int, slot *float32) {
	switch ordinal {
	case 0:
		h.frequency = slot
	case 1:
		h.amplitude = slot
	case 2:
		h.waveform = slot
	}
}

func (h *oscillatorHandle) Run(nframes int) {
	freq := float64(*h.frequency)
	amp := float64(*h.amplitude)
	shape := waveform(*h.waveform + 0.5)

	h.phaseInc = 2.0 * math.Pi * freq / h.sampleRate

	for i := 0; i < nframes; i++ {
		var sample float64
		switch shape {
		case waveSine:
			sample = math.Sin(h.phase)
		case waveSaw:
			sample = 2.0*(h.phase/(2.0*math.Pi)) - 1.0
		case waveSquare:
			if h.phase < math.Pi {
				sample = 1.0
			} else {
				sample = -1.0
			}
		case waveTriangle:
			if h.phase < math.Pi {
				sample = -1.0 + (2.0 * h.phase / math.Pi)
			} else {
				sample = 3.0 - (2.0 * h.phase / math.Pi)
			}
		case waveNoise:
			sample = h.nextRand()*2.0 - 1.0
		}

		h.out[i] = float32(sample * amp)

		h.phase += h.phaseInc
		if h.phase >= 2.0*math.Pi {
			h.phase -= 2.0 * math.Pi
		}
	}
}

// nextRand is a small linear congruential PRNG — realtime-safe (no
// allocation, no syscall), unlike math/rand's global-lock default
// source.
func (h *oscillatorHandle) nextRand() float64 {
	h.randState = h.randState*6364136223846793005 + 1442695040888963407
	return float64(h.randState>>32) / float64(1<<32)
}

func oscillatorDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{
		ID:   3,
		Name: "Oscillator",
		Ports: []pluginapi.PortDecl{
			{Ordinal: 0, Name: "Frequency", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.Default440},
			{Ordinal: 1, Name: "Amplitude", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.Default1},
			{Ordinal: 2, Name: "Waveform", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultNone},
			{Ordinal: 3, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
		},
		Instantiate: func(sampleRate float64) (pluginapi.Handle, error) {
			return &oscillatorHandle{sampleRate: sampleRate, randState: 12345}, nil
		},
	}
}
