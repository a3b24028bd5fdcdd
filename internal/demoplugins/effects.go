package demoplugins

import (
	"math"

	"github.com/soundgraph/effectshost/pkg/pluginapi"
)

// --- Delay --------------------------------------------------------

type delayHandle struct {
	in, out []float32

	time, feedback, mix *float32

	sampleRate float64
	line       []float32
	index      int
}

func (h *delayHandle) ConnectPort(ordinal int, buf []float32) {
	switch ordinal {
	case 0:
		h.in = buf
	case 3:
		h.out = buf
	}
}

func (h *delayHandle) BindControl(ordinal int, slot *float32) {
	switch ordinal {
	case 1:
		h.time = slot
	case 2:
		h.feedback = slot
	case 4:
		h.mix = slot
	}
}

func (h *delayHandle) Run(nframes int) {
	delaySamples := int(float64(*h.time) * h.sampleRate)
	if delaySamples >= len(h.line) {
		delaySamples = len(h.line) - 1
	}
	if delaySamples < 0 {
		delaySamples = 0
	}
	feedback, mix := *h.feedback, *h.mix

	for i := 0; i < nframes; i++ {
		readIndex := (h.index - delaySamples + len(h.line)) % len(h.line)
		delayed := h.line[readIndex]
		dry := h.in[i]

		h.line[h.index] = dry + delayed*feedback
		h.out[i] = dry*(1-mix) + delayed*mix

		h.index = (h.index + 1) % len(h.line)
	}
}

func delayDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{
		ID:   20,
		Name: "Delay",
		Ports: []pluginapi.PortDecl{
			{Ordinal: 0, Name: "Input", Medium: pluginapi.Audio, Direction: pluginapi.Input},
			{Ordinal: 1, Name: "Time", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultLow, LowerBound: 0.0, UpperBound: 1.0},
			{Ordinal: 2, Name: "Feedback", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultLow, LowerBound: 0.0, UpperBound: 1.0},
			{Ordinal: 3, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
			{Ordinal: 4, Name: "Mix", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.0, UpperBound: 1.0},
		},
		Instantiate: func(sampleRate float64) (pluginapi.Handle, error) {
			return &delayHandle{sampleRate: sampleRate, line: make([]float32, int(sampleRate))}, nil
		},
	}
}

// --- Distortion -----------------------------------------------------

type distortionHandle struct {
	in, out []float32

	drive, level, mix *float32
}

func (h *distortionHandle) ConnectPort(ordinal int, buf []float32) {
	switch ordinal {
	case 0:
		h.in = buf
	case 3:
		h.out = buf
	}
}

func (h *distortionHandle) BindControl(ordinal int, slot *float32) {
	switch ordinal {
	case 1:
		h.drive = slot
	case 2:
		h.level = slot
	case 4:
		h.mix = slot
	}
}

func (h *distortionHandle) Run(nframes int) {
	drive, level, mix := float64(*h.drive), float64(*h.level), float64(*h.mix)
	for i := 0; i < nframes; i++ {
		dry := h.in[i]
		wet := math.Tanh(float64(dry) * drive) * level
		h.out[i] = float32(float64(dry)*(1-mix) + wet*mix)
	}
}

func distortionDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{
		ID:   21,
		Name: "Distortion",
		Ports: []pluginapi.PortDecl{
			{Ordinal: 0, Name: "Input", Medium: pluginapi.Audio, Direction: pluginapi.Input},
			{Ordinal: 1, Name: "Drive", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultLow, LowerBound: 1.0, UpperBound: 50.0},
			{Ordinal: 2, Name: "Level", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.0, UpperBound: 1.0},
			{Ordinal: 3, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
			{Ordinal: 4, Name: "Mix", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.0, UpperBound: 1.0},
		},
		Instantiate: func(float64) (pluginapi.Handle, error) {
			return &distortionHandle{}, nil
		},
	}
}

// --- Chorus -----------------------------------------------------------

type chorusHandle struct {
	in, out []float32

	rate, depth, baseDelay, mix *float32

	sampleRate float64
	line       []float32
	index      int
	lfoPhase   float64
}

func (h *chorusHandle) ConnectPort(ordinal int, buf []float32) {
	switch ordinal {
	case 0:
		h.in = buf
	case 4:
		h.out = buf
	}
}

func (h *chorusHandle) BindControl(ordinal int, slot *float32) {
	switch ordinal {
	case 1:
		h.rate = slot
	case 2:
		h.depth = slot
	case 3:
		h.baseDelay = slot
	case 5:
		h.mix = slot
	}
}

func (h *chorusHandle) Run(nframes int) {
	rate, depth := float64(*h.rate), float64(*h.depth)
	baseDelay, mix := float64(*h.baseDelay), float64(*h.mix)
	lfoIncrement := 2.0 * math.Pi * rate / h.sampleRate

	for i := 0; i < nframes; i++ {
		lfo := math.Sin(h.lfoPhase) * depth
		h.lfoPhase += lfoIncrement
		if h.lfoPhase >= 2.0*math.Pi {
			h.lfoPhase -= 2.0 * math.Pi
		}

		delayTime := baseDelay + baseDelay*lfo
		delaySamples := delayTime * h.sampleRate
		delaySamplesInt := int(delaySamples)
		fraction := delaySamples - float64(delaySamplesInt)

		if delaySamplesInt >= 0 && delaySamplesInt < len(h.line)-1 {
			readIndex1 := (h.index - delaySamplesInt + len(h.line)) % len(h.line)
			readIndex2 := (readIndex1 - 1 + len(h.line)) % len(h.line)

			sample1, sample2 := h.line[readIndex1], h.line[readIndex2]
			delayed := float64(sample1)*(1-fraction) + float64(sample2)*fraction

			h.line[h.index] = h.in[i]
			h.out[i] = float32(float64(h.in[i])*(1-mix) + delayed*mix)
			h.index = (h.index + 1) % len(h.line)
		} else {
			h.out[i] = h.in[i]
		}
	}
}

func chorusDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{
		ID:   22,
		Name: "Chorus",
		Ports: []pluginapi.PortDecl{
			{Ordinal: 0, Name: "Input", Medium: pluginapi.Audio, Direction: pluginapi.Input},
			{Ordinal: 1, Name: "Rate", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultLow, LowerBound: 0.05, UpperBound: 5.0},
			{Ordinal: 2, Name: "Depth", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.0, UpperBound: 1.0},
			{Ordinal: 3, Name: "BaseDelay", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.005, UpperBound: 0.05},
			{Ordinal: 4, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
			{Ordinal: 5, Name: "Mix", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.0, UpperBound: 1.0},
		},
		Instantiate: func(sampleRate float64) (pluginapi.Handle, error) {
			return &chorusHandle{sampleRate: sampleRate, line: make([]float32, int(sampleRate/10))}, nil
		},
	}
}

// --- BitCrusher ------------------------------------------------------

type bitCrusherHandle struct {
	in, out []float32

	bits, rateReduction, mix *float32

	sampleHold float32
	holdCount  int
}

func (h *bitCrusherHandle) ConnectPort(ordinal int, buf []float32) {
	switch ordinal {
	case 0:
		h.in = buf
	case 3:
		h.out = buf
	}
}

func (h *bitCrusherHandle) BindControl(ordinal int, slot *float32) {
	switch ordinal {
	case 1:
		h.bits = slot
	case 2:
		h.rateReduction = slot
	case 4:
		h.mix = slot
	}
}

func (h *bitCrusherHandle) Run(nframes int) {
	levels := math.Pow(2, float64(*h.bits))
	stepSize := 2.0 / levels
	holdPeriod := int(1.0 / float64(*h.rateReduction))
	if holdPeriod < 1 {
		holdPeriod = 1
	}
	mix := float64(*h.mix)

	for i := 0; i < nframes; i++ {
		if h.holdCount == 0 {
			h.sampleHold = h.in[i]
			h.holdCount = holdPeriod
		}
		h.holdCount--

		sample := float64(h.sampleHold)
		if sample > 0 {
			sample = math.Floor(sample/stepSize) * stepSize
		} else {
			sample = math.Ceil(sample/stepSize) * stepSize
		}

		dry := h.in[i]
		h.out[i] = float32(float64(dry)*(1-mix) + sample*mix)
	}
}

func bitCrusherDescriptor() *pluginapi.Descriptor {
	return &pluginapi.Descriptor{
		ID:   23,
		Name: "BitCrusher",
		Ports: []pluginapi.PortDecl{
			{Ordinal: 0, Name: "Input", Medium: pluginapi.Audio, Direction: pluginapi.Input},
			{Ordinal: 1, Name: "Bits", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultHigh, LowerBound: 1.0, UpperBound: 16.0},
			{Ordinal: 2, Name: "RateReduction", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMiddle, LowerBound: 0.01, UpperBound: 1.0},
			{Ordinal: 3, Name: "Output", Medium: pluginapi.Audio, Direction: pluginapi.Output},
			{Ordinal: 4, Name: "Mix", Medium: pluginapi.Control, Direction: pluginapi.Input,
				Hint: pluginapi.DefaultMax, LowerBound: 0.0, UpperBound: 1.0},
		},
		Instantiate: func(float64) (pluginapi.Handle, error) {
			return &bitCrusherHandle{}, nil
		},
	}
}
