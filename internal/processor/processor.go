// Package processor implements the top-level orchestrator (component
// E): it owns the chains, the plugin registry, and the audio-server
// client, implements the client's callback handlers, and performs
// auto-connect of external ports. Grounded on the teacher's
// AudioEngine as the thing that wires oscillators/filters/effects to
// a PortAudio stream, generalized from a single hardcoded mix chain
// into the config-driven multi-chain graph SPEC_FULL.md §4.E
// describes.
package processor

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/soundgraph/effectshost/internal/audioserver"
	"github.com/soundgraph/effectshost/internal/chain"
	"github.com/soundgraph/effectshost/internal/config"
	"github.com/soundgraph/effectshost/internal/demoplugins"
	"github.com/soundgraph/effectshost/internal/eventbus"
	"github.com/soundgraph/effectshost/internal/herr"
	"github.com/soundgraph/effectshost/internal/plugin"
)

// Processor owns every chain, the plugin registry, and the
// audio-server client for one running instance. Startup is one-shot:
// Start may be called exactly once.
type Processor struct {
	sampleRate    float64
	maxBufferSize int

	bus    *eventbus.Bus
	logger *log.Logger

	client   *audioserver.Client
	registry *plugin.Registry

	// mu guards everything below: construction-time state the
	// realtime callback (onProcess) only ever reads after Start
	// returns, and the one-shot initialized/activated guards.
	mu          sync.Mutex
	chains      []*chain.Chain
	autoConnect map[string][]string
	initialized bool
	activated   bool
}

// New constructs a processor targeting the given sample rate and max
// buffer size, emitting lifecycle events on bus and diagnostics
// through logger.
func New(sampleRate float64, maxBufferSize int, bus *eventbus.Bus, logger *log.Logger) *Processor {
	return &Processor{
		sampleRate:    sampleRate,
		maxBufferSize: maxBufferSize,
		bus:           bus,
		logger:        logger,
		autoConnect:   make(map[string][]string),
	}
}

// Start executes the startup sequence of §4.E steps 1-8: open the
// audio client, record auto-connect routes, load plugins, build every
// declared chain, activate the chains then the client, run
// auto-connect once, and emit audio_started. Asserts Start has not
// already run.
func (p *Processor) Start(doc *config.Document) error {
	p.mu.Lock()
	if p.initialized {
		p.mu.Unlock()
		return herr.New(herr.ConfigInvalid, "processor already initialized")
	}
	p.mu.Unlock()

	p.client = audioserver.New(p.sampleRate, p.maxBufferSize)
	p.client.SetCallbacks(audioserver.Callbacks{
		OnProcess:          p.onProcess,
		OnShutdown:         p.onShutdown,
		OnPortRegister:     p.onPortRegister,
		OnClientRegister:   p.onClientRegister,
		OnSampleRateChange: p.onSampleRateChange,
		OnBufferSizeChange: p.onBufferSizeChange,
	})
	if err := p.client.Open(); err != nil {
		return err
	}

	for _, route := range doc.Routes {
		p.autoConnect[route[0]] = append(p.autoConnect[route[0]], route[1])
	}

	p.registry = plugin.NewRegistry()
	for _, path := range doc.Plugins {
		if path == demoplugins.LibraryPath {
			if err := p.registry.RegisterLibrary(demoplugins.Library()); err != nil {
				return err
			}
			continue
		}
		p.logger.Info("loading plugin library", "path", path)
		if err := p.registry.Open(path); err != nil {
			return err
		}
	}

	for name, decl := range doc.Chains {
		if err := p.buildChain(name, decl); err != nil {
			return err
		}
	}

	if err := p.activateChains(); err != nil {
		return err
	}

	if err := p.client.Activate(); err != nil {
		return err
	}

	p.runAutoConnect()

	p.bus.Send(eventbus.Event{Kind: eventbus.AudioStarted})

	p.mu.Lock()
	p.initialized = true
	p.mu.Unlock()
	return nil
}

// buildChain creates one external port per declared chain input and
// output named per chain.PortName, then builds the chain itself via
// chain.Build against the processor's registry.
func (p *Processor) buildChain(name string, decl config.ChainDecl) error {
	for n := range decl.Inputs {
		if err := p.client.AddInput(chain.PortName(name, "in", n+1)); err != nil {
			return err
		}
	}
	for n := range decl.Outputs {
		if err := p.client.AddOutput(chain.PortName(name, "out", n+1)); err != nil {
			return err
		}
	}

	c, err := chain.Build(decl.ChainSpec(name), p.registry, p.sampleRate, p.maxBufferSize)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.chains = append(p.chains, c)
	p.mu.Unlock()
	return nil
}

// activateChains acquires the client lock, activates every chain in
// insertion order, marks the processor activated, then releases the
// lock — §4.E step 5, and the lock-discipline rule that graph
// mutation happens only while the client lock is held.
func (p *Processor) activateChains() error {
	p.mu.Lock()
	if p.activated {
		p.mu.Unlock()
		return herr.New(herr.ConfigInvalid, "processor already activated")
	}
	chains := append([]*chain.Chain(nil), p.chains...)
	p.mu.Unlock()

	unlock := p.client.Lock()
	defer unlock()

	for _, c := range chains {
		if err := c.Activate(); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.activated = true
	p.mu.Unlock()
	return nil
}

// runAutoConnect consults the auto-connect table against every
// currently known external port: an AlreadyConnected result is
// ignored, any other failure is logged and non-fatal (§4.E step 7,
// §7).
func (p *Processor) runAutoConnect() {
	for _, src := range p.client.KnownPortNames() {
		targets, ok := p.autoConnect[src]
		if !ok {
			continue
		}
		for _, dst := range targets {
			err := p.client.ConnectPort(src, dst)
			if err == nil || errors.Is(err, audioserver.ErrAlreadyConnected) {
				continue
			}
			p.logger.Warn("auto-connect failed", "src", src, "dst", dst, "err", err)
		}
	}
}

// onProcess is the realtime callback (§4.E "Runtime"): it drives
// every owned chain in insertion order, then emits audio_processed.
// Realtime-safe: no allocation beyond what chain.Run itself performs
// (none — chains pre-allocate all buffers at Build time), the bus
// Send never blocks, and the client lock is already held by the
// caller for the whole call.
func (p *Processor) onProcess(nframes int) {
	for _, c := range p.chains {
		c.Run(nframes, p.client)
	}
	p.bus.Send(eventbus.Event{Kind: eventbus.AudioProcessed})
}

func (p *Processor) onShutdown() {
	p.bus.Send(eventbus.Event{Kind: eventbus.AudioStopped})
}

func (p *Processor) onPortRegister(name string) {
	p.bus.Send(eventbus.Event{Kind: eventbus.AudioClientChange})
}

func (p *Processor) onClientRegister(name string) {
	p.bus.Send(eventbus.Event{Kind: eventbus.AudioClientChange})
}

// onSampleRateChange and onBufferSizeChange handle the two
// unrecoverable notifications (§4.D, §7): both push a Fatal event
// rather than unwinding through the realtime callback, and the
// supervisor is responsible for terminating the process.
func (p *Processor) onSampleRateChange(newRate float64) {
	p.bus.Send(eventbus.Event{
		Kind: eventbus.Fatal,
		Err:  herr.Newf(herr.Unrecoverable, "sample rate changed from %.0f to %.0f", p.sampleRate, newRate),
	})
}

func (p *Processor) onBufferSizeChange(newSize int) {
	p.bus.Send(eventbus.Event{
		Kind: eventbus.Fatal,
		Err:  herr.Newf(herr.Unrecoverable, "buffer size changed from %d to %d", p.maxBufferSize, newSize),
	})
}

// RunAutoConnect re-executes auto-connect; the supervisor calls this
// in reaction to an audio_client_change event (§4.E: "the supervisor
// may then re-run auto-connect").
func (p *Processor) RunAutoConnect() {
	p.runAutoConnect()
}

// Close stops the audio client and releases its resources.
func (p *Processor) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

// Client exposes the underlying audio-server client, for the
// in-process fault-injection hooks (SimulateSampleRateChange /
// SimulateBufferSizeChange) a supervisor or test harness drives.
func (p *Processor) Client() *audioserver.Client { return p.client }
