// Package audioserver implements the audio-server client (component
// D): it registers the process with a realtime audio server, creates
// named audio ports, holds the realtime-vs-config lock, and dispatches
// server callbacks. Grounded directly on the teacher's
// AudioEngine/processAudio callback, generalized from a single fixed
// stereo mix into a named-port graph addressed by the auto-connect
// table and chain routes.
package audioserver

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/soundgraph/effectshost/internal/herr"
)

// ErrAlreadyConnected is returned by ConnectPort when the pair is
// already wired. It is not one of the §7 herr.Kind taxonomy — it is a
// benign, expected result callers (the processor's auto-connect pass)
// check for with errors.Is and ignore, not a fault to classify.
var ErrAlreadyConnected = errors.New("audioserver: ports already connected")

// Callbacks is the set of handlers the processor (component E) wires
// in before Activate. Every handler runs with the client lock already
// held; on_process, in particular, must not block.
type Callbacks struct {
	OnProcess           func(nframes int)
	OnShutdown          func()
	OnPortRegister      func(name string)
	OnPortUnregister    func(name string)
	OnClientRegister    func(name string)
	OnClientUnregister  func(name string)
	OnSampleRateChange  func(newRate float64)
	OnBufferSizeChange  func(newSize int)
}

// Client owns the connection to the realtime audio server: the
// PortAudio stream, the named external ports, and the single mutex
// (the "client lock") that separates the realtime callback from
// configuration operations.
type Client struct {
	mu sync.Mutex // the client lock

	sampleRate    float64
	maxBufferSize int

	stream *portaudio.Stream

	ports       map[string]*Port
	portOrder   []string // registration order, for KnownPortNames / system-channel assignment
	connections [][2]string

	cb Callbacks

	opened    bool
	activated bool
}

// New constructs a client targeting sampleRate / maxBufferSize. These
// mirror JACK's notion of a fixed sample rate and max buffer size for
// the lifetime of a client; both are treated as unrecoverable if the
// server reports a change (see SimulateSampleRateChange).
func New(sampleRate float64, maxBufferSize int) *Client {
	return &Client{
		sampleRate:    sampleRate,
		maxBufferSize: maxBufferSize,
		ports:         make(map[string]*Port),
	}
}

// SetCallbacks wires the processor's handlers in. Must be called
// before Activate.
func (c *Client) SetCallbacks(cb Callbacks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cb = cb
}

// Open initializes the underlying PortAudio runtime. Idempotent.
func (c *Client) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return herr.Wrap(herr.LoadFailed, err, "initialize audio server")
	}
	c.opened = true
	return nil
}

// AddInput registers a named external input port.
func (c *Client) AddInput(name string) error { return c.addPort(name, Input) }

// AddOutput registers a named external output port.
func (c *Client) AddOutput(name string) error { return c.addPort(name, Output) }

func (c *Client) addPort(name string, dir Direction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.ports[name]; exists {
		return fmt.Errorf("audio port %q already registered", name)
	}
	c.ports[name] = &Port{Name: name, Direction: dir, buf: make([]float32, c.maxBufferSize)}
	c.portOrder = append(c.portOrder, name)
	return nil
}

// KnownPortNames returns every registered port name, in registration
// order.
func (c *Client) KnownPortNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.portOrder))
	copy(out, c.portOrder)
	return out
}

// ConnectPort registers src→dst: on every subsequent cycle, src's
// buffer contents are copied into dst's buffer before the process
// callback runs. Fails UnknownPort if either name is unregistered,
// AlreadyConnected (ignored by callers per §7) if the pair is already
// wired.
func (c *Client) ConnectPort(src, dst string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.ports[src]; !ok {
		return herr.Newf(herr.UnknownPort, "unknown port %q", src)
	}
	if _, ok := c.ports[dst]; !ok {
		return herr.Newf(herr.UnknownPort, "unknown port %q", dst)
	}
	for _, conn := range c.connections {
		if conn[0] == src && conn[1] == dst {
			return ErrAlreadyConnected
		}
	}
	c.connections = append(c.connections, [2]string{src, dst})
	return nil
}

// Buffer returns the current-cycle buffer for a named port. The slice
// is sized to the client's max buffer size; only its first nframes
// samples belong to the in-flight callback. Implements
// chain.ExternalPorts. It is called from inside the realtime callback,
// which already holds the client lock, so Buffer does not take it.
func (c *Client) Buffer(name string) []float32 {
	p, ok := c.ports[name]
	if !ok {
		return nil
	}
	return p.buf
}

// Lock acquires the client lock and returns a function that releases
// it — a scoped-acquisition idiom so every call site releases on all
// exit paths: `defer client.Lock()()`. Configuration operations that
// mutate the graph acquire it this way, then release before Activate.
func (c *Client) Lock() func() {
	c.mu.Lock()
	return c.mu.Unlock
}

// Activate opens the realtime stream and starts it. The number of
// hardware input/output channels is the count of registered input /
// output ports: every registered port maps 1:1, in registration
// order, onto a hardware capture/playback channel.
func (c *Client) Activate() error {
	c.mu.Lock()
	inputs, outputs := c.channelCounts()
	c.mu.Unlock()

	stream, err := portaudio.OpenDefaultStream(
		inputs,
		outputs,
		c.sampleRate,
		c.maxBufferSize,
		c.process,
	)
	if err != nil {
		return herr.Wrap(herr.LoadFailed, err, "open audio stream")
	}

	c.mu.Lock()
	c.stream = stream
	c.mu.Unlock()

	if err := stream.Start(); err != nil {
		return herr.Wrap(herr.LoadFailed, err, "start audio stream")
	}

	c.mu.Lock()
	c.activated = true
	c.mu.Unlock()
	return nil
}

func (c *Client) channelCounts() (inputs, outputs int) {
	for _, name := range c.portOrder {
		switch c.ports[name].Direction {
		case Input:
			inputs++
		case Output:
			outputs++
		}
	}
	return inputs, outputs
}

// Close stops the stream and terminates the audio server connection.
func (c *Client) Close() {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()

	if stream != nil {
		_ = stream.Stop()
		_ = stream.Close()
	}
	portaudio.Terminate()
}

// process is the realtime callback: it refreshes input-port buffers
// from the hardware capture channels, propagates every registered
// connection in registration order, invokes the processor's
// on_process handler, then drains output-port buffers back into the
// hardware playback channels. The client lock is held for the whole
// call — the only way configuration operations and this callback can
// interleave is by waiting on this same mutex.
func (c *Client) process(in, out [][]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nframes := 0
	if len(out) > 0 {
		nframes = len(out[0])
	}

	inputIdx := 0
	for _, name := range c.portOrder {
		p := c.ports[name]
		if p.Direction != Input {
			continue
		}
		if inputIdx < len(in) {
			copy(p.buf[:nframes], in[inputIdx][:nframes])
		}
		inputIdx++
	}

	for _, conn := range c.connections {
		src, dst := c.ports[conn[0]], c.ports[conn[1]]
		copy(dst.buf[:nframes], src.buf[:nframes])
	}

	if c.cb.OnProcess != nil {
		c.cb.OnProcess(nframes)
	}

	outputIdx := 0
	for _, name := range c.portOrder {
		p := c.ports[name]
		if p.Direction != Output {
			continue
		}
		if outputIdx < len(out) {
			copy(out[outputIdx][:nframes], p.buf[:nframes])
		}
		outputIdx++
	}
}

// SimulateSampleRateChange is the test/fault-injection hook standing
// in for the real server's sample-rate-change notification: both
// sample-rate and buffer-size changes are unrecoverable (§4.D), so
// this immediately invokes OnSampleRateChange if newRate differs from
// the rate this client was constructed with.
func (c *Client) SimulateSampleRateChange(newRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if newRate != c.sampleRate && c.cb.OnSampleRateChange != nil {
		c.cb.OnSampleRateChange(newRate)
	}
}

// SimulateBufferSizeChange is the analogous fault-injection hook for
// buffer-size renegotiation.
func (c *Client) SimulateBufferSizeChange(newSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if newSize != c.maxBufferSize && c.cb.OnBufferSizeChange != nil {
		c.cb.OnBufferSizeChange(newSize)
	}
}
