// Package effect implements the uniform contract over one plugin
// instance (component B): typed ports, control read/write, buffer
// attach/detach, and the activate/run state machine.
package effect

import (
	"sync"

	"github.com/soundgraph/effectshost/internal/herr"
	"github.com/soundgraph/effectshost/pkg/pluginapi"
)

type state int

const (
	inactive state = iota
	active
)

// Effect owns one plugin handle and the control-value storage bound
// to it. All operations except Run are safe to call from any thread;
// Run is realtime-safe and serializes with control operations via the
// effect lock.
type Effect struct {
	descriptor *pluginapi.Descriptor
	handle     pluginapi.Handle

	mu    sync.Mutex // the "effect lock": serializes control r/w with Run
	state state

	// controlSlots is indexed by port ordinal; only entries for
	// control-input ports are meaningful. Fixed-size for the effect's
	// lifetime so &controlSlots[i] stays valid once bound to the
	// plugin.
	controlSlots []float32
	byName       map[string]pluginapi.PortDecl

	// connected tracks, per audio port ordinal, whether Connect or
	// Disconnect has been explicitly called — required before
	// Activate will succeed.
	connected map[int]bool
}

// New wraps a handle already instantiated from descriptor (by the
// registry), binds every control input port's slot to its computed
// default, and leaves every audio port explicitly disconnected. The returned Effect is in state inactive.
func New(descriptor *pluginapi.Descriptor, handle pluginapi.Handle) *Effect {
	maxOrdinal := 0
	for _, p := range descriptor.Ports {
		if p.Ordinal > maxOrdinal {
			maxOrdinal = p.Ordinal
		}
	}

	e := &Effect{
		descriptor:   descriptor,
		handle:       handle,
		controlSlots: make([]float32, maxOrdinal+1),
		byName:       make(map[string]pluginapi.PortDecl, len(descriptor.Ports)),
		connected:    make(map[int]bool, len(descriptor.Ports)),
	}

	binder, _ := handle.(pluginapi.ControlBinder)

	for _, p := range descriptor.Ports {
		e.byName[p.Name] = p
		switch {
		case p.IsControlInput():
			e.controlSlots[p.Ordinal] = float32(p.Default())
			if binder != nil {
				binder.BindControl(p.Ordinal, &e.controlSlots[p.Ordinal])
			}
		case p.IsAudioInput(), p.IsAudioOutput():
			e.connected[p.Ordinal] = false
			handle.ConnectPort(p.Ordinal, nil)
		}
	}

	return e
}

// Descriptor returns the plugin descriptor this effect was
// instantiated from.
func (e *Effect) Descriptor() *pluginapi.Descriptor { return e.descriptor }

// SetControl writes a control input port's value.
func (e *Effect) SetControl(name string, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.controlInputPort(name)
	if err != nil {
		return err
	}
	e.controlSlots[p.Ordinal] = float32(value)
	return nil
}

// GetControl reads a control input port's current value.
func (e *Effect) GetControl(name string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.controlInputPort(name)
	if err != nil {
		return 0, err
	}
	return float64(e.controlSlots[p.Ordinal]), nil
}

// Nudge performs an atomic read-modify-write: new = old + delta,
// observationally equal to GetControl+SetControl under the same lock
// acquisition.
func (e *Effect) Nudge(name string, delta float64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.controlInputPort(name)
	if err != nil {
		return 0, err
	}
	newValue := float64(e.controlSlots[p.Ordinal]) + delta
	e.controlSlots[p.Ordinal] = float32(newValue)
	return newValue, nil
}

func (e *Effect) controlInputPort(name string) (pluginapi.PortDecl, error) {
	p, ok := e.byName[name]
	if !ok || !p.IsControlInput() {
		return pluginapi.PortDecl{}, herr.Newf(herr.UnknownPort, "no control input port %q", name)
	}
	return p, nil
}

// Connect binds an audio port to buf. May be called from any thread
// but must be externally serialised with Run (the chain does this by
// rewiring routes on the realtime thread itself, before and after it
// runs its effects).
func (e *Effect) Connect(name string, buf []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.audioPort(name)
	if err != nil {
		return err
	}
	e.handle.ConnectPort(p.Ordinal, buf)
	e.connected[p.Ordinal] = true
	return nil
}

// Disconnect binds an audio port to nil.
func (e *Effect) Disconnect(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.audioPort(name)
	if err != nil {
		return err
	}
	e.handle.ConnectPort(p.Ordinal, nil)
	e.connected[p.Ordinal] = true
	return nil
}

// DisconnectUnbound explicitly disconnects every audio port that has
// not yet had Connect or Disconnect called on it. A chain calls this
// once construction is otherwise finished, so a port nothing wires or
// routes (an unused effect output, say) still satisfies Activate's
// "every audio port explicitly bound" requirement instead of leaving
// it in limbo.
func (e *Effect) DisconnectUnbound() {
	e.mu.Lock()
	var pending []pluginapi.PortDecl
	for _, p := range e.descriptor.Ports {
		if (p.IsAudioInput() || p.IsAudioOutput()) && !e.connected[p.Ordinal] {
			pending = append(pending, p)
		}
	}
	e.mu.Unlock()

	for _, p := range pending {
		_ = e.Disconnect(p.Name)
	}
}

func (e *Effect) audioPort(name string) (pluginapi.PortDecl, error) {
	p, ok := e.byName[name]
	if !ok || (!p.IsAudioInput() && !p.IsAudioOutput()) {
		return pluginapi.PortDecl{}, herr.Newf(herr.UnknownPort, "no audio port %q", name)
	}
	return p, nil
}

// Activate transitions inactive → active. Fails NotFullyConnected if
// any audio port has never had Connect/Disconnect called on it. A
// one-way transition: calling Activate again is a no-op.
func (e *Effect) Activate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == active {
		return nil
	}

	for _, p := range e.descriptor.Ports {
		if !p.IsAudioInput() && !p.IsAudioOutput() {
			continue
		}
		if !e.connected[p.Ordinal] {
			return herr.Newf(herr.NotFullyConnected, "port %q on %s has no bound buffer", p.Name, e.descriptor.Name)
		}
	}

	if activator, ok := e.handle.(pluginapi.Activator); ok {
		if err := activator.Activate(); err != nil {
			return err
		}
	}
	e.state = active
	return nil
}

// Active reports whether Activate has already succeeded.
func (e *Effect) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == active
}

// Run drives the plugin for exactly nframes samples against whatever
// buffers are currently bound. Realtime-safe: acquires only the
// uncontended per-effect lock, never allocates, never blocks.
// Legal only once the effect is active; nframes == 0 is a no-op.
func (e *Effect) Run(nframes int) {
	if nframes == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handle.Run(nframes)
}

// Drop releases the plugin's native resources, if any. Not realtime-
// safe; called only after the owning chain stops driving this effect.
func (e *Effect) Drop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if deact, ok := e.handle.(pluginapi.Deactivator); ok {
		deact.Deactivate()
	}
	if cleaner, ok := e.handle.(pluginapi.Cleaner); ok {
		cleaner.Cleanup()
	}
}
