// Package chain implements the ordered DSP graph (component C): an
// insertion-ordered collection of effects, their intra-chain wiring
// over shared sample buffers, and the mapping between chain boundary
// ports and audio-server ports.
package chain

import (
	"sync"

	"github.com/soundgraph/effectshost/internal/effect"
	"github.com/soundgraph/effectshost/internal/herr"
)

// Route pairs one effect's port with the name of the external
// audio-server port it is bound to during each realtime cycle.
type Route struct {
	EffectName string
	PortName   string
	External   string
}

// Chain is named, unique within a processor. It is inactive at birth
// and active after Activate transitions every owned effect to active;
// chains are never deactivated while the audio server is running.
type Chain struct {
	Name string

	mu       sync.Mutex // guards construction-time mutation only
	effects  map[string]*effect.Effect
	runOrder []string // insertion order == execution order
	routes   []Route
	active   bool
}

// New returns an empty, inactive chain ready for AddEffect/AddRoute.
func New(name string) *Chain {
	return &Chain{
		Name:    name,
		effects: make(map[string]*effect.Effect),
	}
}

// AddEffect registers e under name, appending it to the run order.
// Fails DuplicateEffect on a name collision.
func (c *Chain) AddEffect(name string, e *effect.Effect) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.effects[name]; exists {
		return herr.Newf(herr.DuplicateEffect, "chain %s already has effect %q", c.Name, name)
	}
	c.effects[name] = e
	c.runOrder = append(c.runOrder, name)
	return nil
}

// GetEffect fails UnknownEffect on miss.
func (c *Chain) GetEffect(name string) (*effect.Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.effects[name]
	if !ok {
		return nil, herr.Newf(herr.UnknownEffect, "chain %s has no effect %q", c.Name, name)
	}
	return e, nil
}

// AddRoute records a chain-boundary route. Construction-time only.
func (c *Chain) AddRoute(r Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = append(c.routes, r)
}

// Routes returns every declared chain-boundary route, in declaration
// order.
func (c *Chain) Routes() []Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Route, len(c.routes))
	copy(out, c.routes)
	return out
}

// Active reports whether Activate has already succeeded.
func (c *Chain) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Activate transitions every owned effect to active, in run order.
// Chains are never deactivated while the audio server is running.
func (c *Chain) Activate() error {
	c.mu.Lock()
	order := append([]string(nil), c.runOrder...)
	effects := c.effects
	c.mu.Unlock()

	for _, name := range order {
		if err := effects[name].Activate(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.active = true
	c.mu.Unlock()
	return nil
}

// Run is the realtime entry point, invoked once per audio callback.
// For every route it binds the addressed effect port to the external
// port's current-cycle buffer, runs every owned effect in insertion
// order, then unbinds the route ports — external buffer pointers must
// never be retained past one callback. nframes == 0 is a no-op.
func (c *Chain) Run(nframes int, ports ExternalPorts) {
	if nframes == 0 {
		return
	}

	for _, r := range c.routes {
		e := c.effects[r.EffectName]
		_ = e.Connect(r.PortName, ports.Buffer(r.External))
	}

	for _, name := range c.runOrder {
		c.effects[name].Run(nframes)
	}

	for _, r := range c.routes {
		e := c.effects[r.EffectName]
		_ = e.Disconnect(r.PortName)
	}
}
