package plugin

import (
	"fmt"
	goplugin "plugin"
	"sync"

	"github.com/soundgraph/effectshost/internal/herr"
	"github.com/soundgraph/effectshost/pkg/pluginapi"
)

// Registry is the mapping name→descriptor and id→descriptor across
// every loaded library. Names and ids are unique across the whole
// registry: a duplicate registration anywhere is fatal, so a
// malformed configuration errors out at load time rather than at
// first use.
type Registry struct {
	mu          sync.RWMutex
	libraries   []*Library
	byName      map[string]*pluginapi.Descriptor
	byID        map[uint64]*pluginapi.Descriptor
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*pluginapi.Descriptor),
		byID:   make(map[uint64]*pluginapi.Descriptor),
	}
}

// Open loads a shared library by filesystem path, resolves
// pluginapi.DescriptorSymbol, and registers every descriptor it
// yields by iterating index 0, 1, 2, … until the function reports
// ok == false.
func (r *Registry) Open(path string) error {
	p, err := goplugin.Open(path)
	if err != nil {
		return herr.Wrap(herr.LoadFailed, err, "open plugin library "+path)
	}

	sym, err := p.Lookup(pluginapi.DescriptorSymbol)
	if err != nil {
		return herr.Wrap(herr.LoadFailed, err, "resolve "+pluginapi.DescriptorSymbol+" in "+path)
	}

	// plugin.Lookup resolves a top-level func declaration to its plain
	// (unnamed) function type, not the named pluginapi.DescriptorFunc,
	// so the assertion targets the underlying signature and converts.
	raw, ok := sym.(func(int) (*pluginapi.Descriptor, bool))
	if !ok {
		return herr.Newf(herr.LoadFailed, "%s: %s has unexpected type", path, pluginapi.DescriptorSymbol)
	}

	return r.registerFromFunc(path, pluginapi.DescriptorFunc(raw))
}

// registerFromFunc is the testable core of Open: given a resolved
// descriptor function, it drains the index sequence and registers
// every descriptor into a new Library.
func (r *Registry) registerFromFunc(path string, fn pluginapi.DescriptorFunc) error {
	var descs []*pluginapi.Descriptor
	for i := 0; ; i++ {
		d, ok := fn(i)
		if !ok {
			break
		}
		descs = append(descs, d)
	}
	return r.registerLibrary(&Library{Path: path, Descriptors: descs})
}

// registerLibrary registers every descriptor in lib, failing with
// DuplicateRegistration on the first id or name collision. Exposed
// through RegisterLibrary for in-tree fixture libraries (tests, demo
// plugins) that don't go through a real .so and plugin.Open.
func (r *Registry) registerLibrary(lib *Library) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range lib.Descriptors {
		if _, exists := r.byID[d.ID]; exists {
			return herr.Newf(herr.DuplicateRegistration, "plugin id %d already registered", d.ID)
		}
		if _, exists := r.byName[d.Name]; exists {
			return herr.Newf(herr.DuplicateRegistration, "plugin name %q already registered", d.Name)
		}
	}
	for _, d := range lib.Descriptors {
		r.byID[d.ID] = d
		r.byName[d.Name] = d
	}
	r.libraries = append(r.libraries, lib)
	return nil
}

// RegisterLibrary is the public entry point fixture libraries (such as
// internal/demoplugins) use to register descriptors without a real
// shared-object file.
func (r *Registry) RegisterLibrary(lib *Library) error {
	return r.registerLibrary(lib)
}

// GetDescriptorByName fails with UnknownPlugin on miss.
func (r *Registry) GetDescriptorByName(name string) (*pluginapi.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byName[name]
	if !ok {
		return nil, herr.Newf(herr.UnknownPlugin, "no plugin named %q", name)
	}
	return d, nil
}

// GetDescriptorByID fails with UnknownPlugin on miss.
func (r *Registry) GetDescriptorByID(id uint64) (*pluginapi.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return nil, herr.Newf(herr.UnknownPlugin, "no plugin with id %d", id)
	}
	return d, nil
}

// Libraries returns every loaded library, in load order.
func (r *Registry) Libraries() []*Library {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Library, len(r.libraries))
	copy(out, r.libraries)
	return out
}

// Instantiate manufactures a fresh effect handle for descriptor d at
// the given sample rate. Control-value slots are not created here:
// the caller (internal/effect) allocates them and binds them to the
// handle before activation.
func (r *Registry) Instantiate(d *pluginapi.Descriptor, sampleRate float64) (pluginapi.Handle, error) {
	h, err := d.Instantiate(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", d.Name, err)
	}
	return h, nil
}
