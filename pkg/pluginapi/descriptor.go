// Package pluginapi is the contract a plugin shared library implements
// and the host's loader consumes. A plugin built with
// `go build -buildmode=plugin` exports a package-level function named
// DescriptorSymbol ("PluginDescriptor") with the signature
// DescriptorFunc: the host iterates index 0, 1, 2, … until the
// function reports ok == false, registering every returned Descriptor.
package pluginapi

import "fmt"

// DescriptorSymbol is the exported symbol name the loader resolves
// with plugin.Lookup.
const DescriptorSymbol = "PluginDescriptor"

// DescriptorFunc is the shape the resolved symbol must satisfy.
type DescriptorFunc func(index int) (*Descriptor, bool)

// Descriptor is the immutable reflection of one plugin type: a stable
// id, a human name, and its port declarations. Two descriptors in the
// same registry must never share an Id or a Name.
type Descriptor struct {
	ID    uint64
	Name  string
	Label string
	Ports []PortDecl

	// Instantiate manufactures a fresh Handle bound to sampleRate.
	// Returned in state "inactive": Activate has not yet been called.
	Instantiate func(sampleRate float64) (Handle, error)
}

// Port looks up a port declaration by name within this descriptor.
func (d *Descriptor) Port(name string) (PortDecl, bool) {
	for _, p := range d.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortDecl{}, false
}

// PortByOrdinal looks up a port declaration by its ordinal index.
func (d *Descriptor) PortByOrdinal(ordinal int) (PortDecl, bool) {
	for _, p := range d.Ports {
		if p.Ordinal == ordinal {
			return p, true
		}
	}
	return PortDecl{}, false
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(#%d)", d.Name, d.ID)
}

// Handle is the opaque runtime instance a Descriptor.Instantiate
// produces: one realized plugin ready to have its audio ports
// connected and be driven by Run.
//
// ConnectPort and Run are required. Activate, Deactivate, and Cleanup
// are optional hooks a plugin may not need; the host probes for them
// with the Activator / Deactivator / Cleaner interfaces below rather
// than forcing every Handle to implement no-ops.
type Handle interface {
	// ConnectPort binds the port at ordinal to buf. buf may be nil,
	// meaning explicitly disconnected. Audio ports only: control ports
	// are bound once at instantiation time to a slot in the owning
	// effect's control-value array and never rebound.
	ConnectPort(ordinal int, buf []float32)

	// Run processes exactly nframes samples using the currently bound
	// buffers. Must not allocate, lock a contended mutex, or block.
	Run(nframes int)
}

// Activator is implemented by plugins that need a one-time hook
// before the first Run call.
type Activator interface {
	Activate() error
}

// Deactivator is implemented by plugins that need to release
// resources when taken out of service.
type Deactivator interface {
	Deactivate()
}

// Cleaner is implemented by plugins that hold resources beyond the
// Handle's garbage-collected memory (native buffers, file handles).
type Cleaner interface {
	Cleanup()
}

// ControlBinder is implemented by plugins whose control input ports
// are read from host-owned storage rather than pushed via a setter.
// The host calls BindControl once per control input port, before
// Activate, with the address of the slot it will keep up to date.
type ControlBinder interface {
	BindControl(ordinal int, slot *float32)
}
