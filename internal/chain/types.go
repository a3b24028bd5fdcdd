package chain

import "github.com/soundgraph/effectshost/pkg/pluginapi"

// EffectSpec is the declarative description of one effect within a
// chain: which plugin type to instantiate, its initial control
// values, and its outgoing intra-chain wires.
//
// Wires maps a bare port name — one of this effect's own audio output
// ports — to the list of destination "effect_name.port_name"
// specifiers it feeds. A source port with no entry (or an empty
// destination list) gets no chain-internal buffer allocated.
type EffectSpec struct {
	Name     string
	Type     string
	Controls map[string]float64
	Wires    map[string][]string
}

// ChainSpec is the declarative description of one chain: its name,
// the "effect_name.port_name" specifiers its external input/output
// ports route to, and its ordered effects.
//
// Declaration order of Effects is the chain's run order (§4.C: the
// declared order must already be a valid topological order).
type ChainSpec struct {
	Name    string
	Inputs  []string
	Outputs []string
	Effects []EffectSpec
}

// Loader is the subset of the plugin registry a chain build needs:
// resolve a plugin type name to its descriptor, then manufacture a
// handle at the chain's sample rate.
type Loader interface {
	GetDescriptorByName(name string) (*pluginapi.Descriptor, error)
	Instantiate(d *pluginapi.Descriptor, sampleRate float64) (pluginapi.Handle, error)
}

// ExternalPorts supplies the current-cycle buffer for a named external
// port. The buffer is only valid for the duration of the call that
// returns it — chain.Run never retains it past the cycle.
type ExternalPorts interface {
	Buffer(name string) []float32
}
