package chain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soundgraph/effectshost/internal/effect"
	"github.com/soundgraph/effectshost/internal/herr"
)

// Build constructs a chain from its declarative spec: (1) instantiate
// each effect via loader, (2) apply each declared control value,
// (3) allocate one chain-internal buffer per wired source port and
// connect every destination to it, (4) record one route per declared
// chain input/output, named "{chain}_in_{n}" / "{chain}_out_{n}",
// explicitly disconnecting each routed port so it counts as bound,
// (5) explicitly disconnect every remaining untouched audio port so
// Activate sees every port as bound, wired or not.
func Build(spec ChainSpec, loader Loader, sampleRate float64, maxBufferSize int) (*Chain, error) {
	c := New(spec.Name)

	for _, es := range spec.Effects {
		descriptor, err := loader.GetDescriptorByName(es.Type)
		if err != nil {
			return nil, err
		}
		handle, err := loader.Instantiate(descriptor, sampleRate)
		if err != nil {
			return nil, err
		}
		eff := effect.New(descriptor, handle)

		for portName, value := range es.Controls {
			if err := eff.SetControl(portName, value); err != nil {
				return nil, err
			}
		}

		if err := c.AddEffect(es.Name, eff); err != nil {
			return nil, err
		}
	}

	for _, es := range spec.Effects {
		for sourcePort, targets := range es.Wires {
			if len(targets) == 0 {
				continue
			}

			buf := make([]float32, maxBufferSize)

			srcEffect, err := c.GetEffect(es.Name)
			if err != nil {
				return nil, err
			}
			if err := srcEffect.Connect(sourcePort, buf); err != nil {
				return nil, err
			}

			for _, target := range targets {
				_, destPort, destEffect, err := resolveSpecifier(c, target)
				if err != nil {
					return nil, err
				}
				if err := destEffect.Connect(destPort, buf); err != nil {
					return nil, herr.Wrap(herr.MalformedWireSpec, err, fmt.Sprintf("%q names an unknown port", target))
				}
			}
		}
	}

	for n, target := range spec.Inputs {
		if err := addBoundaryRoute(c, target, PortName(c.Name, "in", n+1)); err != nil {
			return nil, err
		}
	}
	for n, target := range spec.Outputs {
		if err := addBoundaryRoute(c, target, PortName(c.Name, "out", n+1)); err != nil {
			return nil, err
		}
	}

	// Any audio port neither wired to another effect nor routed to a
	// chain boundary (an output nothing consumes, say) still needs an
	// explicit binding before Activate will accept it.
	for _, es := range spec.Effects {
		eff, err := c.GetEffect(es.Name)
		if err != nil {
			return nil, err
		}
		eff.DisconnectUnbound()
	}

	return c, nil
}

// addBoundaryRoute resolves one declared chain input/output specifier
// against c, explicitly disconnects the named port (establishing the
// "bound, possibly null" invariant Activate checks for — Chain.Run
// binds the real buffer each cycle, but nothing does so before the
// first Activate), then records the route.
func addBoundaryRoute(c *Chain, specifier, externalName string) error {
	effectName, portName, eff, err := resolveSpecifier(c, specifier)
	if err != nil {
		return err
	}
	if err := eff.Disconnect(portName); err != nil {
		return herr.Wrap(herr.MalformedWireSpec, err, fmt.Sprintf("%q names an unknown port", specifier))
	}
	c.AddRoute(Route{EffectName: effectName, PortName: portName, External: externalName})
	return nil
}

// resolveSpecifier parses a "effect_name.port_name" target_specifier
// and looks up the named effect within c. An unknown effect name is
// reported as MalformedWireSpec, not UnknownEffect — per §7 the whole
// specifier is malformed, not a direct effect lookup miss — reserving
// UnknownEffect for lookups not mediated by a specifier string.
func resolveSpecifier(c *Chain, specifier string) (effectName, portName string, eff *effect.Effect, err error) {
	effectName, portName, err = parseSpecifier(specifier)
	if err != nil {
		return "", "", nil, err
	}
	eff, err = c.GetEffect(effectName)
	if err != nil {
		return "", "", nil, herr.Wrap(herr.MalformedWireSpec, err, fmt.Sprintf("%q names an unknown effect", specifier))
	}
	return effectName, portName, eff, nil
}

// PortName builds the well-known external boundary port name for a
// chain's n-th (1-based) input or output: "{chain}_in_{n}" /
// "{chain}_out_{n}" (§4.E step 4). Shared with the processor, which
// creates the matching audio-server port under this same name before
// the chain routes reference it.
func PortName(chainName, direction string, n int) string {
	return chainName + "_" + direction + "_" + strconv.Itoa(n)
}

// parseSpecifier splits a target_specifier of the form
// "effect_name.port_name". Fails MalformedWireSpec if the dot
// separator is missing or either side is empty.
func parseSpecifier(specifier string) (effectName, portName string, err error) {
	idx := strings.Index(specifier, ".")
	if idx < 0 {
		return "", "", herr.Newf(herr.MalformedWireSpec, "%q is missing the '.' separator", specifier)
	}
	effectName = specifier[:idx]
	portName = specifier[idx+1:]
	if effectName == "" || portName == "" {
		return "", "", herr.Newf(herr.MalformedWireSpec, "%q has an empty effect or port name", specifier)
	}
	return effectName, portName, nil
}
