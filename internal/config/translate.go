package config

import "github.com/soundgraph/effectshost/internal/chain"

// ChainSpec converts one parsed ChainDecl into the chain package's
// construction input.
func (d ChainDecl) ChainSpec(name string) chain.ChainSpec {
	effects := make([]chain.EffectSpec, len(d.Effects))
	for i, e := range d.Effects {
		effects[i] = chain.EffectSpec{
			Name:     e.Name,
			Type:     e.Type,
			Controls: e.Controls,
			Wires:    e.Wires,
		}
	}
	return chain.ChainSpec{
		Name:    name,
		Inputs:  d.Inputs,
		Outputs: d.Outputs,
		Effects: effects,
	}
}
