package config

import "github.com/soundgraph/effectshost/internal/herr"

// Validate checks the structural invariants the parser alone can't
// express: a missing plugins section is fatal, and chain/effect names
// must be present and locally unique.
func Validate(doc *Document) error {
	if doc.Plugins == nil {
		return herr.New(herr.ConfigInvalid, "missing required 'plugins' section")
	}

	for chainName, decl := range doc.Chains {
		if chainName == "" {
			return herr.New(herr.ConfigInvalid, "chain name must not be empty")
		}

		seen := make(map[string]bool, len(decl.Effects))
		for _, e := range decl.Effects {
			if e.Name == "" {
				return herr.Newf(herr.ConfigInvalid, "chain %q has an effect with no name", chainName)
			}
			if e.Type == "" {
				return herr.Newf(herr.ConfigInvalid, "chain %q effect %q has no type", chainName, e.Name)
			}
			if seen[e.Name] {
				return herr.Newf(herr.DuplicateEffect, "chain %q declares effect %q twice", chainName, e.Name)
			}
			seen[e.Name] = true
		}
	}

	return nil
}
