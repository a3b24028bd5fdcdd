// Package config implements the configuration surface (component G):
// a declarative YAML description of plugins, chains, effects,
// controls, intra-chain wiring, and external port auto-connects.
package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/soundgraph/effectshost/internal/herr"
)

// EffectDecl is one effect within a chain declaration.
type EffectDecl struct {
	Name     string              `yaml:"name"`
	Type     string              `yaml:"type"`
	Controls map[string]float64  `yaml:"controls"`
	Wires    map[string][]string `yaml:"wires"`
}

// ChainDecl is one chain declaration: the "effect_name.port_name"
// specifiers its external input/output ports route to, and its
// ordered effects.
type ChainDecl struct {
	Inputs  []string     `yaml:"inputs"`
	Outputs []string     `yaml:"outputs"`
	Effects []EffectDecl `yaml:"effects"`
}

// Route is one auto-connect pair: [source_port, destination_port].
type Route [2]string

// Document is the parsed top-level configuration tree.
type Document struct {
	Plugins []string             `yaml:"plugins"`
	Chains  map[string]ChainDecl `yaml:"chains"`
	Routes  []Route              `yaml:"routes"`
}

// Load reads and parses the YAML document at path, then validates it.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, herr.Wrap(herr.ConfigInvalid, err, "read config "+path)
	}

	var doc Document
	// UnmarshalStrict-equivalent: yaml.v3's Decoder.KnownFields catches
	// typos in section names before they silently vanish.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, herr.Wrap(herr.ConfigInvalid, err, "parse config "+path)
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
