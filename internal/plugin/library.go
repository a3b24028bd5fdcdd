// Package plugin implements the plugin registry and loader (component
// A): it opens plugin shared libraries built against
// github.com/soundgraph/effectshost/pkg/pluginapi, reflects their
// descriptors, and manufactures effect instances on demand.
package plugin

import "github.com/soundgraph/effectshost/pkg/pluginapi"

// Library is one loaded shared object. Its lifetime equals the
// process's once opened — the host never unloads a plugin library.
type Library struct {
	Path        string
	Descriptors []*pluginapi.Descriptor
}
