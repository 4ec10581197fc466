package models

// PluginType groups plugins by what they produce.
type PluginType string

const (
	PluginTypeInfoProvider   PluginType = "info_provider"
	PluginTypeOutputFormat   PluginType = "output_format"
	PluginTypeSystemProvider PluginType = "system_provider"
)

// PluginInfo is the immutable descriptor of a plugin, independent of
// whether it is loaded.
type PluginInfo struct {
	Name         string     `json:"name" yaml:"name"`
	Version      string     `json:"version" yaml:"version"`
	Author       string     `json:"author" yaml:"author"`
	Description  string     `json:"description" yaml:"description"`
	Type         PluginType `json:"type,omitempty" yaml:"type"`
	Dependencies []string   `json:"dependencies,omitempty" yaml:"dependencies"`

	// Path is the file the plugin was found at; empty for static plugins.
	Path   string `json:"path,omitempty" yaml:"-"`
	Static bool   `json:"static" yaml:"-"`
}
