package plugin

import (
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// ParseConfig decodes a configuration blob. The document must be a
// mapping; an empty or whitespace-only blob yields an empty Config.
func ParseConfig(text string) (pluginapi.Config, error) {
	const op = "plugin.config"
	if !utf8.ValidString(text) {
		return nil, errs.New(errs.InvalidArgument, op, "configuration is not valid UTF-8")
	}
	if strings.ContainsRune(text, 0) {
		return nil, errs.New(errs.InvalidArgument, op, "configuration contains a NUL byte")
	}
	if strings.TrimSpace(text) == "" {
		return pluginapi.Config{}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return nil, errs.Wrap(errs.ParseError, op, err)
	}
	if len(node.Content) == 0 {
		return pluginapi.Config{}, nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, errs.New(errs.ParseError, op, "configuration must be a mapping of keys to values")
	}

	cfg := pluginapi.Config{}
	if err := node.Decode(&cfg); err != nil {
		return nil, errs.Wrap(errs.ParseError, op, err)
	}
	return cfg, nil
}
