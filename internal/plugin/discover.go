package plugin

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Guliveer/hostsnap/internal/models"
)

// manifestSuffix names the optional metadata file next to a plugin file.
const manifestSuffix = ".manifest.yaml"

type manifest struct {
	Name         string   `yaml:"name" validate:"omitempty,max=64"`
	Version      string   `yaml:"version" validate:"required,max=32"`
	Author       string   `yaml:"author" validate:"max=128"`
	Description  string   `yaml:"description" validate:"max=512"`
	Type         string   `yaml:"type" validate:"omitempty,oneof=info_provider output_format system_provider"`
	Dependencies []string `yaml:"dependencies" validate:"dive,required"`
}

var validate = validator.New()

// Discover lists compiled-in plugins followed by plugin files in the
// search paths. No module is opened. When two entries share a name the
// first one wins.
func (l *Loader) Discover() []models.PluginInfo {
	out := make([]models.PluginInfo, 0)
	seen := make(map[string]bool)

	for _, info := range l.static.Infos() {
		seen[info.Name] = true
		out = append(out, info)
	}

	for _, dir := range l.paths.List() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			l.logger.Debug("Skipping plugin directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, e := range entries {
			if e.IsDir() || strings.HasSuffix(e.Name(), manifestSuffix) {
				continue
			}
			if _, ok := l.openerFor(filepath.Ext(e.Name())); !ok {
				continue
			}
			name := stem(e.Name())
			if seen[name] {
				continue
			}
			seen[name] = true

			path := filepath.Join(dir, e.Name())
			info := l.readManifest(dir, name)
			info.Name = name
			info.Path = path
			out = append(out, info)
		}
	}
	return out
}

func (l *Loader) readManifest(dir, name string) models.PluginInfo {
	path := filepath.Join(dir, name+manifestSuffix)
	data, err := os.ReadFile(path)
	if err != nil {
		return models.PluginInfo{}
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		l.logger.Warn("Invalid plugin manifest", zap.String("path", path), zap.Error(err))
		return models.PluginInfo{}
	}
	if err := validate.Struct(m); err != nil {
		l.logger.Warn("Plugin manifest failed validation", zap.String("path", path), zap.Error(err))
		return models.PluginInfo{}
	}
	if m.Name != "" && m.Name != name {
		l.logger.Warn("Plugin manifest name differs from file name",
			zap.String("path", path), zap.String("manifest_name", m.Name))
	}

	return models.PluginInfo{
		Version:      m.Version,
		Author:       m.Author,
		Description:  m.Description,
		Type:         models.PluginType(m.Type),
		Dependencies: m.Dependencies,
	}
}
