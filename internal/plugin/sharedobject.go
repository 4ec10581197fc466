package plugin

import (
	goplugin "plugin"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// factorySymbol is the variable a shared-object plugin must export.
const factorySymbol = "NewModule"

// OpenSharedObject loads a Go plugin built with -buildmode=plugin. Go
// cannot unload shared objects, so closing the module only releases what
// the module itself holds.
func OpenSharedObject(path string, logger *zap.Logger) (pluginapi.Module, error) {
	const op = "plugin.open_shared_object"

	lib, err := goplugin.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ApiUnavailable, op, err)
	}
	sym, err := lib.Lookup(factorySymbol)
	if err != nil {
		return nil, errs.Errorf(errs.ApiUnavailable, op, "%s does not export %s", path, factorySymbol)
	}

	var factory pluginapi.Factory
	switch f := sym.(type) {
	case *pluginapi.Factory:
		factory = *f
	case *func() pluginapi.Module:
		factory = *f
	case func() pluginapi.Module:
		factory = f
	default:
		return nil, errs.Errorf(errs.ApiUnavailable, op, "%s has unexpected type %T", factorySymbol, sym)
	}
	if factory == nil {
		return nil, errs.Errorf(errs.ApiUnavailable, op, "%s is nil", factorySymbol)
	}

	logger.Debug("Opened shared object plugin", zap.String("path", path))
	return factory(), nil
}
