// Package builtin holds the plugins compiled into hostsnap. Importing it
// registers them with the static plugin registry.
package builtin

import (
	"github.com/go-playground/validator/v10"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/platform"
	"github.com/Guliveer/hostsnap/internal/plugin"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

const version = "1.0.0"

func init() {
	plugin.RegisterStatic(processesInfo, func() pluginapi.Module { return NewProcesses() })
	plugin.RegisterStatic(thermalInfo, func() pluginapi.Module { return NewThermal(platform.New()) })
	plugin.RegisterStatic(netioInfo, func() pluginapi.Module { return NewNetIO() })
	plugin.RegisterStatic(bootInfo, func() pluginapi.Module { return NewBoot(platform.New()) })
}

var validate = validator.New()

// decodeConfig fills v from cfg and validates it.
func decodeConfig(op string, cfg pluginapi.Config, v any) error {
	if err := cfg.Decode(v); err != nil {
		return errs.Wrap(errs.ConfigurationError, op, err)
	}
	if err := validate.Struct(v); err != nil {
		return errs.Wrap(errs.ConfigurationError, op, err)
	}
	return nil
}
