// Package platform provides an OS abstraction layer for platform-specific
// functionality that gopsutil does not cover.
// Each supported OS implements the Platform interface.
package platform

import (
	"context"
	"time"
)

// Platform provides OS-specific probes beyond what gopsutil offers.
type Platform interface {
	// Name returns the platform name (windows, linux, darwin, ...).
	Name() string

	// GPUModel returns a human-readable name of the primary GPU.
	GPUModel(ctx context.Context) (string, error)

	// GPUTemperature returns the GPU temperature in Celsius.
	// Returns nil if the temperature cannot be determined.
	GPUTemperature(ctx context.Context) (*float64, error)

	// LastShutdown returns when the machine last shut down.
	// The zero time means unknown.
	LastShutdown(ctx context.Context) (time.Time, error)
}
