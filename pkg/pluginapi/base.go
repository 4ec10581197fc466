package pluginapi

import "sync"

// Base implements the bookkeeping parts of Module. Embed it and provide
// Configure, Initialize and Collect.
type Base struct {
	Meta Info

	mu      sync.Mutex
	enabled bool
	ready   bool
	lastErr string
}

// Info returns the plugin descriptor.
func (b *Base) Info() Info { return b.Meta }

// IsEnabled reports the value last passed to SetEnabled.
func (b *Base) IsEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// IsReady reports the value last passed to SetReady.
func (b *Base) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// SetEnabled records the plugin's enabled decision.
func (b *Base) SetEnabled(v bool) {
	b.mu.Lock()
	b.enabled = v
	b.mu.Unlock()
}

// SetReady records whether collection is expected to succeed.
func (b *Base) SetReady(v bool) {
	b.mu.Lock()
	b.ready = v
	b.mu.Unlock()
}

// Fail records err as the last error and returns it.
func (b *Base) Fail(err error) error {
	if err != nil {
		b.mu.Lock()
		b.lastErr = err.Error()
		b.mu.Unlock()
	}
	return err
}

// LastError returns the last recorded diagnostic.
func (b *Base) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Close does nothing.
func (b *Base) Close() error { return nil }
