// internal/config/normalize.go
package config

const (
	DefaultTimeoutMs  = 1500
	DefaultIntervalMs = 1000
	maxDeviceName     = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for ui := range cfg.Replicator.Units {
		u := &cfg.Replicator.Units[ui]

		if u.Source.TimeoutMs == 0 {
			u.Source.TimeoutMs = DefaultTimeoutMs
		}
		if u.Poll.IntervalMs == 0 {
			u.Poll.IntervalMs = DefaultIntervalMs
		}

		// Skip units that did not opt in to the status block
		if u.Source.StatusSlot == nil {
			continue
		}

		// device_name is ASCII (validated); truncate to the block's 16 characters
		if len(u.Source.DeviceName) > maxDeviceName {
			u.Source.DeviceName = u.Source.DeviceName[:maxDeviceName]
		}
	}
}
