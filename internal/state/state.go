// Package state holds the Configuration State (§4.2): the shared
// key→value map, authoritatively owned by the controllee, mutated by
// SET_VAR messages from the controller. It is constructed explicitly and
// passed into the capture worker and the message dispatcher (§9 — no
// process-wide singleton).
package state

import "sync"

// Recognized keys and their defaults (§3 Configuration table).
const (
	KeyMonitor              = "monitor"
	KeyScale                = "scale"
	KeyFPS                  = "fps"
	KeyJPEGQuality          = "jpeg_quality"
	KeyCompressionLevel     = "compression_level"
	KeyUseNumpy             = "use_numpy"
	KeyShouldUpdateCommands = "should_update_commands"
	KeyUseDelta             = "use_delta" // supplemented key, see SPEC_FULL.md §12
)

// Config is the shared configuration map. Reads and writes are serialized
// by a single RWMutex, matching §5's "single mutex protects all accesses"
// shared-resource rule.
type Config struct {
	mu     sync.RWMutex
	values map[string]any
}

// New returns a Config initialized to the documented defaults.
func New() *Config {
	return &Config{
		values: map[string]any{
			KeyMonitor:              0,
			KeyScale:                1.0,
			KeyFPS:                  120,
			KeyJPEGQuality:          50,
			KeyCompressionLevel:     1,
			KeyUseNumpy:             false,
			KeyShouldUpdateCommands: true,
			KeyUseDelta:             false,
		},
	}
}

// Get returns the raw value stored for key, or nil, false if never set.
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores value for key, coercing JSON-shaped numeric values (float64,
// as produced by encoding/json) into the type a recognized key expects.
// Unknown keys are accepted and stored without side effect (§4.2, §7
// "Configuration error ... silently accepted").
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = coerce(key, value)
}

func coerce(key string, value any) any {
	switch key {
	case KeyMonitor, KeyFPS, KeyJPEGQuality, KeyCompressionLevel:
		if f, ok := value.(float64); ok {
			return int(f)
		}
	case KeyScale:
		if f, ok := value.(float64); ok {
			return f
		}
	case KeyUseNumpy, KeyShouldUpdateCommands, KeyUseDelta:
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return value
}

func (c *Config) getInt(key string, fallback int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.values[key].(int); ok {
		return v
	}
	return fallback
}

func (c *Config) getFloat(key string, fallback float64) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch v := c.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func (c *Config) getBool(key string, fallback bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.values[key].(bool); ok {
		return v
	}
	return fallback
}

// Monitor returns the monitor key, clamped non-negative by the caller.
func (c *Config) Monitor() int { return c.getInt(KeyMonitor, 0) }

// Scale returns the post-capture downscaling factor.
func (c *Config) Scale() float64 { return c.getFloat(KeyScale, 1.0) }

// FPS returns the target capture cadence. The capture worker reads this on
// every wake (not once at loop start) so a live SET_VAR on fps takes effect
// immediately, per §4.2.
func (c *Config) FPS() int {
	fps := c.getInt(KeyFPS, 120)
	if fps <= 0 {
		return 120
	}
	return fps
}

// JPEGQuality returns the base encoder quality.
func (c *Config) JPEGQuality() int { return c.getInt(KeyJPEGQuality, 50) }

// CompressionLevel returns the deflate level for raw mode.
func (c *Config) CompressionLevel() int { return c.getInt(KeyCompressionLevel, 1) }

// UseNumpy reports whether raw-pixel mode is preferred over tiled mode.
func (c *Config) UseNumpy() bool { return c.getBool(KeyUseNumpy, false) }

// UseDelta reports whether delta mode should be tried before tiled mode
// when not in raw-pixel mode (§12 supplemented key).
func (c *Config) UseDelta() bool { return c.getBool(KeyUseDelta, false) }

// ShouldUpdateCommands reports whether NEW_COMMAND events are applied to
// the OS, or recorded and discarded.
func (c *Config) ShouldUpdateCommands() bool {
	return c.getBool(KeyShouldUpdateCommands, true)
}
