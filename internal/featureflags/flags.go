package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	// IdleTimeout arms the inactivity logout on every session
	IdleTimeout = "idle_timeout"
	// SeedData fills an empty document store with example records
	SeedData = "seed_data"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	return EnabledOr(name, false)
}

// EnabledOr is Enabled with a fallback for flags that are not set.
// FLAG_<NAME>=false/0/no/off switches a default-on flag off.
func EnabledOr(name string, def bool) bool {
	v, ok := os.LookupEnv("FLAG_" + strings.ToUpper(name))
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
