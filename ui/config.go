package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	// Appearance is "system", "dark" or "light".
	Appearance string
	// Location renders history dates.
	Location *time.Location
	// Backend is the preferred transcription backend when several exist.
	Backend string
	// RemovalDelay is the grace period before temp recordings are deleted.
	RemovalDelay time.Duration
	// RequestTimeout bounds each API round trip started from the UI.
	RequestTimeout time.Duration

	EnableMouse  bool          `env:"ELEVENGUI_MOUSE"`
	AltScreen    bool          `env:"ELEVENGUI_ALT_SCREEN" envDefault:"true"`
	TickInterval time.Duration `env:"ELEVENGUI_TICK"       envDefault:"100ms"`
}
