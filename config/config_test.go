package config

import (
	"testing"
	"time"

	"plantquest/guard"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Guard.HammingThreshold != guard.DefaultHammingThreshold {
		t.Errorf("HammingThreshold = %d, want %d", cfg.Guard.HammingThreshold, guard.DefaultHammingThreshold)
	}
	if cfg.Guard.ProximityDegrees != guard.DefaultProximityDegrees {
		t.Errorf("ProximityDegrees = %g, want %g", cfg.Guard.ProximityDegrees, guard.DefaultProximityDegrees)
	}
	if cfg.RateLimit.Window != 60*time.Second {
		t.Errorf("RateLimit.Window = %v, want 60s", cfg.RateLimit.Window)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GUARD_HAMMING_THRESHOLD", "8")
	t.Setenv("GUARD_PROXIMITY_DEGREES", "0.0001")
	t.Setenv("RATE_LIMIT_WINDOW", "2m")

	cfg := Load()
	if cfg.Guard.HammingThreshold != 8 {
		t.Errorf("HammingThreshold = %d, want 8", cfg.Guard.HammingThreshold)
	}
	if cfg.Guard.ProximityDegrees != 0.0001 {
		t.Errorf("ProximityDegrees = %g, want 0.0001", cfg.Guard.ProximityDegrees)
	}
	if cfg.RateLimit.Window != 2*time.Minute {
		t.Errorf("RateLimit.Window = %v, want 2m", cfg.RateLimit.Window)
	}
}
