package config

import (
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Capital != 100000 {
		t.Errorf("capital = %v, want 100000", cfg.Capital)
	}
	if cfg.CapitalPerTicker != 20000 {
		t.Errorf("capital_per_ticker = %v, want 20000", cfg.CapitalPerTicker)
	}
	if cfg.Benchmark.PositionFraction != 0.50 {
		t.Errorf("benchmark fraction = %v, want 0.50", cfg.Benchmark.PositionFraction)
	}

	for _, name := range []string{"conservative", "aggressive"} {
		p := cfg.Profile(name)
		if p == nil {
			t.Fatalf("missing default profile %q", name)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("default profile %q invalid: %v", name, err)
		}
	}
}

func TestProfile_UnknownName(t *testing.T) {
	if Defaults().Profile("yolo") != nil {
		t.Error("unknown profile should be nil")
	}
}

func TestLoad_FallsBackToDefaults(t *testing.T) {
	// No config.yaml in the test working directory.
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Capital != 100000 {
		t.Errorf("capital = %v, want default 100000", cfg.Capital)
	}
}
