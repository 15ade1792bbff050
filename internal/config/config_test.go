package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PolyOrder != 1 {
		t.Errorf("expected poly_order 1, got %d", cfg.PolyOrder)
	}
	if cfg.NumMasses != 6 {
		t.Errorf("expected num_masses 6, got %d", cfg.NumMasses)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	bad := DefaultConfig()
	bad.PolyOrder = 3
	if err := bad.Validate(); err == nil {
		t.Error("poly_order 3 accepted")
	}

	bad = DefaultConfig()
	bad.Robot.Length = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero length accepted")
	}

	bad = DefaultConfig()
	bad.InitState = []float64{0.1, 0.2, 0.3}
	if err := bad.Validate(); err == nil {
		t.Error("init_state/order mismatch accepted")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.PolyOrder = 2
	cfg.Robot.MassEnd = 1.25
	cfg.InitState = []float64{0.1, 0.2, 0.3}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.PolyOrder != 2 {
		t.Errorf("expected poly_order 2, got %d", loaded.PolyOrder)
	}
	if loaded.Robot.MassEnd != 1.25 {
		t.Errorf("expected mass_end 1.25, got %f", loaded.Robot.MassEnd)
	}
	if len(loaded.InitState) != 3 {
		t.Errorf("expected 3 init states, got %d", len(loaded.InitState))
	}
}

func TestParamsOrder(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.Params()
	want := []float64{cfg.Robot.MassBody, cfg.Robot.MassEnd, cfg.Robot.Length, cfg.Robot.Diameter}
	for i := range want {
		if p[i] != want[i] {
			t.Errorf("params[%d] = %f, want %f", i, p[i], want[i])
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("linear")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.PolyOrder != 1 {
		t.Errorf("expected poly_order 1, got %d", cfg.PolyOrder)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Error("expected presets")
	}
}

func TestGetInitState(t *testing.T) {
	cfg := DefaultConfig()
	state := cfg.GetInitState()
	if len(state) != 2 {
		t.Errorf("expected 2 states, got %d", len(state))
	}
	for _, v := range state {
		if v != 0 {
			t.Errorf("expected zero-filled state, got %v", state)
		}
	}

	cfg.InitState = []float64{0.3, 0.5}
	state = cfg.GetInitState()
	if state[0] != 0.3 || state[1] != 0.5 {
		t.Errorf("expected configured state, got %v", state)
	}
}

func TestAllPresetsValid(t *testing.T) {
	for name, cfg := range Presets {
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
