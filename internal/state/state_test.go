package state

import "testing"

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.FPS() != 120 {
		t.Fatalf("expected default fps 120, got %d", cfg.FPS())
	}
	if cfg.Scale() != 1.0 {
		t.Fatalf("expected default scale 1.0, got %v", cfg.Scale())
	}
	if !cfg.ShouldUpdateCommands() {
		t.Fatal("expected should_update_commands default true")
	}
	if cfg.UseNumpy() {
		t.Fatal("expected use_numpy default false")
	}
}

func TestSetCoercesJSONNumbers(t *testing.T) {
	cfg := New()
	cfg.Set(KeyFPS, float64(30))
	if cfg.FPS() != 30 {
		t.Fatalf("expected fps 30 after set, got %d", cfg.FPS())
	}
}

func TestSetUnknownKeyIsAcceptedSilently(t *testing.T) {
	cfg := New()
	cfg.Set("wobble", float64(7))
	v, ok := cfg.Get("wobble")
	if !ok || v != float64(7) {
		t.Fatalf("expected unknown key stored as-is, got %v, %v", v, ok)
	}
	// Existing behavior is untouched.
	if cfg.FPS() != 120 {
		t.Fatalf("unknown key set must not alter existing behavior")
	}
}

func TestFPSNeverReturnsNonPositive(t *testing.T) {
	cfg := New()
	cfg.Set(KeyFPS, float64(0))
	if cfg.FPS() != 120 {
		t.Fatalf("expected fallback to default when fps coerced to 0, got %d", cfg.FPS())
	}
}
