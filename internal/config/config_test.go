package config

import "testing"

func TestFromEnvAppliesDefaultsWhenUnset(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Setenv("BITRATE_BPS", "")
	t.Setenv("QUEUE_BOUND", "")

	cfg := FromEnv()
	if cfg.Debug {
		t.Fatal("expected Debug false by default")
	}
	if cfg.BitrateBPS == 0 {
		t.Fatal("expected a non-zero default bitrate")
	}
	if cfg.QueueBound <= 0 {
		t.Fatal("expected a positive default queue bound")
	}
}

func TestFromEnvHonorsOverrides(t *testing.T) {
	t.Setenv("DEBUG", "1")
	t.Setenv("QUEUE_BOUND", "42")
	t.Setenv("BITRATE_BPS", "100")

	cfg := FromEnv()
	if !cfg.Debug {
		t.Fatal("expected Debug true")
	}
	if cfg.QueueBound != 42 {
		t.Fatalf("expected QueueBound 42, got %d", cfg.QueueBound)
	}
	if cfg.BitrateBPS != 100 {
		t.Fatalf("expected BitrateBPS 100, got %d", cfg.BitrateBPS)
	}
}

func TestEnvOrIntFallsBackOnUnparsableValue(t *testing.T) {
	t.Setenv("QUEUE_BOUND", "not-a-number")
	if got := envOrInt("QUEUE_BOUND", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}
