package gc

import "testing"

func TestConfigFromEnv(t *testing.T) {
	env := map[string]string{
		"TRACEGC_BACKEND":    "copying",
		"TRACEGC_HEAP_BYTES": "65536",
	}
	cfg := ConfigFromEnv(func(k string) string { return env[k] })
	if cfg.Backend != "copying" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "copying")
	}
	if cfg.InitialHeapBytes != 65536 {
		t.Errorf("InitialHeapBytes = %d, want 65536", cfg.InitialHeapBytes)
	}
}

func TestConfigFromEnvIgnoresGarbageHeapBytes(t *testing.T) {
	env := map[string]string{"TRACEGC_HEAP_BYTES": "not-a-number"}
	cfg := ConfigFromEnv(func(k string) string { return env[k] })
	if cfg.InitialHeapBytes != 0 {
		t.Errorf("InitialHeapBytes = %d, want 0 for an unparsable value", cfg.InitialHeapBytes)
	}
}

func TestAlign(t *testing.T) {
	cases := map[uintptr]uintptr{0: 0, 1: 8, 7: 8, 8: 8, 9: 16, 24: 24}
	for in, want := range cases {
		if got := align(in); got != want {
			t.Errorf("align(%d) = %d, want %d", in, got, want)
		}
	}
}
