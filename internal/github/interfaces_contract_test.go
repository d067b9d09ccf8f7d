package github

import (
	"testing"
	"time"
)

func TestConfigWithDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}.WithDefaults()

	if cfg.MaxRetries != 3 {
		t.Fatalf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.InitialBackoff != 2*time.Second {
		t.Fatalf("InitialBackoff = %s, want 2s", cfg.InitialBackoff)
	}
}

func TestNewBackendReturnsBackend(t *testing.T) {
	t.Parallel()

	backend, err := NewBackend(Config{})
	if err != nil {
		t.Fatalf("NewBackend error = %v, want nil", err)
	}
	if backend == nil {
		t.Fatal("NewBackend returned nil backend")
	}
}

func TestNewBackendRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		cfg  Config
	}{
		{name: "negative retries", cfg: Config{MaxRetries: -1}},
		{name: "negative backoff", cfg: Config{InitialBackoff: -time.Second}},
		{name: "bad rest url", cfg: Config{RESTBaseURL: "://bad"}},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewBackend(tc.cfg); err == nil {
				t.Fatal("NewBackend error = nil, want error")
			}
		})
	}
}
