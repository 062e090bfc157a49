package metrics

import (
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.PassTimeout != 30*time.Second {
		t.Errorf("PassTimeout = %v, want %v", cfg.PassTimeout, 30*time.Second)
	}
	if cfg.Namespace != "" {
		t.Errorf("Namespace = %q, want empty", cfg.Namespace)
	}
}

func TestConfig_DefaultsPreserveExisting(t *testing.T) {
	cfg := Config{
		PassTimeout: 5 * time.Second,
		Namespace:   "enmasse",
	}
	cfg.ApplyDefaults()

	if cfg.PassTimeout != 5*time.Second {
		t.Errorf("PassTimeout = %v, want %v", cfg.PassTimeout, 5*time.Second)
	}
	if cfg.Namespace != "enmasse" {
		t.Errorf("Namespace = %q, want enmasse", cfg.Namespace)
	}
}

func TestConfig_ValidateRejectsNegativePassTimeout(t *testing.T) {
	cfg := Config{PassTimeout: -time.Second}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error for negative PassTimeout")
	}
	want := "metrics: config: PassTimeout must be positive"
	if err.Error() != want {
		t.Errorf("Validate() error = %q, want %q", err.Error(), want)
	}
}

func TestConfig_ValidateAcceptsDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
