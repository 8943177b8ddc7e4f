package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Positioning.DefaultTxPower != -59.0 {
		t.Errorf("default tx power = %g, want -59", cfg.Positioning.DefaultTxPower)
	}
	if cfg.Positioning.PathLossExponent != 2.0 {
		t.Errorf("path loss exponent = %g, want 2", cfg.Positioning.PathLossExponent)
	}
	if cfg.Positioning.StrideLength != 0.75 {
		t.Errorf("stride length = %g, want 0.75", cfg.Positioning.StrideLength)
	}
	if cfg.MQTT.BaseTopic != "indoornav" {
		t.Errorf("base topic = %q", cfg.MQTT.BaseTopic)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POSITIONING_STRIDE_LENGTH", "0.6")
	t.Setenv("MQTT_BASE_TOPIC", "campus/nav/")
	t.Setenv("POSTGRES_DATABASE", "navdb")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Positioning.StrideLength != 0.6 {
		t.Errorf("stride length = %g, want 0.6", cfg.Positioning.StrideLength)
	}
	// Trailing slash on the base topic is trimmed.
	if cfg.MQTT.BaseTopic != "campus/nav" {
		t.Errorf("base topic = %q, want campus/nav", cfg.MQTT.BaseTopic)
	}
	if cfg.Postgres.Database != "navdb" {
		t.Errorf("database = %q, want navdb", cfg.Postgres.Database)
	}
}

func TestLoad_RejectsBadPositioningValues(t *testing.T) {
	t.Setenv("POSITIONING_STRIDE_LENGTH", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for negative stride length")
	}
}
