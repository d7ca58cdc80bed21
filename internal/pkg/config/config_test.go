package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("instatrip-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Photos.SearchRadiusMeters != 300 {
		t.Errorf("expected default search radius 300, got %d", cfg.Photos.SearchRadiusMeters)
	}
	if cfg.Photos.CallTimeout != 5*time.Second {
		t.Errorf("expected default call timeout 5s, got %s", cfg.Photos.CallTimeout)
	}
	if cfg.RouteProvider != "google" {
		t.Errorf("expected google route provider, got %s", cfg.RouteProvider)
	}
	if cfg.Telemetry.ServiceName != "instatrip-test" {
		t.Errorf("expected service name from argument, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("INSTATRIP_PHOTOS_SEARCH_RADIUS_METERS", "750")
	t.Setenv("INSTATRIP_PHOTOS_CALL_TIMEOUT", "2s")
	t.Setenv("INSTATRIP_ROUTE_PROVIDER", "osrm")

	cfg, err := Load("instatrip-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Photos.SearchRadiusMeters != 750 {
		t.Errorf("expected radius 750, got %d", cfg.Photos.SearchRadiusMeters)
	}
	if cfg.Photos.CallTimeout != 2*time.Second {
		t.Errorf("expected call timeout 2s, got %s", cfg.Photos.CallTimeout)
	}
	if cfg.RouteProvider != "osrm" {
		t.Errorf("expected osrm, got %s", cfg.RouteProvider)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &Config{RouteProvider: "bing"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "route_provider", "photos.search_radius_meters", "nats.url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got: %v", want, err)
		}
	}
}
