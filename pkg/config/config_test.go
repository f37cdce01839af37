package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wikiutils.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Load() did not create default config file: %v", err)
	}
	if cfg.Wikidata.SPARQLEndpoint != "https://query.wikidata.org/sparql" {
		t.Errorf("unexpected sparql endpoint: %s", cfg.Wikidata.SPARQLEndpoint)
	}
	if cfg.Request.Retries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Request.Retries)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wikiutils.yaml")

	partial := []byte("wikidata:\n  language: bo\nrequest:\n  retries: 5\n")
	if err := os.WriteFile(path, partial, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Wikidata.Language != "bo" {
		t.Errorf("expected language bo, got %s", cfg.Wikidata.Language)
	}
	if cfg.Request.Retries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.Request.Retries)
	}
	// Untouched field keeps default
	if cfg.Wikidata.APIEndpoint != "https://www.wikidata.org/w/api.php" {
		t.Errorf("default api endpoint lost: %s", cfg.Wikidata.APIEndpoint)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"1.5h", 90 * time.Minute, false},
		{"2d", 48 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"", 0, true},
		{"xyz", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
