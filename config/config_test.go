package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty books path",
			mutate: func(cfg *Config) {
				cfg.BooksPath = ""
			},
			wantErr: "books path",
		},
		{
			name: "unknown source format",
			mutate: func(cfg *Config) {
				cfg.SourceFormat = "xml"
			},
			wantErr: "source format",
		},
		{
			name: "zero decode workers",
			mutate: func(cfg *Config) {
				cfg.DecodeWorkers = 0
			},
			wantErr: "decode workers",
		},
		{
			name: "zero max page size",
			mutate: func(cfg *Config) {
				cfg.MaxPageSize = 0
			},
			wantErr: "max page size",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.FetchTimeout = -1 * time.Second
			},
			wantErr: "fetch timeout",
		},
		{
			name: "backoff above max",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = 5 * time.Second
			},
			wantErr: "retry backoff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.MaxRows != 10000 {
		t.Fatalf("expected row cap 10000, got %d", cfg.MaxRows)
	}
}

func TestParseOrigins(t *testing.T) {
	got := ParseOrigins(" http://a.test ,, http://b.test,")
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseOrigins() = %q, want %q", got, want)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("CATALOG_TEST_WORKERS", " 8 ")
	value, ok, err := EnvInt("CATALOG_TEST_WORKERS")
	if err != nil || !ok || value != 8 {
		t.Fatalf("EnvInt() = %d, %v, %v; want 8, true, nil", value, ok, err)
	}

	t.Setenv("CATALOG_TEST_WORKERS", "eight")
	if _, _, err := EnvInt("CATALOG_TEST_WORKERS"); err == nil {
		t.Fatal("expected error for non-integer value")
	}

	t.Setenv("CATALOG_TEST_WORKERS", "")
	if _, ok, err := EnvInt("CATALOG_TEST_WORKERS"); ok || err != nil {
		t.Fatalf("blank value should be unset, got ok=%v err=%v", ok, err)
	}
}

func TestEnvString(t *testing.T) {
	if _, ok := EnvString("CATALOG_TEST_SURELY_UNSET"); ok {
		t.Fatal("unset variable reported as set")
	}
	t.Setenv("CATALOG_TEST_PATH", "data/books.csv")
	if value, ok := EnvString("CATALOG_TEST_PATH"); !ok || value != "data/books.csv" {
		t.Fatalf("EnvString() = %q, %v", value, ok)
	}
}

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantPageSize int
		wantRatings  bool
	}{
		{
			name:         "integer page size",
			body:         `{"Settings": {"PageSize": 15}, "feature_management": {"feature_flags": [{"id": "Ratings", "enabled": true}]}}`,
			wantPageSize: 15,
			wantRatings:  true,
		},
		{
			name:         "nested default page size",
			body:         `{"Settings": {"PageSize": {"Default": 25}}, "feature_management": {"feature_flags": [{"id": "Ratings", "enabled": "true"}]}}`,
			wantPageSize: 25,
			wantRatings:  true,
		},
		{
			name:         "disabled flag",
			body:         `{"Settings": {"PageSize": 5}, "feature_management": {"feature_flags": [{"id": "Ratings", "enabled": false}]}}`,
			wantPageSize: 5,
			wantRatings:  false,
		},
		{
			name:         "missing sections",
			body:         `{}`,
			wantPageSize: DefaultPageSize,
			wantRatings:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("write settings: %v", err)
			}
			settings, err := LoadSettings(path)
			if err != nil {
				t.Fatalf("LoadSettings() error = %v", err)
			}
			if settings.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", settings.PageSize, tt.wantPageSize)
			}
			if settings.IsEnabled(FeatureRatings) != tt.wantRatings {
				t.Errorf("IsEnabled(Ratings) = %v, want %v", settings.IsEnabled(FeatureRatings), tt.wantRatings)
			}
		})
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing settings file")
	}
	fallback := FallbackSettings()
	if fallback.PageSize != 10 || !fallback.IsEnabled(FeatureRatings) {
		t.Fatalf("unexpected fallback settings %+v", fallback)
	}
}
