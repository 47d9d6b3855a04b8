package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("UPSTREAM_BASE_URL", "http://api.internal:9000/")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Upstream.BaseURL != "http://api.internal:9000" {
		t.Errorf("BaseURL: got %q, want trailing slash trimmed", cfg.Upstream.BaseURL)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"UpstreamTimeout", cfg.Upstream.Timeout, 0},
		{"RedirectFallbackDelay", cfg.UI.RedirectFallbackDelay, 300 * time.Millisecond},
		{"TabIdleTTL", cfg.Session.TabIdleTTL, 30 * time.Minute},
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Session.Backend != "sqlite" {
		t.Errorf("Backend: got %q, want sqlite", cfg.Session.Backend)
	}
	if cfg.Server.CookieSecure {
		t.Error("CookieSecure should default to false outside production")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
	os.Setenv("SESSION_BACKEND", "Memory")
	os.Setenv("REDIRECT_FALLBACK_DELAY", "1s")
	os.Setenv("DISPLAY_TIMEZONE", "UTC")
	os.Setenv("ENV", "production")
	os.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,172.16.0.0/12")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if got := cfg.Server.TrustedProxies; len(got) != 2 || got[0] != "10.0.0.0/8" || got[1] != "172.16.0.0/12" {
		t.Errorf("TrustedProxies: got %v", got)
	}
	if cfg.Session.Backend != "memory" {
		t.Errorf("Backend: got %q, want memory", cfg.Session.Backend)
	}
	if cfg.UI.RedirectFallbackDelay != time.Second {
		t.Errorf("RedirectFallbackDelay: got %v, want 1s", cfg.UI.RedirectFallbackDelay)
	}
	if cfg.UI.TimeZone != time.UTC {
		t.Errorf("TimeZone: got %v, want UTC", cfg.UI.TimeZone)
	}
	if !cfg.Server.CookieSecure {
		t.Error("CookieSecure should default to true in production")
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	os.Setenv("UPSTREAM_BASE_URL", "http://localhost:3000")
	os.Setenv("TAB_IDLE_TTL", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Session.TabIdleTTL != 30*time.Minute {
		t.Errorf("TabIdleTTL: got %v, want default", cfg.Session.TabIdleTTL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing upstream", map[string]string{}},
		{"relative upstream", map[string]string{"UPSTREAM_BASE_URL": "/api"}},
		{"ftp upstream", map[string]string{"UPSTREAM_BASE_URL": "ftp://host"}},
		{"unknown backend", map[string]string{"UPSTREAM_BASE_URL": "http://h", "SESSION_BACKEND": "redis"}},
		{"postgres without password", map[string]string{"UPSTREAM_BASE_URL": "http://h", "SESSION_BACKEND": "postgres"}},
		{"bad timezone", map[string]string{"UPSTREAM_BASE_URL": "http://h", "DISPLAY_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer os.Clearenv()

			if _, err := Load(); err == nil {
				t.Error("Load() = nil, want error")
			}
		})
	}
}
