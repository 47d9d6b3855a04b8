package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	pkghttp "github.com/apollotyres/console/pkg/http"
)

func TestNewIPConfig_ReportsInvalidRanges(t *testing.T) {
	_, invalid := pkghttp.NewIPConfig([]string{"10.0.0.0/8", " ", "not-a-cidr", "::1/128"})

	assert.Equal(t, []string{"not-a-cidr"}, invalid)
}

func TestExtractClientIP(t *testing.T) {
	proxies, _ := pkghttp.NewIPConfig([]string{"10.0.0.0/8", "127.0.0.1/32", "2001:db8::/32"})

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		config     *pkghttp.IPConfig
		want       string
	}{
		{
			name:       "direct client cannot spoof forwarding headers",
			remoteAddr: "203.0.113.10:54321",
			xff:        "1.2.3.4, 5.6.7.8",
			realIP:     "192.168.1.1",
			config:     proxies,
			want:       "203.0.113.10",
		},
		{
			name:       "trusted proxy forwards first address",
			remoteAddr: "10.0.0.5:54321",
			xff:        "203.0.113.42, 10.0.0.5",
			config:     proxies,
			want:       "203.0.113.42",
		},
		{
			name:       "trusted proxy skips garbage entries",
			remoteAddr: "10.0.0.5:54321",
			xff:        "garbage, 198.51.100.7",
			config:     proxies,
			want:       "198.51.100.7",
		},
		{
			name:       "trusted proxy falls back to X-Real-IP",
			remoteAddr: "10.0.0.5:54321",
			realIP:     "198.51.100.8",
			config:     proxies,
			want:       "198.51.100.8",
		},
		{
			name:       "ipv6 proxy",
			remoteAddr: "[2001:db8::1]:443",
			xff:        "2001:db8:ffff::42",
			config:     proxies,
			want:       "2001:db8:ffff::42",
		},
		{
			name:       "nil config trusts nobody",
			remoteAddr: "10.0.0.5:54321",
			xff:        "1.2.3.4",
			want:       "10.0.0.5",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.9",
			config:     proxies,
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			assert.Equal(t, tt.want, pkghttp.ExtractClientIP(req, tt.config))
		})
	}
}
