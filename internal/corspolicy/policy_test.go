package corspolicy

import (
	"reflect"
	"testing"

	"github.com/benvon/proxy-api/internal/config"
)

func TestBuildPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origins []string
		want    []string
	}{
		{
			name:    "section absent",
			origins: nil,
			want:    []string{"http://localhost:4200"},
		},
		{
			name:    "section empty",
			origins: []string{},
			want:    []string{"http://localhost:4200"},
		},
		{
			name:    "only blank entries",
			origins: []string{"", "   ", "\t"},
			want:    []string{"http://localhost:4200"},
		},
		{
			name:    "blank entries removed, order preserved",
			origins: []string{"https://a.com", "", "https://b.com"},
			want:    []string{"https://a.com", "https://b.com"},
		},
		{
			name:    "surrounding whitespace trimmed",
			origins: []string{" https://b.com ", "https://a.com"},
			want:    []string{"https://b.com", "https://a.com"},
		},
		{
			name:    "single configured origin replaces default",
			origins: []string{"https://app.example.com:8443"},
			want:    []string{"https://app.example.com:8443"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := BuildPolicy(config.CORSConfig{AllowedOrigins: tt.origins})

			if !reflect.DeepEqual(p.AllowedOrigins, tt.want) {
				t.Errorf("Expected origins %v, got %v", tt.want, p.AllowedOrigins)
			}
			if p.Name != "CorsPolicy" {
				t.Errorf("Expected policy name 'CorsPolicy', got '%s'", p.Name)
			}
			if !p.AllowAnyHeader || !p.AllowAnyMethod || !p.AllowCredentials {
				t.Errorf("Expected all allow flags set, got header=%v method=%v credentials=%v",
					p.AllowAnyHeader, p.AllowAnyMethod, p.AllowCredentials)
			}
		})
	}
}

func TestBuildPolicy_Deterministic(t *testing.T) {
	t.Parallel()

	cfg := config.CORSConfig{AllowedOrigins: []string{"https://a.com", "", "https://b.com", "https://c.com"}}

	first := BuildPolicy(cfg)
	second := BuildPolicy(cfg)

	if !reflect.DeepEqual(first.AllowedOrigins, second.AllowedOrigins) {
		t.Errorf("Expected identical origins, got %v and %v", first.AllowedOrigins, second.AllowedOrigins)
	}
}

func TestBuildPolicy_DoesNotAliasConfig(t *testing.T) {
	t.Parallel()

	raw := []string{"https://a.com", "https://b.com"}
	p := BuildPolicy(config.CORSConfig{AllowedOrigins: raw})

	raw[0] = "https://evil.com"

	if p.AllowedOrigins[0] != "https://a.com" {
		t.Errorf("Policy changed after config mutation: %v", p.AllowedOrigins)
	}
}

func TestPolicy_AllowsOrigin(t *testing.T) {
	t.Parallel()

	p := BuildPolicy(config.CORSConfig{AllowedOrigins: []string{"https://a.com"}})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "https://a.com", want: true},
		{origin: "https://a.com/", want: false},
		{origin: "http://a.com", want: false},
		{origin: "http://localhost:4200", want: false},
		{origin: "", want: false},
	}

	for _, tt := range tests {
		if got := p.AllowsOrigin(tt.origin); got != tt.want {
			t.Errorf("AllowsOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
