// Package corspolicy builds the process-wide CORS policy from configuration.
//
// The policy is computed once at startup and handed to the HTTP pipeline,
// which applies it to every request for the lifetime of the process.
package corspolicy

import (
	"slices"
	"strings"

	"github.com/benvon/proxy-api/internal/config"
)

const (
	// Name is the name the policy is registered under in the HTTP pipeline
	Name = "CorsPolicy"
	// DefaultOrigin is used when no AllowedOrigins are configured
	DefaultOrigin = "http://localhost:4200"
)

// Policy is a named CORS policy. Treat it as read-only once built.
type Policy struct {
	Name             string   `json:"name" yaml:"name"`
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowAnyHeader   bool     `json:"allow_any_header" yaml:"allow_any_header"`
	AllowAnyMethod   bool     `json:"allow_any_method" yaml:"allow_any_method"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials"`
}

// BuildPolicy computes the CORS policy from the AllowedOrigins section.
// Blank entries are dropped and the configured order is kept. When nothing
// usable remains, the policy falls back to DefaultOrigin.
func BuildPolicy(cfg config.CORSConfig) Policy {
	origins := filterOrigins(cfg.AllowedOrigins)
	if len(origins) == 0 {
		origins = []string{DefaultOrigin}
	}

	return Policy{
		Name:             Name,
		AllowedOrigins:   origins,
		AllowAnyHeader:   true,
		AllowAnyMethod:   true,
		AllowCredentials: true,
	}
}

// AllowsOrigin reports whether origin is one of the allowed origins (exact match).
func (p Policy) AllowsOrigin(origin string) bool {
	return origin != "" && slices.Contains(p.AllowedOrigins, origin)
}

// filterOrigins returns a new slice holding the trimmed, non-blank entries of raw.
func filterOrigins(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, o := range raw {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	return out
}
