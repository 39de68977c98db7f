package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	if err := Validate.RegisterValidation("cors_origin", validateOrigin); err != nil {
		panic(fmt.Sprintf("failed to register cors_origin validator: %v", err))
	}
}

// validateOrigin accepts serialized origins: http(s) scheme, a host, optional
// port, and nothing else. Browsers send exactly this form in the Origin header.
func validateOrigin(fl validator.FieldLevel) bool {
	return Origin(fl.Field().String()) == nil
}

// Origin reports why s can never equal a browser Origin header, or nil if it can.
// Allowed origins are compared exactly, so wildcard entries never match.
func Origin(s string) error {
	if strings.Contains(s, "*") {
		return errors.New("wildcards are not supported, origins are matched exactly")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("not a URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	if host := u.Hostname(); net.ParseIP(host) == nil && !validHostname(host) {
		return fmt.Errorf("invalid host %q", host)
	}
	if u.User != nil {
		return fmt.Errorf("must not contain user info")
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "#") {
		return fmt.Errorf("must not contain a path, query or fragment")
	}
	if strings.ToLower(s) != s {
		return fmt.Errorf("must be lower case")
	}
	return nil
}

func validHostname(host string) bool {
	if host == "" {
		return false
	}
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}

// UnmatchableOrigins returns, for each origin that can never match, the reason why.
// Blank entries are skipped; they are dropped by the policy builder.
func UnmatchableOrigins(origins []string) map[string]error {
	out := make(map[string]error)
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if err := Origin(o); err != nil {
			out[o] = err
		}
	}
	return out
}
