// Package envdump prints the process environment for startup diagnostics.
package envdump

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/benvon/proxy-api/internal/logger"
)

// Header is written before the variable listing
const Header = "ENVIRONMENT VARIABLES:"

const redacted = "****"

// secretWords are name segments whose values are masked when redaction is on.
// Names are split on "_", "-" and "." and compared segment by segment, so
// GITHUB_TOKEN and AWS_SECRET_ACCESS_KEY match while KEYBOARD_LAYOUT does not.
var secretWords = map[string]bool{
	"SECRET": true, "SECRETS": true,
	"PASSWORD": true, "PASSWORDS": true, "PASSWD": true, "PASS": true,
	"TOKEN": true, "TOKENS": true,
	"KEY": true, "KEYS": true, "APIKEY": true, "PRIVATEKEY": true,
	"CREDENTIAL": true, "CREDENTIALS": true,
}

type options struct {
	redact bool
}

// Option configures Dump
type Option func(*options)

// WithRedaction masks the value of variables whose name looks like a secret.
func WithRedaction() Option {
	return func(o *options) { o.redact = true }
}

// Dump writes Header followed by one "KEY = VALUE" line per entry of environ,
// sorted by key. environ uses the os.Environ "KEY=VALUE" form.
func Dump(w io.Writer, environ []string, opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	vars := make(map[string]string, len(environ))
	keys := make([]string, 0, len(environ))
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		if key == "" {
			continue
		}
		if _, seen := vars[key]; !seen {
			keys = append(keys, key)
		}
		vars[key] = value
	}
	sort.Strings(keys)

	if _, err := fmt.Fprintln(w, Header); err != nil {
		return fmt.Errorf("write environment header: %w", err)
	}
	for _, key := range keys {
		value := vars[key]
		if o.redact && isSecret(key) {
			value = redacted
		}
		line := logger.SanitizeLine(key, logger.MaxGeneralStringLength) + " = " +
			logger.SanitizeLine(value, logger.MaxGeneralStringLength)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write environment variable %s: %w", key, err)
		}
	}
	return nil
}

// DumpProcess dumps the current process environment.
func DumpProcess(w io.Writer, opts ...Option) error {
	return Dump(w, os.Environ(), opts...)
}

func isSecret(key string) bool {
	words := strings.FieldsFunc(strings.ToUpper(key), func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for _, w := range words {
		if secretWords[w] {
			return true
		}
	}
	return false
}
