package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength bounds URL paths in logs
	MaxPathLength = 500
	// MaxOriginLength bounds Origin header values in logs. Real origins are
	// scheme, host and port, well under this.
	MaxOriginLength = 256
	// MaxGeneralStringLength bounds any other user-controlled string
	MaxGeneralStringLength = 2000
)

var lineEscaper = strings.NewReplacer("\r", `\r`, "\n", `\n`)

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeOrigin sanitizes an Origin header value for safe logging
func SanitizeOrigin(origin string) string {
	return SanitizeString(origin, MaxOriginLength)
}

// SanitizeString drops invalid UTF-8 and control characters other than
// whitespace, then truncates to maxLength bytes (marked with "...").
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = keepPrintable(s)
	if len(s) > maxLength {
		s = strings.ToValidUTF8(s[:maxLength], "") + "..."
	}
	return s
}

// SanitizeLine is SanitizeString for line-oriented output: CR and LF are
// escaped so the result always stays on one line.
func SanitizeLine(s string, maxLength int) string {
	return SanitizeString(lineEscaper.Replace(s), maxLength)
}

func keepPrintable(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
