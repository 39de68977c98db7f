package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// configEnvVars lists every variable Load reads, so each test starts from a clean slate.
var configEnvVars = []string{
	"CONFIG_FILE",
	"APP_ENV",
	"SERVER_PORT",
	"SERVER_DEBUG_MODE",
	"ENABLE_HSTS",
	"DUMP_ENV",
	"DUMP_ENV_REDACT",
	"OPENAPI_PATH",
	"RATE_LIMIT",
	"REDIS_URL",
	"OTEL_ENABLED",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_INSECURE",
	"REQUEST_TIMEOUT_SECONDS",
	"SHUTDOWN_TIMEOUT_SECONDS",
	"MAX_REQUEST_BODY_BYTES",
	"ALLOWED_ORIGINS",
	"ALLOWED_ORIGINS_0",
	"ALLOWED_ORIGINS_1",
	"ALLOWED_ORIGINS_2",
}

// unsetEnv removes key for the duration of the test; t.Setenv restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key) // Ignore error in test setup
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		unsetEnv(t, key)
	}
	// Point at a file that does not exist so a stray config.yaml is never picked up
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		file        string
		expectError bool
		validate    func(*testing.T, *Config)
	}{
		{
			name: "default values",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != "8080" {
					t.Errorf("Expected default ServerPort to be '8080', got '%s'", cfg.ServerPort)
				}
				if cfg.Environment != EnvProduction {
					t.Errorf("Expected default Environment to be '%s', got '%s'", EnvProduction, cfg.Environment)
				}
				if len(cfg.Warnings) != 0 {
					t.Errorf("Expected no warnings, got %v", cfg.Warnings)
				}
				if cfg.RateLimit != "100-M" {
					t.Errorf("Expected default RateLimit to be '100-M', got '%s'", cfg.RateLimit)
				}
				if cfg.CORS.AllowedOrigins != nil {
					t.Errorf("Expected AllowedOrigins to be absent, got %v", cfg.CORS.AllowedOrigins)
				}
				if cfg.MaxRequestBodyBytes != 1<<20 {
					t.Errorf("Expected 1MiB body limit, got %d", cfg.MaxRequestBodyBytes)
				}
				if cfg.OTELEnabled || !cfg.OTELInsecure {
					t.Errorf("Expected tracing off with an insecure exporter by default, got enabled=%v insecure=%v", cfg.OTELEnabled, cfg.OTELInsecure)
				}
				if cfg.RequestTimeoutSeconds != 30 || cfg.ShutdownTimeoutSeconds != 30 {
					t.Errorf("Expected 30s timeouts, got request=%d shutdown=%d", cfg.RequestTimeoutSeconds, cfg.ShutdownTimeoutSeconds)
				}
			},
		},
		{
			name: "env overrides",
			envVars: map[string]string{
				"APP_ENV":           "Development",
				"SERVER_PORT":       "9090",
				"SERVER_DEBUG_MODE": "true",
				"RATE_LIMIT":        "",
			},
			validate: func(t *testing.T, cfg *Config) {
				if !cfg.IsDevelopment() {
					t.Errorf("Expected development environment, got '%s'", cfg.Environment)
				}
				if cfg.ServerPort != "9090" {
					t.Errorf("Expected ServerPort to be '9090', got '%s'", cfg.ServerPort)
				}
				if !cfg.ServerDebugMode {
					t.Error("Expected ServerDebugMode to be true")
				}
				if cfg.RateLimit != "" {
					t.Errorf("Expected RateLimit to be disabled, got '%s'", cfg.RateLimit)
				}
			},
		},
		{
			name:    "comma separated origins",
			envVars: map[string]string{"ALLOWED_ORIGINS": "https://a.com,,https://b.com"},
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://a.com", "", "https://b.com"}
				if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
					t.Errorf("Expected AllowedOrigins %v, got %v", want, cfg.CORS.AllowedOrigins)
				}
			},
		},
		{
			name: "indexed origins win over comma form",
			envVars: map[string]string{
				"ALLOWED_ORIGINS":   "https://ignored.com",
				"ALLOWED_ORIGINS_0": "https://one.com",
				"ALLOWED_ORIGINS_1": "https://two.com",
			},
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://one.com", "https://two.com"}
				if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
					t.Errorf("Expected AllowedOrigins %v, got %v", want, cfg.CORS.AllowedOrigins)
				}
			},
		},
		{
			name: "yaml file",
			file: "environment: staging\nserver_port: \"7000\"\nrate_limit: \"\"\nallowed_origins:\n  - https://file.example.com\n  - \"\"\n",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Environment != EnvStaging {
					t.Errorf("Expected Environment 'staging', got '%s'", cfg.Environment)
				}
				if cfg.ServerPort != "7000" {
					t.Errorf("Expected ServerPort '7000', got '%s'", cfg.ServerPort)
				}
				if cfg.RateLimit != "" {
					t.Errorf("Expected RateLimit to be disabled by file, got '%s'", cfg.RateLimit)
				}
				want := []string{"https://file.example.com", ""}
				if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
					t.Errorf("Expected AllowedOrigins %v, got %v", want, cfg.CORS.AllowedOrigins)
				}
			},
		},
		{
			name:    "env origins override yaml file",
			file:    "allowed_origins:\n  - https://file.example.com\n",
			envVars: map[string]string{"ALLOWED_ORIGINS": "https://env.example.com"},
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://env.example.com"}
				if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
					t.Errorf("Expected AllowedOrigins %v, got %v", want, cfg.CORS.AllowedOrigins)
				}
			},
		},
		{
			name:        "malformed yaml file",
			file:        "allowed_origins: [unterminated\n",
			expectError: true,
		},
		{
			name:    "invalid environment falls back to production",
			envVars: map[string]string{"APP_ENV": "dev"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Environment != EnvProduction {
					t.Errorf("Expected Environment '%s', got '%s'", EnvProduction, cfg.Environment)
				}
				if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "Environment") {
					t.Errorf("Expected one Environment warning, got %v", cfg.Warnings)
				}
			},
		},
		{
			name: "non positive limits fall back to defaults",
			envVars: map[string]string{
				"REQUEST_TIMEOUT_SECONDS":  "0",
				"SHUTDOWN_TIMEOUT_SECONDS": "-5",
				"MAX_REQUEST_BODY_BYTES":   "0",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.RequestTimeoutSeconds != 30 || cfg.ShutdownTimeoutSeconds != 30 || cfg.MaxRequestBodyBytes != 1<<20 {
					t.Errorf("Expected defaults, got request=%d shutdown=%d body=%d", cfg.RequestTimeoutSeconds, cfg.ShutdownTimeoutSeconds, cfg.MaxRequestBodyBytes)
				}
				if len(cfg.Warnings) != 3 {
					t.Errorf("Expected three warnings, got %v", cfg.Warnings)
				}
			},
		},
		{
			name: "scalar allowed_origins is a one entry list",
			file: "allowed_origins: https://a.com\n",
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://a.com"}
				if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
					t.Errorf("Expected AllowedOrigins %v, got %v", want, cfg.CORS.AllowedOrigins)
				}
			},
		},
		{
			name: "non scalar entries are dropped",
			file: "allowed_origins:\n  - https://a.com\n  - {x: 1}\n  - [nested]\n  - ~\n  - https://b.com\n",
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://a.com", "https://b.com"}
				if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
					t.Errorf("Expected AllowedOrigins %v, got %v", want, cfg.CORS.AllowedOrigins)
				}
			},
		},
		{
			name: "mapping allowed_origins yields no usable entries",
			file: "allowed_origins:\n  first: https://a.com\n",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.CORS.AllowedOrigins == nil || len(cfg.CORS.AllowedOrigins) != 0 {
					t.Errorf("Expected present but empty AllowedOrigins, got %#v", cfg.CORS.AllowedOrigins)
				}
			},
		},
		{
			name: "null allowed_origins is absent",
			file: "allowed_origins:\n",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.CORS.AllowedOrigins != nil {
					t.Errorf("Expected absent AllowedOrigins, got %#v", cfg.CORS.AllowedOrigins)
				}
			},
		},
		{
			name:        "non numeric port",
			envVars:     map[string]string{"SERVER_PORT": "http"},
			expectError: true,
		},
		{
			name:        "port out of range",
			envVars:     map[string]string{"SERVER_PORT": "70000"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)

			if tt.file != "" {
				t.Setenv("CONFIG_FILE", writeConfigFile(t, tt.file))
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load()

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if cfg == nil {
				t.Fatal("Config is nil")
			}

			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLookupOrigins_Absent(t *testing.T) {
	unsetEnv(t, "ALLOWED_ORIGINS")
	unsetEnv(t, "ALLOWED_ORIGINS_0")

	origins, ok := lookupOrigins()
	if ok {
		t.Errorf("Expected origins to be absent, got %v", origins)
	}
}

func TestLookupOrigins_IndexedStopsAtGap(t *testing.T) {
	unsetEnv(t, "ALLOWED_ORIGINS")
	t.Setenv("ALLOWED_ORIGINS_0", "https://a.com")
	unsetEnv(t, "ALLOWED_ORIGINS_1")
	t.Setenv("ALLOWED_ORIGINS_2", "https://c.com")

	origins, ok := lookupOrigins()
	if !ok {
		t.Fatal("Expected origins to be present")
	}
	if !reflect.DeepEqual(origins, []string{"https://a.com"}) {
		t.Errorf("Expected [https://a.com], got %v", origins)
	}
}

func TestDumpSettings(t *testing.T) {
	unsetEnv(t, "DUMP_ENV")
	unsetEnv(t, "DUMP_ENV_REDACT")

	if enabled, redact := DumpSettings(); !enabled || !redact {
		t.Errorf("Expected dump with redaction by default, got enabled=%v redact=%v", enabled, redact)
	}

	t.Setenv("DUMP_ENV", "false")
	t.Setenv("DUMP_ENV_REDACT", "false")
	if enabled, redact := DumpSettings(); enabled || redact {
		t.Errorf("Expected dump disabled without redaction, got enabled=%v redact=%v", enabled, redact)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{name: "env var set to 'true'", value: "true", defaultValue: false, want: true},
		{name: "env var set to '1'", value: "1", defaultValue: false, want: true},
		{name: "env var set to 'yes'", value: "yes", defaultValue: false, want: true},
		{name: "env var set to 'false'", value: "false", defaultValue: true, want: false},
		{name: "env var not set", value: "", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_KEY", tt.value)

			got := getEnvBool("TEST_BOOL_KEY", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(TEST_BOOL_KEY, %v) = %v, want %v", tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "not-a-number")
	if got := getEnvInt("TEST_INT_KEY", 7); got != 7 {
		t.Errorf("Expected fallback 7 for unparsable value, got %d", got)
	}

	t.Setenv("TEST_INT_KEY", "42")
	if got := getEnvInt("TEST_INT_KEY", 7); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
}
