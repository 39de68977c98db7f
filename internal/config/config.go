package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/benvon/proxy-api/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvDevelopment enables the OpenAPI document and Swagger UI routes
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"

	defaultConfigFile = "config.yaml"
)

// Config holds application configuration
type Config struct {
	Environment            string `validate:"oneof=development staging production"`
	ServerPort             string `validate:"required,numeric"`
	ServerDebugMode        bool
	EnableHSTS             bool
	OpenAPIPath            string
	RateLimit              string
	RedisURL               string
	OTELEnabled            bool
	OTELEndpoint           string
	OTELInsecure           bool
	RequestTimeoutSeconds  int `validate:"gte=1"`
	ShutdownTimeoutSeconds int `validate:"gte=1"`
	MaxRequestBodyBytes    int `validate:"gte=1"`
	CORS                   CORSConfig
	// Warnings lists invalid settings that were replaced by their defaults
	Warnings []string
}

// defaults holds the values invalid optional settings fall back to
var defaults = Config{
	Environment:            EnvProduction,
	RequestTimeoutSeconds:  30,
	ShutdownTimeoutSeconds: 30,
	MaxRequestBodyBytes:    1 << 20,
}

// CORSConfig is the AllowedOrigins section. A nil AllowedOrigins means the
// section was not configured at all.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// fileConfig mirrors the subset of settings that can be provided by the YAML file.
type fileConfig struct {
	Environment    string   `yaml:"environment"`
	ServerPort     string   `yaml:"server_port"`
	AllowedOrigins yaml.Node `yaml:"allowed_origins"`
	RateLimit      *string  `yaml:"rate_limit"`
	RedisURL       string   `yaml:"redis_url"`
	OpenAPIPath    string   `yaml:"openapi_path"`
}

// IsDevelopment reports whether the process runs in the development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Load loads configuration from an optional .env file, an optional YAML file
// and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// .env never overrides variables already present in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	fc, err := readFile(getEnv("CONFIG_FILE", defaultConfigFile))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:            strings.ToLower(getEnv("APP_ENV", firstNonEmpty(fc.Environment, defaults.Environment))),
		ServerPort:             getEnv("SERVER_PORT", firstNonEmpty(fc.ServerPort, "8080")),
		ServerDebugMode:        getEnvBool("SERVER_DEBUG_MODE", false),
		EnableHSTS:             getEnvBool("ENABLE_HSTS", false),
		OpenAPIPath:            getEnv("OPENAPI_PATH", firstNonEmpty(fc.OpenAPIPath, "api/openapi/openapi.yaml")),
		RedisURL:               getEnv("REDIS_URL", fc.RedisURL),
		OTELEnabled:            getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:           getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:           getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		RequestTimeoutSeconds:  getEnvInt("REQUEST_TIMEOUT_SECONDS", defaults.RequestTimeoutSeconds),
		ShutdownTimeoutSeconds: getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", defaults.ShutdownTimeoutSeconds),
		MaxRequestBodyBytes:    getEnvInt("MAX_REQUEST_BODY_BYTES", defaults.MaxRequestBodyBytes),
		CORS:                   CORSConfig{AllowedOrigins: originsFromNode(&fc.AllowedOrigins)},
	}

	// An explicitly empty rate_limit in the file disables rate limiting
	cfg.RateLimit = "100-M"
	if fc.RateLimit != nil {
		cfg.RateLimit = *fc.RateLimit
	}
	if value, ok := os.LookupEnv("RATE_LIMIT"); ok {
		cfg.RateLimit = strings.TrimSpace(value)
	}

	if origins, ok := lookupOrigins(); ok {
		cfg.CORS.AllowedOrigins = origins
	}

	cfg.Warnings = applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults replaces invalid optional settings with their defaults and
// describes each replacement. The server port has no safe default and is
// left for Validate to reject.
func applyDefaults(cfg *Config) []string {
	var verrs validator.ValidationErrors
	if !errors.As(validation.Validate.Struct(cfg), &verrs) {
		return nil
	}

	var warnings []string
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Environment":
			cfg.Environment = defaults.Environment
		case "RequestTimeoutSeconds":
			cfg.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
		case "ShutdownTimeoutSeconds":
			cfg.ShutdownTimeoutSeconds = defaults.ShutdownTimeoutSeconds
		case "MaxRequestBodyBytes":
			cfg.MaxRequestBodyBytes = defaults.MaxRequestBodyBytes
		default:
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s %q failed %q validation, using default", fe.Field(), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return warnings
}

// DumpSettings reports whether the startup environment dump is enabled and
// whether it redacts secrets. It reads only the process environment, so it can
// run before Load pulls in .env and the YAML file.
func DumpSettings() (enabled, redact bool) {
	return getEnvBool("DUMP_ENV", true), getEnvBool("DUMP_ENV_REDACT", true)
}

// Validate checks struct-level constraints on the configuration
func Validate(cfg *Config) error {
	if err := validation.Validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q validation (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	port, err := strconv.Atoi(cfg.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid configuration: SERVER_PORT must be between 1 and 65535, got %q", cfg.ServerPort)
	}

	return nil
}

func readFile(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return fc, nil
}

// originsFromNode reads the allowed_origins YAML value. A single scalar is a
// one-entry list; entries that are not scalars are dropped. An absent or null
// value yields nil.
func originsFromNode(n *yaml.Node) []string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		return []string{n.Value}
	case yaml.SequenceNode:
		origins := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind == yaml.ScalarNode && item.ShortTag() != "!!null" {
				origins = append(origins, item.Value)
			}
		}
		return origins
	case yaml.AliasNode:
		if n.Alias != nil {
			return originsFromNode(n.Alias)
		}
		return nil
	case yaml.MappingNode:
		return []string{}
	default:
		return nil
	}
}

// lookupOrigins reads the AllowedOrigins section from the environment. The
// indexed form (ALLOWED_ORIGINS_0, ALLOWED_ORIGINS_1, ...) wins over the
// comma-separated ALLOWED_ORIGINS. Entries are returned as configured; blank
// filtering is left to the policy builder.
func lookupOrigins() ([]string, bool) {
	var indexed []string
	for i := 0; ; i++ {
		value, ok := os.LookupEnv("ALLOWED_ORIGINS_" + strconv.Itoa(i))
		if !ok {
			break
		}
		indexed = append(indexed, value)
	}
	if indexed != nil {
		return indexed, true
	}

	value, ok := os.LookupEnv("ALLOWED_ORIGINS")
	if !ok {
		return nil, false
	}
	return strings.Split(value, ","), true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
