package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables, applies tag
// defaults and validates the result.
func Load() (*Config, error) {
	return loadFrom(os.Getenv)
}

func loadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := decode(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// envTag is the parsed form of a field's env, envAlt, default and required
// struct tags.
type envTag struct {
	name     string
	alt      string
	fallback string
	required bool
}

func tagOf(f reflect.StructField) envTag {
	return envTag{
		name:     f.Tag.Get("env"),
		alt:      f.Tag.Get("envAlt"),
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}
}

// lookup returns the trimmed value of the primary variable, then the
// alternate, then the default. An empty result means the field keeps its
// zero value.
func (t envTag) lookup(getenv func(string) string) (string, error) {
	for _, name := range []string{t.name, t.alt} {
		if name == "" {
			continue
		}
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v, nil
		}
	}
	if t.required {
		return "", fmt.Errorf("required environment variable %s is not set", t.name)
	}
	return t.fallback, nil
}

// decode fills the exported fields of the struct v, descending into nested
// config sections. Fields without an env tag are left alone.
func decode(v reflect.Value, getenv func(string) string) error {
	for i := range v.NumField() {
		sf, fv := v.Type().Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			if err := decode(fv, getenv); err != nil {
				return err
			}
			continue
		}

		tag := tagOf(sf)
		if tag.name == "" {
			continue
		}
		raw, err := tag.lookup(getenv)
		if err != nil {
			return err
		}
		if raw == "" {
			continue
		}

		parse, ok := parsers[sf.Type]
		if !ok {
			return fmt.Errorf("%s: unsupported field type %s", tag.name, sf.Type)
		}
		parsed, err := parse(raw)
		if err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", tag.name, raw, err)
		}
		fv.Set(reflect.ValueOf(parsed).Convert(sf.Type))
	}
	return nil
}

// parsers converts a raw variable into each supported field type.
var parsers = map[reflect.Type]func(string) (any, error){
	reflect.TypeFor[string](): func(s string) (any, error) { return s, nil },
	reflect.TypeFor[int](): func(s string) (any, error) {
		return strconv.Atoi(s)
	},
	reflect.TypeFor[int64](): func(s string) (any, error) {
		return strconv.ParseInt(s, 10, 64)
	},
	reflect.TypeFor[bool](): func(s string) (any, error) {
		return strconv.ParseBool(s)
	},
	reflect.TypeFor[time.Duration](): func(s string) (any, error) {
		return time.ParseDuration(s)
	},
	reflect.TypeFor[[]string](): func(s string) (any, error) {
		return splitList(s), nil
	},
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// problems collects validation failures so they can be reported together.
type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return errors.New("validation failed:\n  - " + strings.Join(p, "\n  - "))
}

// Validate reports every invalid setting in one error.
func (c *Config) Validate() error {
	var p problems

	db := c.Database
	if db.URL == "" {
		p.check(false, "DATABASE_URL is required")
	} else {
		p.check(db.Driver() != "", "DATABASE_URL must start with postgres://, postgresql://, sqlite:// or file:")
	}
	p.check(db.MaxConns >= db.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)
	p.check(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
	p.check(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")

	srv := c.Server
	p.check(srv.Port > 0 && srv.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", srv.Port)
	p.check(srv.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(srv.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	imp := c.Import
	p.check(imp.MaxFileSize > 0, "IMPORT_MAX_FILE_SIZE must be positive")
	p.check(imp.MaxConcurrent > 0, "IMPORT_MAX_CONCURRENT must be positive")
	p.check(imp.MaxWaitTime > 0, "IMPORT_MAX_WAIT_TIME must be positive")
	p.check(imp.Timeout > 0, "IMPORT_TIMEOUT must be positive")
	p.check(imp.BatchSize > 0, "IMPORT_BATCH_SIZE must be positive")
	p.check(strings.Contains(imp.ImageURLTemplate, "{contentKey}"),
		"IMAGE_URL_TEMPLATE (%q) must contain {contentKey}", imp.ImageURLTemplate)

	if c.Rate.Enabled {
		p.check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		p.check(c.Rate.ImportLimit > 0, "RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
	}

	p.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")

	p.check((c.Storage.AccessKeyID == "") == (c.Storage.SecretAccessKey == ""),
		"AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	return p.err()
}

// String renders the config for startup logs. The database URL, API keys
// and AWS credentials never appear in it.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d}, "+
		"Database: {Driver: %q, URL: [MASKED], MaxConns: %d, MinConns: %d}, "+
		"Import: {MaxFileSize: %d, MaxConcurrent: %d, BatchSize: %d, ImageURLTemplate: %q}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d}, "+
		"Security: {RequireAPIKey: %v, APIKeys: [%d MASKED]}, "+
		"Storage: {Region: %q, Endpoint: %q, StaticCredentials: %v}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Host, c.Server.Port,
		c.Database.Driver(), c.Database.MaxConns, c.Database.MinConns,
		c.Import.MaxFileSize, c.Import.MaxConcurrent, c.Import.BatchSize, c.Import.ImageURLTemplate,
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Security.RequireAPIKey, len(c.Security.APIKeys),
		c.Storage.Region, c.Storage.Endpoint, c.Storage.AccessKeyID != "",
		c.Logging.Level, c.Logging.Format,
	)
}
