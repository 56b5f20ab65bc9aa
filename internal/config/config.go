// Package config reads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Defaults.
const (
	DefaultAddr           = ":8000"
	DefaultFlowsDir       = "flows"
	DefaultMainFlow       = "train_main"
	DefaultSessionDir     = ".ivrflow/sessions"
	DefaultRedisAddr      = "localhost:6379"
	DefaultSessionTTL     = 24 * time.Hour
	DefaultSummaryDir     = "logs"
	DefaultMaxInputSize   = 4096
	DefaultSessionBackend = BackendMemory
)

// Config holds the service settings.
type Config struct {
	Addr     string
	FlowsDir string
	MainFlow string

	SessionBackend string
	SessionDir     string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// SessionKey enables encryption at rest (32 bytes, hex or base64).
	SessionKey          string
	SessionFallbackKeys []string

	SummaryDir      string
	SummaryDBDriver string
	SummaryDBDSN    string

	// SummaryMask lists field name patterns masked in call summaries.
	SummaryMask []string

	Watch        bool
	Debug        bool
	LogFormat    string
	MaxInputSize int
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		FlowsDir:       DefaultFlowsDir,
		MainFlow:       DefaultMainFlow,
		SessionBackend: DefaultSessionBackend,
		SessionDir:     DefaultSessionDir,
		SessionTTL:     DefaultSessionTTL,
		RedisAddr:      DefaultRedisAddr,
		SummaryDir:     DefaultSummaryDir,
		LogFormat:      "text",
		MaxInputSize:   DefaultMaxInputSize,
	}
}

// Load reads the given .env files (".env" when none, ignored if missing) and
// the process environment. Process variables win over file entries; the
// process environment is never modified.
func Load(files ...string) (Config, error) {
	fileEnv := map[string]string{}
	if len(files) == 0 {
		if m, err := godotenv.Read(); err == nil {
			fileEnv = m
		}
	} else {
		m, err := godotenv.Read(files...)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read env file: %w", err)
		}
		fileEnv = m
	}

	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})
}

// FromLookup builds a Config from IVR_* variables resolved by lookup.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			var out []string
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			*dst = out
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("IVR_ADDR", &cfg.Addr)
	str("IVR_FLOWS_DIR", &cfg.FlowsDir)
	str("IVR_MAIN_FLOW", &cfg.MainFlow)
	str("IVR_SESSION_BACKEND", &cfg.SessionBackend)
	str("IVR_SESSION_DIR", &cfg.SessionDir)
	str("IVR_REDIS_ADDR", &cfg.RedisAddr)
	str("IVR_REDIS_PASSWORD", &cfg.RedisPassword)
	integer("IVR_REDIS_DB", &cfg.RedisDB)
	str("IVR_SESSION_KEY", &cfg.SessionKey)
	list("IVR_SESSION_FALLBACK_KEYS", &cfg.SessionFallbackKeys)
	str("IVR_SUMMARY_DIR", &cfg.SummaryDir)
	str("IVR_SUMMARY_DB_DRIVER", &cfg.SummaryDBDriver)
	str("IVR_SUMMARY_DB_DSN", &cfg.SummaryDBDSN)
	list("IVR_SUMMARY_MASK", &cfg.SummaryMask)
	boolean("IVR_WATCH", &cfg.Watch)
	boolean("IVR_DEBUG", &cfg.Debug)
	str("IVR_LOG_FORMAT", &cfg.LogFormat)
	integer("IVR_MAX_INPUT_SIZE", &cfg.MaxInputSize)

	if v, ok := lookup("IVR_SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("IVR_SESSION_TTL: %w", err))
		} else {
			cfg.SessionTTL = d
		}
	}

	cfg.SessionBackend = strings.ToLower(cfg.SessionBackend)
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks values that cannot be caught while parsing.
func (c Config) Validate() error {
	switch c.SessionBackend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown session backend %q (want memory, file or redis)", c.SessionBackend)
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("max input size must be positive, got %d", c.MaxInputSize)
	}
	if c.SessionKey == "" && len(c.SessionFallbackKeys) > 0 {
		return errors.New("IVR_SESSION_FALLBACK_KEYS needs IVR_SESSION_KEY")
	}
	if c.SummaryDBDriver != "" && c.SummaryDBDSN == "" {
		return errors.New("IVR_SUMMARY_DB_DRIVER is set but IVR_SUMMARY_DB_DSN is empty")
	}
	return nil
}
