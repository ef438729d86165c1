package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/tokendock/internal/store"
)

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:7420"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Storage
	StoreDriver  string // "file" | "redis" | "memory"
	DataDir      string // file store directory
	FavoritesKey string // key holding the favorites blob

	// Apps catalog
	AppsFile       string        // path to apps.yaml (optional, empty = catalog disabled)
	ReloadInterval time.Duration // interval to reload apps.yaml (default: 5m)
	OrphanInterval time.Duration // interval to sweep orphaned favorites (default: 1h)

	// Redis (only read when StoreDriver == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions
	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // restrict access to specific networks (default: loopback)
	AllowedOrigins []string // CORS origins allowed to call the API (the UI dev server)
	TrustProxy     bool     // true => trust X-Forwarded-For headers
	RateBurst      int      // mutating requests allowed in a burst, per client
	RateRefill     int      // mutating requests refilled per minute, per client
}

// LoadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("TOKENDOCK_LISTEN_ADDR", "127.0.0.1:7420"),
		ShutdownTimeout: mustDuration("TOKENDOCK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("TOKENDOCK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TOKENDOCK_PRETTY_LOG", true),

		// Storage
		StoreDriver:  strings.ToLower(getenv("TOKENDOCK_STORE_DRIVER", store.DriverFile)),
		DataDir:      getenv("TOKENDOCK_DATA_DIR", defaultDataDir()),
		FavoritesKey: getenv("TOKENDOCK_FAVORITES_KEY", "favorites"),

		// Apps catalog
		AppsFile:       getenv("TOKENDOCK_APPS_FILE", ""), // Optional, empty = catalog disabled
		ReloadInterval: mustDuration("TOKENDOCK_RELOAD_INTERVAL", 5*time.Minute),
		OrphanInterval: mustDuration("TOKENDOCK_ORPHAN_INTERVAL", time.Hour),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("TOKENDOCK_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   splitAndTrim(getenv("TOKENDOCK_ALLOWED_CIDRS", "127.0.0.1/32,::1/128")),
		AllowedOrigins: splitAndTrim(getenv("TOKENDOCK_ALLOWED_ORIGINS", "http://localhost:5173")),
		TrustProxy:     mustBool("TOKENDOCK_TRUST_PROXY", false),
		RateBurst:      getenvInt("TOKENDOCK_RATE_BURST", 30),
		RateRefill:     getenvInt("TOKENDOCK_RATE_REFILL", 120),
	}

	switch cfg.StoreDriver {
	case store.DriverFile:
		if cfg.DataDir == "" {
			panic("❌ FATAL: TOKENDOCK_DATA_DIR is required for the file store")
		}
	case store.DriverMemory:
	case store.DriverRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown TOKENDOCK_STORE_DRIVER %q (want file, redis or memory)", cfg.StoreDriver))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("TOKENDOCK_REDIS_ADDR")
	cfg.RedisUser = getenv("TOKENDOCK_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("TOKENDOCK_REDIS_PASSWORD_REQUIRED", false)
	cfg.RedisPassword = getenv("TOKENDOCK_REDIS_PASSWORD", "")
	cfg.RedisDB = getenvInt("TOKENDOCK_REDIS_DB", 0)
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: TOKENDOCK_REDIS_PASSWORD is required when TOKENDOCK_REDIS_PASSWORD_REQUIRED=true")
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.RedisUser != "" {
		c.RedisUser = "***REDACTED***"
	}
	return c
}

// defaultDataDir is $XDG_CONFIG_HOME/tokendock (or the platform equivalent).
func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tokendock"
	}
	return filepath.Join(dir, "tokendock")
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
