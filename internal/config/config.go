package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DataDir             string        // directory holding one <name>.json / <name>.zip.json per root category
	RatingsFile         string        // optional YAML rating template registry
	AutoRefreshInterval time.Duration // periodic silent refresh of AutoRefresh links (0 = startup only)
	LinkCheckInterval   time.Duration // periodic URL accessibility probe (0 = disabled)
	LinkCheckTimeout    time.Duration // per-URL probe timeout
	GlobalPassword      string        // optional, cached in memory at startup and never written

	AllowedCIDRS      []string // optional, restrict API access to specific IPs/CIDRs
	AllowedHosts      []string // optional, Host headers accepted on mutating endpoints (supports *.example.com)
	TrustProxy        bool     // true => trust X-Forwarded-For headers
	UnlockRatePerMin  int      // password attempts allowed per client IP per minute
	RequestTimeout    time.Duration
	CatalogOpTimeout  time.Duration // upper bound for create/refresh requests served over HTTP
	AuditRecentLimit  int           // number of audit events kept per category in redis
	DescribeMaxBytes  int64         // files larger than this are not inspected for a description
	DescribeFileTypes bool          // false => skip the file description generator entirely

	// Redis (optional audit sink)
	RedisAddr           string        // ex: "localhost:6379", empty disables redis
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int           // connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // cap for the wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
}

func Load() *Config {
	cfg := &Config{
		ListenPort:      getenv("SHELF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SHELF_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("SHELF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SHELF_PRETTY_LOG", true),

		DataDir:             getenv("SHELF_DATA_DIR", defaultDataDir()),
		RatingsFile:         getenv("SHELF_RATINGS_FILE", ""),
		AutoRefreshInterval: mustDuration("SHELF_AUTO_REFRESH_INTERVAL", 6*time.Hour),
		LinkCheckInterval:   mustDuration("SHELF_LINK_CHECK_INTERVAL", 24*time.Hour),
		LinkCheckTimeout:    mustDuration("SHELF_LINK_CHECK_TIMEOUT", 5*time.Second),
		GlobalPassword:      getenv("SHELF_GLOBAL_PASSWORD", ""),

		AllowedCIDRS:      parseList(getenv("SHELF_ALLOWED_CIDRS", "")),
		AllowedHosts:      parseList(getenv("SHELF_ALLOWED_HOSTS", "")),
		TrustProxy:        mustBool("SHELF_TRUST_PROXY", false),
		UnlockRatePerMin:  getenvInt("SHELF_UNLOCK_RATE_PER_MIN", 10),
		RequestTimeout:    mustDuration("SHELF_REQUEST_TIMEOUT", 10*time.Second),
		CatalogOpTimeout:  mustDuration("SHELF_CATALOG_TIMEOUT", 10*time.Minute),
		AuditRecentLimit:  getenvInt("SHELF_AUDIT_RECENT_LIMIT", 500),
		DescribeMaxBytes:  int64(getenvInt("SHELF_DESCRIBE_MAX_BYTES", 64<<20)),
		DescribeFileTypes: mustBool("SHELF_DESCRIBE_FILES", true),

		RedisAddr:           getenv("SHELF_REDIS_ADDR", ""),
		RedisUser:           getenv("SHELF_REDIS_USERNAME", ""),
		RedisPassword:       getenv("SHELF_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SHELF_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 4),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 15*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 5*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 2*time.Second),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.GlobalPassword != "" {
		cp.GlobalPassword = "***REDACTED***"
	}
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// RedisEnabled reports whether the redis audit sink should be wired.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "shelf")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "shelf-data")
	}
	return filepath.Join(home, ".local", "share", "shelf")
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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

func parseList(s string) []string {
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
