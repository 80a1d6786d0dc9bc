package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
)

const (
	// defaultTimeout bounds a single API call, covering a possible token
	// refresh and the one retried attempt.
	defaultTimeout  = 30 * time.Second
	defaultMaxConns = 100
)

// Config stores the client connection options. Construct a Client per config
// instead of sharing ambient global state; tests rely on isolated instances.
type Config struct {
	// BaseURL is the backend API root, e.g. "https://bot.example.com/api".
	BaseURL string
	// Timeout is the per-request deadline. Zero means the default (30s).
	Timeout time.Duration
	// MaxConns caps connections to the backend host.
	MaxConns int
	// Clock is used for refresh bookkeeping. Defaults to the real clock;
	// tests substitute a fake.
	Clock clockwork.Clock
}

func (c *Config) CheckAndSetDefaults() error {
	if c.BaseURL == "" {
		return trace.BadParameter("missing required value base_url")
	}
	if c.Timeout < 0 {
		return trace.BadParameter("timeout must not be negative")
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxConns == 0 {
		c.MaxConns = defaultMaxConns
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

// ConfigFromEnv reads connection options from the environment:
// TRADEDASH_API_URL and TRADEDASH_API_TIMEOUT_MS (milliseconds, default
// 30000). Values set in a TOML config take effect through ApplyEnv instead.
func ConfigFromEnv() Config {
	conf := Config{BaseURL: getEnv("TRADEDASH_API_URL", "")}
	conf.ApplyEnv()
	return conf
}

// ApplyEnv overrides config fields from environment variables when they are
// set.
func (c *Config) ApplyEnv() {
	if url := getEnv("TRADEDASH_API_URL", ""); url != "" {
		c.BaseURL = url
	}
	if ms := getEnvInt("TRADEDASH_API_TIMEOUT_MS", 0); ms > 0 {
		c.Timeout = time.Duration(ms) * time.Millisecond
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
