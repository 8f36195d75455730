package api

import "time"

// Config holds server configuration.
type Config struct {
	Listen            string
	Version           string
	RateLimitRequests int        // Requests per minute (0 = disabled)
	RateLimitBurst    int        // Burst size
	Auth              AuthConfig // Authentication configuration
	AllowedOrigins    []string   // CORS and websocket origins (empty = allow all)
	MaxBodyBytes      int64      // Request body limit (0 = DefaultMaxBodyBytes)
	ShutdownTimeout   time.Duration
}

// DefaultMaxBodyBytes bounds check request bodies. Whole TSV books are
// posted to /api/check/file, so the limit is well above a single file.
const DefaultMaxBodyBytes = 32 << 20

const defaultShutdownTimeout = 10 * time.Second

func (c Config) withDefaults() Config {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.RateLimitRequests > 0 && c.RateLimitBurst == 0 {
		c.RateLimitBurst = 10
	}
	return c
}
