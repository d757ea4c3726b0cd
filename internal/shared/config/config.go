package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the engine settings read from the environment.
type Config struct {
	HTTPAddr string
	NATSURL  string // empty disables the NATS event sink

	// Bidding rules.
	MinBidFloor         float64 // lowest amount any bid may carry
	MinMandateIncrement float64 // lowest per-step increment an auto-bid mandate may use

	// Per-auction critical section tuning.
	LockWait    time.Duration // how long one acquisition attempt may block
	LockRetries int           // extra attempts after the first times out
	LockBackoff time.Duration // pause between attempts
}

// Load reads the configuration, pulling a .env file in first if one exists.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		HTTPAddr:            GetEnv("HTTP_ADDR", ":9000"),
		NATSURL:             GetEnv("NATS_URL", ""),
		MinBidFloor:         GetEnvFloat("MIN_BID_FLOOR", 5),
		MinMandateIncrement: GetEnvFloat("MIN_MANDATE_INCREMENT", 1),
		LockWait:            GetEnvDuration("LOCK_WAIT", 3*time.Second),
		LockRetries:         GetEnvInt("LOCK_RETRIES", 2),
		LockBackoff:         GetEnvDuration("LOCK_BACKOFF", 150*time.Millisecond),
	}
}

// GetEnv returns the value of key, or def when unset.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvInt returns the integer value of key, or def when unset or malformed.
func GetEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GetEnvFloat returns the float value of key, or def when unset or malformed.
func GetEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// GetEnvDuration returns the duration value of key, or def when unset or malformed.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
