package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration loaded from environment variables, with
// an optional .env file for development.
type Config struct {
	Port              int
	SSLKeyPath        string
	SSLCertPath       string
	PublicHost        string // advertised address for /discover-lan; request host when empty
	DiscoveryEnabled  bool
	DiscoveryInterval time.Duration
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:              getEnvInt("PORT", 8443),
		SSLKeyPath:        getEnv("SSL_KEY_PATH", ""),
		SSLCertPath:       getEnv("SSL_CERT_PATH", ""),
		PublicHost:        getEnv("PUBLIC_HOST", ""),
		DiscoveryEnabled:  getEnv("DISCOVERY", "true") == "true",
		DiscoveryInterval: parseDuration(getEnv("DISCOVERY_INTERVAL", "5s"), 5*time.Second),
	}
}

// TLSEnabled reports whether both certificate files exist; otherwise the
// server falls back to plain HTTP.
func (c Config) TLSEnabled() bool {
	if c.SSLKeyPath == "" || c.SSLCertPath == "" {
		return false
	}
	if _, err := os.Stat(c.SSLKeyPath); err != nil {
		return false
	}
	if _, err := os.Stat(c.SSLCertPath); err != nil {
		return false
	}
	return true
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
