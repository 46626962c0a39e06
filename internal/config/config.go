package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the catalog service.
type Config struct {
	Port          string
	StoreDir      string
	PublicPrefix  string
	DBPath        string
	BackupTTL     time.Duration
	SweepInterval time.Duration
	DeepIntegrity bool
	CacheTTL      time.Duration
	CacheMaxSize  int
}

func Load() *Config {
	return &Config{
		Port:          getEnv("CATALOG_PORT", "8080"),
		StoreDir:      getEnv("CATALOG_STORE_DIR", "./media/categories"),
		PublicPrefix:  getEnv("CATALOG_PUBLIC_PREFIX", "/media/categories"),
		DBPath:        getEnv("CATALOG_DB_PATH", "./catalog.db"),
		BackupTTL:     getDuration("CATALOG_BACKUP_TTL", 24*time.Hour),
		SweepInterval: getDuration("CATALOG_SWEEP_INTERVAL", time.Hour),
		DeepIntegrity: getBool("CATALOG_DEEP_INTEGRITY", true),
		CacheTTL:      getDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		CacheMaxSize:  getInt("CATALOG_CACHE_MAX", 256),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
