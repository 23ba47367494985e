package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"va-core/internal/database"
)

// Config holds all va-core settings, loaded from the environment.
type Config struct {
	Database database.Config

	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	Log struct {
		Level  string
		Format string
	}

	Dedup struct {
		// Questions is the ordered list of instrument field names that form the
		// duplicate-detection identity key. Empty disables duplicate detection.
		Questions []string
		// MaxRetries bounds save retries on group-lock conflicts.
		MaxRetries int
	}

	Scope struct {
		// CacheTTL bounds how long per-location descendant sets are cached.
		CacheTTL time.Duration
	}

	// UnknownLocationName is the sentinel facility for records whose true
	// location cannot be resolved.
	UnknownLocationName string
}

func Load() *Config {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "va_core")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// Comma-separated, order matters: the order is part of the hash contract.
	cfg.Dedup.Questions = splitList(getEnv("DUPLICATE_QUESTIONS", ""))
	cfg.Dedup.MaxRetries = parseInt(getEnv("DEDUP_MAX_RETRIES", "3"), 3)

	cfg.Scope.CacheTTL = time.Duration(parseInt(getEnv("SCOPE_CACHE_TTL_SECONDS", "300"), 300)) * time.Second

	cfg.UnknownLocationName = getEnv("UNKNOWN_LOCATION_NAME", "Unknown")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
