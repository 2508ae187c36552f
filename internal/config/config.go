package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	Environment string
	HTTPAddr    string
	LogLevel    string

	// BaseDomain is the platform domain; tenant subdomains hang off it and
	// requests to the bare domain run in the platform-level context.
	BaseDomain string
	// AllowedHosts is the static allow-list consulted after the domain
	// directory and the base wildcard. The hot-reloaded hosts file extends
	// this set at runtime.
	AllowedHosts []string
	// DomainCacheTTL bounds staleness of the hostname directory, seconds.
	DomainCacheTTL int

	AuthJWTSecret string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string

	// SignupRatePerMin and SignupBurst bound tenant registrations per client.
	SignupRatePerMin int
	SignupBurst      int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_NAME", "bookme"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		BaseDomain:     getenv("TENANT_BASE_DOMAIN", "localhost"),
		AllowedHosts:   splitList(getenv("ALLOWED_HOSTS", "")),
		DomainCacheTTL: getenvInt("DOMAIN_CACHE_TTL", 30),

		AuthJWTSecret: getenv("AUTH_JWT_SECRET", ""),

		DBType:            getenv("DB_TYPE", "postgres"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "bookme"),
		DBUser:            getenv("DB_USER", "bookme"),
		DBPassword:        getenv("DB_PASSWORD", ""),
		DBSSLMode:         getenv("DB_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DB_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DB_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DB_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DB_CONN_MAX_IDLE_TIME", 300),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		SignupRatePerMin: getenvInt("SIGNUP_RATE_PER_MIN", 5),
		SignupBurst:      getenvInt("SIGNUP_BURST", 10),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
