package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	HoldBackend   string // redis | memory
	HoldTTL       time.Duration
	SweepInterval time.Duration
	CacheTTL      time.Duration
	RateLimitRPS  int
	RetryAttempts int
	RetryBaseWait time.Duration
	CallTimeout   time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/stayalloc?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		HoldBackend:   env("HOLD_BACKEND", "redis"),
		HoldTTL:       time.Duration(atoi("HOLD_TTL_SECONDS", 300)) * time.Second,
		SweepInterval: time.Duration(atoi("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		RateLimitRPS:  atoi("RATE_LIMIT_RPS", 50),
		RetryAttempts: atoi("RETRY_ATTEMPTS", 3),
		RetryBaseWait: time.Duration(atoi("RETRY_BASE_WAIT_MS", 200)) * time.Millisecond,
		CallTimeout:   time.Duration(atoi("CALL_TIMEOUT_SECONDS", 5)) * time.Second,
	}
	if c.HoldBackend != "redis" && c.HoldBackend != "memory" {
		log.Warn().Str("backend", c.HoldBackend).Msg("unknown HOLD_BACKEND, falling back to memory")
		c.HoldBackend = "memory"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
