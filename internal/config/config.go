// Package config reads the service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultAddress        = ":9090"
	defaultTimeout        = 30 * time.Second
	defaultIndexHost      = "https://constellation.microcosm.blue"
	defaultIndexTimeout   = 5 * time.Second
	defaultRecordTimeout  = 10 * time.Second
	defaultUserAgent      = "npmx"
	defaultCacheDB        = 0
	defaultCachePrefix    = "generic"
	defaultLocalCacheSize = 100000
	defaultSweepInterval  = time.Minute
)

// Cache backends accepted by CACHE_BACKEND
const (
	CacheBackendAuto   = ""
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendMySQL  = "mysql"
)

type Config struct {
	Production     bool
	LogLevel       string
	ServerAddress  string
	ContextTimeout time.Duration

	CacheBackend   string
	CacheHost      string
	CachePort      string
	CachePass      string
	CacheDB        int
	CachePrefix    string
	LocalCacheSize int

	DatabaseDSN        string
	CacheSweepInterval time.Duration

	IndexHost     string
	IndexTimeout  time.Duration
	RecordTimeout time.Duration
	UserAgent     string

	JWTSecret []byte
}

// RedisAddr returns host:port, or "" when no redis host is configured
func (c Config) RedisAddr() string {
	if c.CacheHost == "" {
		return ""
	}
	port := c.CachePort
	if port == "" {
		port = "6379"
	}
	return c.CacheHost + ":" + port
}

// MySQLDSN returns DATABASE_DSN with time parsing forced on, in UTC.
// cache_entries stores datetime columns that must scan into time.Time.
func (c Config) MySQLDSN() (string, error) {
	dsn, err := mysql.ParseDSN(c.DatabaseDSN)
	if err != nil {
		return "", err
	}
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	return dsn.FormatDSN(), nil
}

// Load reads .env if present and then the process environment
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded, using process environment")
	}

	env := strings.ToLower(os.Getenv("APP_ENV"))
	return Config{
		Production:     env == "production" || env == "prod",
		LogLevel:       getString("LOG_LEVEL", "info"),
		ServerAddress:  getString("SERVER_ADDRESS", defaultAddress),
		ContextTimeout: getSeconds("CONTEXT_TIMEOUT", defaultTimeout),

		CacheBackend:   strings.ToLower(os.Getenv("CACHE_BACKEND")),
		CacheHost:      os.Getenv("CACHE_HOST"),
		CachePort:      os.Getenv("CACHE_PORT"),
		CachePass:      os.Getenv("CACHE_PASS"),
		CacheDB:        getInt("CACHE_DB", defaultCacheDB),
		CachePrefix:    getString("CACHE_PREFIX", defaultCachePrefix),
		LocalCacheSize: getInt("LOCAL_CACHE_SIZE", defaultLocalCacheSize),

		DatabaseDSN:        os.Getenv("DATABASE_DSN"),
		CacheSweepInterval: getSeconds("CACHE_SWEEP_INTERVAL", defaultSweepInterval),

		IndexHost:     strings.TrimRight(getString("INDEX_HOST", defaultIndexHost), "/"),
		IndexTimeout:  getSeconds("INDEX_TIMEOUT", defaultIndexTimeout),
		RecordTimeout: getSeconds("RECORD_TIMEOUT", defaultRecordTimeout),
		UserAgent:     getString("USER_AGENT", defaultUserAgent),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("failed to parse %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

// getSeconds reads a whole number of seconds
func getSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logrus.Warnf("failed to parse %s=%q, using default %s", key, v, def)
		return def
	}
	return time.Duration(n) * time.Second
}
