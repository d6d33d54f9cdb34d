package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/openrelief/surveyflow/pkg/persistence/middleware"
)

// Environment variables read by Load.
const (
	EnvPort          = "SURVEYFLOW_PORT"
	EnvLogLevel      = "SURVEYFLOW_LOG_LEVEL"
	EnvLogJSON       = "SURVEYFLOW_LOG_JSON"
	EnvRedisAddr     = "SURVEYFLOW_REDIS_ADDR"
	EnvRedisPassword = "SURVEYFLOW_REDIS_PASSWORD"
	EnvRedisDB       = "SURVEYFLOW_REDIS_DB"
	EnvRedisTTL      = "SURVEYFLOW_REDIS_TTL"
	EnvSQLitePath    = "SURVEYFLOW_SQLITE_PATH"
	EnvEncryptionKey = "SURVEYFLOW_ENCRYPTION_KEY"
	EnvFallbackKeys  = "SURVEYFLOW_ENCRYPTION_FALLBACK_KEYS"
	EnvPIIQuestions  = "SURVEYFLOW_PII_QUESTIONS"
)

// Config holds the host settings for the serve and mcp commands.
type Config struct {
	Port     string
	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	SQLitePath string

	// EncryptionKey seals stored submissions when set (32 bytes).
	EncryptionKey []byte
	FallbackKeys  [][]byte

	// PIIQuestions are question id patterns whose answers are masked before storage.
	PIIQuestions []string
}

// Load reads the given dotenv files (default ".env", skipped when missing) into the
// process environment without overriding variables already set, then builds the
// Config from the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}
	return FromEnv()
}

// FromEnv builds the Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          getEnv(EnvPort, "8080"),
		LogLevel:      getEnv(EnvLogLevel, "info"),
		LogJSON:       getBoolEnv(EnvLogJSON, false),
		RedisAddr:     os.Getenv(EnvRedisAddr),
		RedisPassword: os.Getenv(EnvRedisPassword),
		SQLitePath:    os.Getenv(EnvSQLitePath),
		PIIQuestions:  splitList(os.Getenv(EnvPIIQuestions)),
	}

	if v := os.Getenv(EnvRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv(EnvRedisTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRedisTTL, err)
		}
		cfg.RedisTTL = ttl
	}

	if v := os.Getenv(EnvEncryptionKey); v != "" {
		key, err := middleware.ParseKey(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvEncryptionKey, err)
		}
		cfg.EncryptionKey = key
	}

	for _, v := range splitList(os.Getenv(EnvFallbackKeys)) {
		key, err := middleware.ParseKey(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvFallbackKeys, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}

	for _, p := range cfg.PIIQuestions {
		if _, err := regexp.Compile(p); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvPIIQuestions, err)
		}
	}

	if cfg.RedisAddr != "" && cfg.SQLitePath != "" {
		return nil, fmt.Errorf("%s and %s are mutually exclusive", EnvRedisAddr, EnvSQLitePath)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
