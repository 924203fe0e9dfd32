package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	ServerPort string
	DBDriver   string
	MySQLDSN   string
	SQLiteDSN  string
	ResetDB    bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	BcryptCost         int

	CORSOrigin    string
	CookieSecure  bool
	AuthRateLimit int

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	LogLevel    string
	LogFormat   string
	SwaggerHost string
}

// Load reads an optional .env file and builds Config from the environment with sensible defaults.
func Load() *Config {
	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/vidtube?charset=utf8mb4&parseTime=True&loc=Local"),
		SQLiteDSN:  getEnv("SQLITE_DSN", "file:vidtube.db?_pragma=busy_timeout(5000)"),
		ResetDB:    getEnvBool("RESET_DB", false),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		AccessTokenExpiry:  getEnvDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		RefreshTokenExpiry: getEnvDuration("REFRESH_TOKEN_EXPIRY", 10*24*time.Hour),
		BcryptCost:         getEnvInt("BCRYPT_COST", 10),

		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:5173"),
		CookieSecure:  getEnvBool("COOKIE_SECURE", true),
		AuthRateLimit: getEnvInt("AUTH_RATE_LIMIT", 20),

		S3Bucket:        getEnv("S3_BUCKET", "vidtube-media"),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

// DatabaseDSN returns the DSN matching DBDriver.
func (c *Config) DatabaseDSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLiteDSN
	}
	return c.MySQLDSN
}

// Validate reports configuration that would make the token scheme unsafe.
func (c *Config) Validate() error {
	var errs []error
	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenExpiry <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRY must be positive, got %s", c.AccessTokenExpiry))
	}
	if c.RefreshTokenExpiry <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_EXPIRY must be positive, got %s", c.RefreshTokenExpiry))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

// ParseDuration accepts time.ParseDuration syntax plus a whole-day suffix, e.g. "10d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
