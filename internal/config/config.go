package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration. Values come from an optional YAML
// file, then a .env file, then the environment; later sources win.
type Config struct {
	FreshserviceDomain  string        `yaml:"freshservice_domain"`
	FreshserviceAPIKey  string        `yaml:"freshservice_api_key"`
	FreshservicePerPage int           `yaml:"freshservice_per_page"`
	FreshserviceTimeout time.Duration `yaml:"freshservice_timeout"`

	MySQLDSN   string `yaml:"mysql_dsn"`
	SQLitePath string `yaml:"sqlite_path"`

	HTTPAddr    string `yaml:"http_addr"`
	RabbitMQURL string `yaml:"rabbitmq_url"`
	Workers     int    `yaml:"workers"`

	CursorBackend string `yaml:"cursor_backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	SyncInterval   time.Duration `yaml:"sync_interval"`
	SyncAssetTypes []string      `yaml:"sync_asset_types"`
	SyncBatchSize  int           `yaml:"sync_batch_size"`
}

const (
	CursorBackendDB    = "db"
	CursorBackendRedis = "redis"
)

func defaults() Config {
	return Config{
		FreshservicePerPage: 100,
		FreshserviceTimeout: 30 * time.Second,
		SQLitePath:          "fssync.db",
		HTTPAddr:            ":8080",
		Workers:             1,
		CursorBackend:       CursorBackendDB,
		RedisAddr:           "localhost:6379",
		LogLevel:            "info",
		LogFormat:           "json",
		SyncAssetTypes:      []string{"Server"},
		SyncBatchSize:       250,
	}
}

// Load reads path (skipped when empty), then .env, then the environment.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.FreshserviceDomain = getEnv("FRESHSERVICE_DOMAIN", c.FreshserviceDomain)
	c.FreshserviceAPIKey = getEnv("FRESHSERVICE_API_KEY", c.FreshserviceAPIKey)
	c.MySQLDSN = getEnv("MYSQL_DSN", c.MySQLDSN)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)
	c.CursorBackend = getEnv("CURSOR_BACKEND", c.CursorBackend)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	if v := os.Getenv("SYNC_ASSET_TYPES"); v != "" {
		c.SyncAssetTypes = splitList(v)
	}

	var err error
	if c.RedisDB, err = getEnvInt("REDIS_DB", c.RedisDB); err != nil {
		return err
	}
	if c.SyncBatchSize, err = getEnvInt("SYNC_BATCH_SIZE", c.SyncBatchSize); err != nil {
		return err
	}
	if c.Workers, err = getEnvInt("WORKERS", c.Workers); err != nil {
		return err
	}
	if c.FreshservicePerPage, err = getEnvInt("FRESHSERVICE_PER_PAGE", c.FreshservicePerPage); err != nil {
		return err
	}
	if c.SyncInterval, err = getEnvDuration("SYNC_INTERVAL", c.SyncInterval); err != nil {
		return err
	}
	if c.FreshserviceTimeout, err = getEnvDuration("FRESHSERVICE_TIMEOUT", c.FreshserviceTimeout); err != nil {
		return err
	}
	return nil
}

// Validate checks what every sync needs.
func (c Config) Validate() error {
	var missing []string
	if c.FreshserviceDomain == "" {
		missing = append(missing, "FRESHSERVICE_DOMAIN")
	}
	if c.FreshserviceAPIKey == "" {
		missing = append(missing, "FRESHSERVICE_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	switch c.CursorBackend {
	case CursorBackendDB, CursorBackendRedis:
	default:
		return fmt.Errorf("invalid CURSOR_BACKEND %q", c.CursorBackend)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
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
