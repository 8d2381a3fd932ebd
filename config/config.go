package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr    string        `envconfig:"HTTP_ADDR" default:":8080"`
	DbDsn       string        `envconfig:"DB_DSN"`
	TgToken     string        `envconfig:"TG_TOKEN"`
	PublicURL   string        `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`
	UploadDir   string        `envconfig:"UPLOAD_DIR" default:"uploads"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	MaxUploadMB int64         `envconfig:"MAX_UPLOAD_MB" default:"50"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string        `envconfig:"LOG_FORMAT" default:"text"`
}

// MaxUploadBytes is the upload limit, also applied to unpacked archives.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

var (
	config *Config
	once   sync.Once
)

// Load reads .env from the working directory if present, then the process
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return &cfg, nil
}

// GetConfig returns the process-wide configuration, loading it once.
func GetConfig() *Config {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Fatal(err)
		}
		config = cfg
	})
	return config
}
