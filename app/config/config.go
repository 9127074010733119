package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Config holds the query service settings, read from the environment.
type Config struct {
	Host            string        `envconfig:"HOST" default:""`
	Port            int           `envconfig:"PORT" default:"4002" validate:"gte=0,lte=65535"`
	StoreDriver     string        `envconfig:"STORE_DRIVER" default:"badger" validate:"oneof=badger sqlite"`
	BadgerPath      string        `envconfig:"BADGER_PATH" default:"data/badger" validate:"required_if=StoreDriver badger"`
	SQLitePath      string        `envconfig:"SQLITE_PATH" default:"data/query.db" validate:"required_if=StoreDriver sqlite"`
	BackupDir       string        `envconfig:"BACKUP_DIR" default:"data/backups"`
	LogMode         string        `envconfig:"LOG_MODE" default:"development"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s" validate:"gt=0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
}

var validate = validator.New()

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
