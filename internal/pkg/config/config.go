package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Session storage backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8787" validate:"required,numeric"`
	Env      string `env:"ENV,       default=development" validate:"oneof=development staging production test"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API     APIConfig
	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// APIConfig points at the remote PetLand API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://127.0.0.1:8000" validate:"required,url"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=10s" validate:"gt=0"`
}

// SessionConfig selects where the token and user entries are persisted.
type SessionConfig struct {
	Backend   string        `env:"SESSION_BACKEND,   default=file" validate:"oneof=file redis mongo memory"`
	File      string        `env:"SESSION_FILE,      default=.petcare/session.json" validate:"required_if=Backend file"`
	Secret    string        `env:"SESSION_SECRET"`
	Namespace string        `env:"SESSION_NAMESPACE, default=petcare" validate:"required,excludesall=:"`
	TTL       time.Duration `env:"SESSION_TTL,       default=0s" validate:"gte=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=petcare"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0" validate:"gte=0,lte=15"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the backend-specific requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	switch c.Session.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: invalid: REDIS_ADDR is required for the redis backend")
		}
	case BackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("config: invalid: MONGO_URI and MONGO_DB are required for the mongo backend")
		}
	}
	return nil
}

// IsProduction reports whether the console runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}
