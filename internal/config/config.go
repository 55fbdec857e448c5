// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the API reads at startup.
type Config struct {
	MongoURI     string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"social_marketplace"`

	JWTSecret     string            `env:"JWT_SECRET"`
	JWTKeys       map[string]string `env:"JWT_KEYS"` // kid:secret,kid2:secret2
	JWTActiveKid  string            `env:"JWT_ACTIVE_KID"`
	JWTAlgorithm  string            `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTExpiration int               `env:"JWT_EXPIRATION" envDefault:"3600"` // seconds

	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8000"`
	HealthAddr     string        `env:"HEALTH_ADDR" envDefault:":50051"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envDefault:"*"`
	RateLimitRPM   int           `env:"RATE_LIMIT_RPM" envDefault:"10"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// Load reads an optional .env file and then parses the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TokenTTL returns the configured access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiration) * time.Second
}

func (c *Config) validate() error {
	if c.JWTSecret == "" && len(c.JWTKeys) == 0 {
		return errors.New("either JWT_SECRET or JWT_KEYS must be set")
	}
	if len(c.JWTKeys) > 0 {
		if c.JWTActiveKid == "" {
			return errors.New("JWT_ACTIVE_KID is required when JWT_KEYS is set")
		}
		if _, ok := c.JWTKeys[c.JWTActiveKid]; !ok {
			return fmt.Errorf("JWT_ACTIVE_KID %q is not present in JWT_KEYS", c.JWTActiveKid)
		}
	}
	switch strings.ToUpper(c.JWTAlgorithm) {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	if c.JWTExpiration <= 0 {
		return errors.New("JWT_EXPIRATION must be positive")
	}
	if c.RateLimitRPM <= 0 {
		c.RateLimitRPM = 10
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
