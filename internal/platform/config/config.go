package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Credential transports accepted by AUTH_TRANSPORT.
const (
	TransportCookie = "cookie"
	TransportBearer = "bearer"
	TransportBoth   = "both"
)

const EnvProduction = "production"

type Config struct {
	Env       string
	Port      string
	JWTSecret []byte
	TokenTTL  time.Duration
	Issuer    string
	Audience  string
	Transport string

	BcryptCost int

	DatabaseURL  string
	RedisURL     string
	PostCacheTTL time.Duration

	AdminEmail    string
	AdminPassword string
}

func (c Config) Production() bool { return c.Env == EnvProduction }

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var err error
	cfg := Config{
		Env:           getEnv("APP_ENV", "development"),
		Port:          ":" + strings.TrimPrefix(getEnv("APP_PORT", "8080"), ":"),
		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		Issuer:        getEnv("JWT_ISSUER", "blog-api"),
		Audience:      getEnv("JWT_AUDIENCE", "blog-clients"),
		Transport:     strings.ToLower(getEnv("AUTH_TRANSPORT", TransportBoth)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PostCacheTTL, err = getDuration("POST_CACHE_TTL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return errors.New("JWT_SECRET is required")
	}
	if c.Production() && len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 bytes in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch c.Transport {
	case TransportCookie, TransportBearer, TransportBoth:
	default:
		return fmt.Errorf("AUTH_TRANSPORT must be cookie, bearer or both, got %q", c.Transport)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// LogAttrs lists the settings worth logging at startup. The secret is
// reduced to its length.
func (c Config) LogAttrs() []any {
	return []any{
		"env", c.Env,
		"port", c.Port,
		"jwt_secret_len", len(c.JWTSecret),
		"token_ttl", c.TokenTTL.String(),
		"transport", c.Transport,
		"bcrypt_cost", c.BcryptCost,
		"postgres", c.DatabaseURL != "",
		"redis", c.RedisURL != "",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", key, err)
	}
	return n, nil
}
