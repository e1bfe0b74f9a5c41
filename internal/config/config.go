// Package config loads server configuration from the environment.
//
// LOAD ORDER:
//  1. A .env file in the working directory, if there is one (godotenv).
//     Variables already set in the real environment win over the file.
//  2. envconfig fills Config from the environment, applying the defaults
//     declared in the struct tags.
//  3. Validate rejects combinations the server can't run with.
//
// Optional integrations (Redis, MinIO, GitHub) stay off while their
// address or credentials are empty.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// MinJWTSecretLength is the shortest HS256 secret Validate accepts.
const MinJWTSecretLength = 32

type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	DBPath   string `envconfig:"DB_PATH" default:"data/rentals.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiresIn time.Duration `envconfig:"JWT_EXPIRES_IN" default:"168h"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`

	// Embedded so envconfig reads their variables without a prefix.
	Redis
	MinIO
	GitHub
}

type Redis struct {
	Addr       string        `envconfig:"REDIS_ADDR"`
	Password   string        `envconfig:"REDIS_PASSWORD"`
	DB         int           `envconfig:"REDIS_DB" default:"0"`
	ListingTTL time.Duration `envconfig:"LISTING_CACHE_TTL" default:"30s"`
}

func (c Redis) Enabled() bool { return c.Addr != "" }

type MinIO struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY"`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"spot-images"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	// PublicURL is the base of the image URLs stored with each spot image.
	// Empty means http(s)://<endpoint>.
	PublicURL string `envconfig:"MINIO_PUBLIC_URL"`
	// MaxUploadSize caps multipart uploads, in bytes.
	MaxUploadSize int64 `envconfig:"MAX_UPLOAD_SIZE" default:"10485760"`
}

func (c MinIO) Enabled() bool { return c.Endpoint != "" }

type GitHub struct {
	ClientID     string `envconfig:"GITHUB_CLIENT_ID"`
	ClientSecret string `envconfig:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `envconfig:"GITHUB_CALLBACK_URL"`
}

func (c GitHub) Enabled() bool { return c.ClientID != "" && c.ClientSecret != "" }

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv is Load without the .env file.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/github/callback", cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("config: JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("config: JWT_EXPIRES_IN must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d is out of range", c.Port)
	}
	if c.MinIO.Enabled() && (c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "") {
		return errors.New("config: MINIO_ENDPOINT is set but the access key or secret key is missing")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps LOG_LEVEL (debug, info, warn, error) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
