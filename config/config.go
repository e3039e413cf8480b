package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	ServiceNewsletters = "newsletters"
	ServiceApiKeys     = "api-keys"
	ServiceStaticSites = "static-sites"
	ServiceWorker      = "worker"
)

const (
	secretAuthKeyPrefix     = "SECRET_AUTH_KEY_"
	secretAuthKeyHashPrefix = "SECRET_AUTH_KEY_HASH_"
)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

type Config struct {
	HTTPAddr string
	LogLevel string

	DatabaseURL string
	RedisURL    string
	AMQPURL     string

	ResendAPIKey   string
	EmailFrom      string
	ConfirmBaseURL string
	TokenWindow    time.Duration

	JWTSecret     string
	JWTIssuer     string
	AdminTokenTTL time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int

	AllowedOrigins []string
	AuthKeys       []string
	HashedAuthKeys []string

	S3                 S3Config
	PurgeToken         string
	StaticCacheMaxBody int
}

// Load reads .env when present and builds the configuration from the
// process environment.
func Load(environ []string) Config {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}
	return FromEnv(environ)
}

// FromEnv builds the configuration from KEY=VALUE pairs.
func FromEnv(environ []string) Config {
	env := parseEnviron(environ)
	cfg := Config{
		HTTPAddr: env.str("HTTP_ADDR", ":8080"),
		LogLevel: env.str("LOG_LEVEL", "info"),

		DatabaseURL: env.str("DATABASE_URL", ""),
		RedisURL:    env.str("REDIS_URL", ""),
		AMQPURL:     env.str("RABBITMQ_URL", env.str("AMQP_URL", "")),

		ResendAPIKey:   env.str("RESEND_API_KEY", ""),
		EmailFrom:      env.str("EMAIL_FROM", ""),
		ConfirmBaseURL: env.str("CONFIRM_BASE_URL", ""),
		TokenWindow:    env.duration("TOKEN_WINDOW", 2*time.Hour),

		JWTSecret:     env.str("JWT_SECRET", ""),
		JWTIssuer:     env.str("JWT_ISSUER", "edge"),
		AdminTokenTTL: env.duration("ADMIN_TOKEN_TTL", 24*time.Hour),

		RateLimitPerSecond: env.number("NEWSLETTER_RATE_PER_SEC", 5),
		RateLimitBurst:     env.integer("NEWSLETTER_RATE_BURST", 10),

		S3: S3Config{
			Bucket:          env.str("S3_BUCKET", ""),
			Region:          env.str("S3_REGION", "auto"),
			Endpoint:        env.str("S3_ENDPOINT", ""),
			AccessKeyID:     env.str("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.str("S3_SECRET_ACCESS_KEY", ""),
			PathStyle:       env.boolean("S3_PATH_STYLE", false),
		},
		PurgeToken:         env.str("PURGE_TOKEN", ""),
		StaticCacheMaxBody: env.integer("STATIC_CACHE_MAX_BODY_BYTES", 1<<20),
	}

	if origins, ok := env["ALLOWED_ORIGINS"]; ok {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	cfg.AuthKeys, cfg.HashedAuthKeys = collectAuthKeys(env)
	return cfg
}

// Validate reports the first required setting missing for the named service.
func (c Config) Validate(service string) error {
	var missing []string
	switch service {
	case ServiceNewsletters:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case ServiceApiKeys:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	case ServiceStaticSites:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
		if c.S3.Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
	case ServiceWorker:
		if c.AMQPURL == "" {
			missing = append(missing, "RABBITMQ_URL")
		}
		if c.ResendAPIKey == "" {
			missing = append(missing, "RESEND_API_KEY")
		}
		if c.EmailFrom == "" {
			missing = append(missing, "EMAIL_FROM")
		}
	default:
		return fmt.Errorf("unknown service %q", service)
	}
	if len(missing) > 0 {
		return errors.New("missing required env: " + strings.Join(missing, ", "))
	}
	return nil
}

// collectAuthKeys gathers ALLOWED_AUTH_KEYS plus every SECRET_AUTH_KEY_*
// value. With ALLOWED_AUTH_KEYS unset no key is accepted at all.
func collectAuthKeys(env environment) ([]string, []string) {
	allowed, ok := env["ALLOWED_AUTH_KEYS"]
	if !ok {
		return nil, nil
	}
	plain := strings.Split(allowed, ",")
	var hashed []string
	for name, value := range env {
		switch {
		case strings.HasPrefix(name, secretAuthKeyHashPrefix):
			hashed = append(hashed, value)
		case strings.HasPrefix(name, secretAuthKeyPrefix):
			plain = append(plain, value)
		}
	}
	return plain, hashed
}

type environment map[string]string

func parseEnviron(environ []string) environment {
	env := environment{}
	for _, pair := range environ {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

func (e environment) str(key, def string) string {
	if v := strings.TrimSpace(e[key]); v != "" {
		return v
	}
	return def
}

func (e environment) integer(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(e[key])); err == nil {
		return n
	}
	return def
}

func (e environment) number(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(e[key]), 64); err == nil {
		return f
	}
	return def
}

func (e environment) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(e[key])); err == nil {
		return d
	}
	return def
}

func (e environment) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(e[key])); err == nil {
		return b
	}
	return def
}
