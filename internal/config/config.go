// Package config reads the service settings from the environment. A .env file next to
// the binary is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort        string
	EndpointPrefix string
	GinMode        string

	ConsulAddr  string
	ServiceName string

	BackendService      string
	BackendURL          string
	BackendPathPrefix   string
	BackendTimeout      time.Duration
	BackendServiceToken string

	PublicKeyPath string
	KafkaBrokers  []string

	StripeKey           string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string

	CacheSize    int
	CacheTTL     time.Duration
	SuggestLimit int
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", slog.String("error", err.Error()))
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		AppPort:             getenv("APP_PORT", "8080"),
		EndpointPrefix:      getenv("SERVICE_ENDPOINT_PREFIX", "/api/v1"),
		GinMode:             os.Getenv("GIN_MODE"),
		ConsulAddr:          os.Getenv("CONSUL_HTTP_ADDR"),
		ServiceName:         getenv("SERVICE_NAME", "storefront"),
		BackendService:      os.Getenv("BACKEND_SERVICE"),
		BackendURL:          os.Getenv("BACKEND_URL"),
		BackendPathPrefix:   getenv("BACKEND_PATH_PREFIX", "/api"),
		BackendServiceToken: os.Getenv("BACKEND_SERVICE_TOKEN"),
		PublicKeyPath:       getenv("PUBLIC_KEY_PATH", "pubkey.pem"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		StripeKey:           os.Getenv("STRIPE_TEST_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeSuccessURL:    getenv("STRIPE_SUCCESS_URL", "http://localhost:3000/orders?payment=success"),
		StripeCancelURL:     getenv("STRIPE_CANCEL_URL", "http://localhost:3000/cart?payment=cancelled"),
	}

	var err error
	if cfg.BackendTimeout, err = durationEnv("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CacheSize, err = intEnv("CACHE_SIZE", 1024); err != nil {
		return Config{}, err
	}
	if cfg.SuggestLimit, err = intEnv("SUGGEST_LIMIT", 5); err != nil {
		return Config{}, err
	}

	if cfg.BackendURL == "" && cfg.BackendService == "" {
		return Config{}, errors.New("either BACKEND_URL or BACKEND_SERVICE must be set")
	}
	if cfg.BackendURL == "" && cfg.ConsulAddr == "" {
		return Config{}, errors.New("CONSUL_HTTP_ADDR is required to discover BACKEND_SERVICE")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
