package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultFromAddress is the verified sender used for welcome emails.
const DefaultFromAddress = "team@hiredeasy.com"

// Config contains runtime configuration required by the service.
type Config struct {
	HTTPAddr string

	SendGridAPIKey     string
	SendGridBaseURL    string // empty means the public SendGrid API
	SendGridRatePerSec float64
	SendTimeout        time.Duration

	FromAddress string
	FromName    string

	LogLevel  string
	LogFormat string

	MetricsAPIKeys map[string]string // apiKey -> client name
}

// Load reads values from environment variables.
// METRICS_API_KEYS format: "name1:key1,name2:key2"
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		FromAddress: envOr("EMAIL_FROM", DefaultFromAddress),
		FromName:    strings.TrimSpace(os.Getenv("EMAIL_FROM_NAME")),
		LogLevel:    strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(envOr("LOG_FORMAT", "json")),
	}

	// The credential is only ever injected; refuse to start without it.
	cfg.SendGridAPIKey = strings.TrimSpace(os.Getenv("SENDGRID_API_KEY"))
	if cfg.SendGridAPIKey == "" {
		return Config{}, errors.New("SENDGRID_API_KEY required")
	}
	cfg.SendGridBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")), "/")

	timeout, err := time.ParseDuration(envOr("EMAIL_SEND_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return Config{}, errors.New("EMAIL_SEND_TIMEOUT must be a positive duration")
	}
	cfg.SendTimeout = timeout

	rate, err := strconv.ParseFloat(envOr("SENDGRID_RATE_PER_SEC", "0"), 64)
	if err != nil || rate < 0 {
		return Config{}, errors.New("SENDGRID_RATE_PER_SEC must be a non-negative number")
	}
	cfg.SendGridRatePerSec = rate

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}

	keys, err := parseAPIKeys(os.Getenv("METRICS_API_KEYS"))
	if err != nil {
		return Config{}, err
	}
	cfg.MetricsAPIKeys = keys

	return cfg, nil
}

func parseAPIKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return keys, nil
	}

	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, errors.New(`METRICS_API_KEYS must be "name:key,name:key"`)
		}
		name := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if name == "" || key == "" {
			return nil, errors.New(`METRICS_API_KEYS must be "name:key,name:key"`)
		}
		keys[key] = name
	}
	return keys, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
