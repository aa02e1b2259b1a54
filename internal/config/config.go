package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/RLGADM/Kenshou-beta-3/internal/presence"
)

type Config struct {
	Port           string
	AppEnv         string
	GracePeriod    time.Duration
	AllowedOrigins []string
}

// Load reads the environment, after merging in a .env file when one exists.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:        getenv("PORT", "8080"),
		AppEnv:      getenv("APP_ENV", "development"),
		GracePeriod: presence.DefaultGracePeriod,
		AllowedOrigins: []string{
			"localhost:*",
			"127.0.0.1:*",
		},
	}

	if raw := os.Getenv("GRACE_PERIOD_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.GracePeriod = time.Duration(secs) * time.Second
		}
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = strings.Split(raw, ",")
	}
	return cfg
}

func (c Config) Production() bool { return c.AppEnv == "production" }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
