package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	PortEnv        = "PORT"
	DatabaseURLEnv = "DATABASE_URL"
	AppEnvEnv      = "APP_ENV"
)

type Config struct {
	Port        int
	DatabaseURL string
	Env         string
}

func (c Config) Production() bool { return c.Env == "production" }

// Load reads configuration from the environment. DATABASE_URL is optional;
// when empty the server runs on the in-memory store.
func Load() (Config, error) {
	cfg := Config{
		Port:        8080,
		DatabaseURL: os.Getenv(DatabaseURLEnv),
		Env:         "development",
	}

	if v := os.Getenv(PortEnv); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", PortEnv, v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv(AppEnvEnv); v != "" {
		cfg.Env = v
	}

	return cfg, nil
}
