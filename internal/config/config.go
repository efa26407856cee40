package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// APIURL is the authoritative backend base URL. When empty the endpoint
	// resolver infers one from the public IP or the public hostname.
	APIURL                string `env:"API_URL"`
	APIPort               string `env:"API_PORT" envDefault:"3000"`
	IPEchoURL             string `env:"IP_ECHO_URL" envDefault:"https://api.ipify.org?format=json"`
	PublicProtocol        string `env:"PUBLIC_PROTOCOL" envDefault:"http"`
	PublicHostname        string `env:"PUBLIC_HOSTNAME" envDefault:"localhost"`
	UseAPI                bool   `env:"USE_API" envDefault:"false"`
	ChatUserID            string `env:"CHAT_USER_ID" envDefault:"guest"`
	HTTPClientTimeoutSecs int    `env:"HTTP_CLIENT_TIMEOUT_SECONDS" envDefault:"10"`

	DBConnString    string `env:"DB_DSN"`
	SessionSecret   string `env:"SESSION_SECRET" envDefault:"change-me"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"24"`
	SecureCookies   bool   `env:"SECURE_COOKIES" envDefault:"false"`
	CORSOrigins     string `env:"CORS_ORIGINS" envDefault:"*"`

	ShutdownTimeoutSeconds int `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"10"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
}

// FromEnv loads an optional .env file (ENV_FILE, default ".env") and parses
// the environment into Config.
func FromEnv() (Config, error) {
	path := envOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ShutdownTimeout returns the graceful shutdown window.
func (c Config) ShutdownTimeout() time.Duration {
	return seconds(c.ShutdownTimeoutSeconds, 10)
}

// HTTPClientTimeout bounds every outbound call to the backend.
func (c Config) HTTPClientTimeout() time.Duration {
	return seconds(c.HTTPClientTimeoutSecs, 10)
}

// SessionTTL is used when the backend token carries no readable expiry.
func (c Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
