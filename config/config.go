// config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Client   ClientConfig
	Autosave AutosaveConfig
}

type ServerConfig struct {
	Port        string
	CorsOrigins string
	// TokenHash is a bcrypt hash of the API token. Empty disables auth.
	TokenHash       string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	// URL is either a postgres:// DSN or a SQLite file path.
	URL         string
	AutoMigrate bool
}

type LogConfig struct {
	Level string
	File  string
	JSON  bool
}

type ClientConfig struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

type AutosaveConfig struct {
	Debounce     time.Duration
	SavedDisplay time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("LUMI_PORT", "3000"),
			CorsOrigins:     getEnv("LUMI_CORS_ORIGINS", "*"),
			TokenHash:       getEnv("LUMI_TOKEN_HASH", ""),
			ShutdownTimeout: getEnvAsDuration("LUMI_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:         getEnv("LUMI_DATABASE_URL", getEnv("DATABASE_PATH", "./data/database.sqlite")),
			AutoMigrate: getEnvAsBool("LUMI_AUTO_MIGRATE", true),
		},
		Log: LogConfig{
			Level: getEnv("LUMI_LOG_LEVEL", "info"),
			File:  getEnv("LUMI_LOG_FILE", ""),
			JSON:  getEnvAsBool("LUMI_LOG_JSON", false),
		},
		Client: ClientConfig{
			APIURL:  strings.TrimRight(getEnv("LUMI_API_URL", "http://localhost:3000"), "/"),
			Token:   getEnv("LUMI_TOKEN", ""),
			Timeout: getEnvAsDuration("LUMI_CLIENT_TIMEOUT", 10*time.Second),
		},
		Autosave: AutosaveConfig{
			Debounce:     getEnvAsDuration("LUMI_AUTOSAVE_DEBOUNCE", 3*time.Second),
			SavedDisplay: getEnvAsDuration("LUMI_AUTOSAVE_SAVED_DISPLAY", 2*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
