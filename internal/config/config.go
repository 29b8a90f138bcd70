package config

import (
	"os"
)

type Config struct {
	ServerURL    string
	GregorWSURL  string
	SessionToken string
	Username     string
	LogLevel     string
}

func Load() *Config {
	return &Config{
		ServerURL:    getEnv("TEAMSYNC_SERVER_URL", "https://localhost:8443/api/v1"),
		GregorWSURL:  getEnv("TEAMSYNC_GREGOR_WS_URL", "wss://localhost:8443/push"),
		SessionToken: getEnv("TEAMSYNC_SESSION_TOKEN", ""),
		Username:     getEnv("TEAMSYNC_USERNAME", ""),
		LogLevel:     getEnv("TEAMSYNC_LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}
