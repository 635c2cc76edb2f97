// Package config loads application configuration from environment
// variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	// telegram
	TGApiID      int
	TGApiHash    string
	TGSessionStr string
	SessionDB    string

	// export defaults
	OutputFile    string
	NamingPattern string
	MessageLimit  int
	Template      string
	TemplatesFile string
	DownloadMedia bool
	WriteStats    bool

	// fetch tuning
	PageSize         int
	SafetyMultiplier int
	RateLimitRPS     float64

	// logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() (*Config, error) {
	cfg := &Config{
		TGApiID:          getEnvInt("TG_API_ID", 0),
		TGApiHash:        getEnv("TG_API_HASH", ""),
		TGSessionStr:     getEnv("TG_SESSION_STRING", ""),
		SessionDB:        getEnv("SESSION_DB", "chatexport_session"),
		OutputFile:       getEnv("OUTPUT_FILE", "telegram_chat_export.txt"),
		NamingPattern:    getEnv("NAMING_PATTERN", "{chat_name}_{date}.txt"),
		MessageLimit:     getEnvInt("MESSAGE_LIMIT", 0),
		Template:         getEnv("TEMPLATE", "whatsapp"),
		TemplatesFile:    getEnv("TEMPLATES_FILE", ""),
		DownloadMedia:    getEnvBool("DOWNLOAD_MEDIA", false),
		WriteStats:       getEnvBool("WRITE_STATS", false),
		PageSize:         getEnvInt("PAGE_SIZE", 100),
		SafetyMultiplier: getEnvInt("SAFETY_MULTIPLIER", 2),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 2.0),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "1", "true", "yes", "y":
			return true
		case "0", "false", "no", "n":
			return false
		}
	}
	return defaultVal
}
