package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Application settings
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Upload   UploadConfig
	Settings SettingsConfig
}

// Server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

// Upload settings
type UploadConfig struct {
	MaxFileBytes  int64
	RatePerSecond float64
	RateBurst     int
}

// Settings-blob storage
type SettingsConfig struct {
	FilePath string
}

// Logging settings
type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", "30s"),
		},
		Upload: UploadConfig{
			MaxFileBytes:  int64(getIntEnv("MAX_UPLOAD_BYTES", 10<<20)),
			RatePerSecond: getFloatEnv("UPLOAD_RATE_PER_SECOND", 5),
			RateBurst:     getIntEnv("UPLOAD_RATE_BURST", 10),
		},
		Settings: SettingsConfig{
			FilePath: getEnv("SETTINGS_FILE", "analysis_settings.json"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
