package config

import (
	"log"
	"os"
	"time"

	"github.com/velvoice/companiond/pkg/logger"
	"github.com/velvoice/companiond/pkg/utils"
)

// Config holds the global application configuration. Every key has a default
// so the server starts without a .env file.
type Config struct {
	ServerName string `env:"SERVER_NAME"`
	Addr       string `env:"ADDR"`
	Mode       string `env:"MODE"`
	APIPrefix  string `env:"API_PREFIX"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log logger.LogConfig

	// Realtime voice provider.
	ProviderURL    string `env:"VOICE_PROVIDER_URL"`
	ProviderAPIKey string `env:"VOICE_PROVIDER_API_KEY"`

	// Entitlement cache: backend ("local" or "redis") and lookup TTL.
	CacheType      string        `env:"CACHE_TYPE"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB"`
	EntitlementTTL time.Duration `env:"ENTITLEMENT_CACHE_TTL"`

	MonitorPrefix string `env:"MONITOR_PREFIX"`
}

var GlobalConfig *Config

// Load reads .env (optional) and populates GlobalConfig.
func Load() error {
	env := os.Getenv("APP_ENV")
	if err := utils.LoadEnv(env); err != nil {
		log.Printf("Note: .env file not found or failed to load: %v (using default values)", err)
	}

	GlobalConfig = &Config{
		ServerName: getStringOrDefault("SERVER_NAME", "companiond"),
		Addr:       getStringOrDefault("ADDR", ":7080"),
		Mode:       getStringOrDefault("MODE", "development"),
		APIPrefix:  getStringOrDefault("API_PREFIX", "/api"),
		DBDriver:   getStringOrDefault("DB_DRIVER", "sqlite"),
		DSN:        getStringOrDefault("DSN", "./companiond.db"),
		Log: logger.LogConfig{
			Level:      getStringOrDefault("LOG_LEVEL", "info"),
			Filename:   getStringOrDefault("LOG_FILENAME", "./logs/app.log"),
			MaxSize:    getIntOrDefault("LOG_MAX_SIZE", 100),
			MaxAge:     getIntOrDefault("LOG_MAX_AGE", 30),
			MaxBackups: getIntOrDefault("LOG_MAX_BACKUPS", 5),
			Daily:      getBoolOrDefault("LOG_DAILY", true),
		},
		ProviderURL:    getStringOrDefault("VOICE_PROVIDER_URL", "wss://realtime.voiceprovider.dev/call"),
		ProviderAPIKey: getStringOrDefault("VOICE_PROVIDER_API_KEY", ""),
		CacheType:      getStringOrDefault("CACHE_TYPE", "local"),
		RedisAddr:      getStringOrDefault("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  getStringOrDefault("REDIS_PASSWORD", ""),
		RedisDB:        getIntOrDefault("REDIS_DB", 0),
		EntitlementTTL: getDurationOrDefault("ENTITLEMENT_CACHE_TTL", 5*time.Minute),
		MonitorPrefix:  getStringOrDefault("MONITOR_PREFIX", "/metrics"),
	}
	return nil
}

func getStringOrDefault(key, defaultValue string) string {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if utils.GetEnv(key) == "" {
		return defaultValue
	}
	return utils.GetBoolEnv(key)
}

func getIntOrDefault(key string, defaultValue int) int {
	value := utils.GetIntEnv(key)
	if value == 0 {
		return defaultValue
	}
	return int(value)
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
