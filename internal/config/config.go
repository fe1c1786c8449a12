package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Rooms
	RoomMaxPlayers      int
	RoomExpiryMinutes   int
	RoomStateTTLMinutes int
	ActionRetryLimit    int
	JanitorIntervalSecs int

	// AI opponents
	AIProviderURL        string
	AIProviderTimeoutSec int
	AIThinkDelay         bool
	AIProfilesFile       string

	// Security
	JWTSecret         string
	SessionTTLMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/seven_ate_nine?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Rooms
		RoomMaxPlayers:      getEnvInt("ROOM_MAX_PLAYERS", 5),
		RoomExpiryMinutes:   getEnvInt("ROOM_EXPIRY_MINUTES", 60),
		RoomStateTTLMinutes: getEnvInt("ROOM_STATE_TTL_MINUTES", 240),
		ActionRetryLimit:    getEnvInt("ACTION_RETRY_LIMIT", 3),
		JanitorIntervalSecs: getEnvInt("JANITOR_INTERVAL_SECONDS", 60),

		// AI opponents
		AIProviderURL:        getEnv("AI_PROVIDER_URL", ""),
		AIProviderTimeoutSec: getEnvInt("AI_PROVIDER_TIMEOUT_SECONDS", 5),
		AIThinkDelay:         getEnvBool("AI_THINK_DELAY", true),
		AIProfilesFile:       getEnv("AI_PROFILES_FILE", ""),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 240),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
