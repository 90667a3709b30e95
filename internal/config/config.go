// Package config loads server settings from the environment, with a
// .env file picked up automatically when present.
package config

import (
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	HTTPAddr    string // listen address for websocket and REST routes
	DBDriver    string // "sqlite3" or "pgx"
	DBDSN       string // sqlite file path, or a postgres URL for pgx
	RedisAddr   string // empty disables the action stream
	RedisDB     int
	PointsToWin uint8 // match threshold, 15 or 30 in standard play
	LogLevel    string
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		HTTPAddr:    getEnv("TRUCO_HTTP_ADDR", ":8080"),
		DBDriver:    getEnv("TRUCO_DB_DRIVER", "sqlite3"),
		DBDSN:       getEnv("TRUCO_DB_DSN", "./truco.db"),
		RedisAddr:   getEnv("TRUCO_REDIS_ADDR", ""),
		RedisDB:     getEnvInt("TRUCO_REDIS_DB", 0),
		PointsToWin: uint8(getEnvInt("TRUCO_POINTS_TO_WIN", 15)),
		LogLevel:    getEnv("TRUCO_LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
