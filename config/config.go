/*
Package config loads runtime configuration from the environment.

A .env file is honored when present; real environment variables win.
Every knob has a development default so `go run ./cmd/server` works
with zero setup against a local SQLite file.
*/
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server ServerConfig
	Logger LoggerConfig
	DB     DBConfig
	JWT    JWTConfig
}

type ServerConfig struct {
	AppEnv          string
	Addr            string
	ShutdownTimeout int // seconds
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type DBConfig struct {
	Path string
}

type JWTConfig struct {
	Secret string
}

// Load reads .env (if present) and the environment into a Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "development"),
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ShutdownTimeout: getEnvInt("SHUTDOWN_TIMEOUT", 10),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOGGER_LEVEL", "info"),
			Encoding: getEnv("LOGGER_ENCODING", "json"),
		},
		DB: DBConfig{
			Path: getEnv("DB_PATH", "./data/assets.db"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		},
	}

	if cfg.Server.AppEnv == "development" {
		cfg.Logger.Level = getEnv("LOGGER_LEVEL", "debug")
		cfg.Logger.Encoding = getEnv("LOGGER_ENCODING", "console")
	}
	return cfg
}

// NewLogger builds a zap logger from the logger config.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Encoding == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = cfg.Encoding
	return zc.Build()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
