package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	SessionTTL    time.Duration

	DriverBotToken string

	APIDomainURL string
	SocketURL    string
	HTTPTimeout  time.Duration

	// Waiting-for-customer countdown budget and how often the bot re-renders it.
	CountdownSeconds int
	CountdownRefresh time.Duration
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "driverbot"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "driverbot"))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", ""))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.SessionTTL = cast.ToDuration(getOrReturnDefault("SESSION_TTL", "24h"))

	cfg.DriverBotToken = cast.ToString(getOrReturnDefault("DRIVER_BOT_TOKEN", ""))

	cfg.APIDomainURL = cast.ToString(getOrReturnDefault("API_DOMAIN_URL", "https://xlr-ai.com"))
	cfg.SocketURL = cast.ToString(getOrReturnDefault("SOCKET_URL", "https://xlr-ai.com"))
	cfg.HTTPTimeout = cast.ToDuration(getOrReturnDefault("HTTP_TIMEOUT", "15s"))

	cfg.CountdownSeconds = cast.ToInt(getOrReturnDefault("COUNTDOWN_SECONDS", 300))
	cfg.CountdownRefresh = cast.ToDuration(getOrReturnDefault("COUNTDOWN_REFRESH", "30s"))

	return cfg
}

// PostgresURL builds the connection string shared by the pool and the migrator.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
	)
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
