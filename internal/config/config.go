package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	AMQPURL         string
	LogLevel        string
	CancelWindow    time.Duration
	PrivilegedRoles []string
	EventsExchange  string
}

func Load() Config {
	_ = godotenv.Load()

	port := getEnv("PORT", "8080")
	dbURL := getEnv("DATABASE_URL", "")
	amqpURL := getEnv("AMQP_URL", "")
	logLevel := getEnv("LOG_LEVEL", "info")
	cancelHours := getEnvInt("CANCEL_WINDOW_HOURS", 3)
	exchange := getEnv("EVENTS_EXCHANGE", "bbglo.events")

	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return Config{
		Port:            port,
		DatabaseURL:     dbURL,
		AMQPURL:         amqpURL,
		LogLevel:        logLevel,
		CancelWindow:    time.Duration(cancelHours) * time.Hour,
		PrivilegedRoles: []string{"admin", "manager"},
		EventsExchange:  exchange,
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
