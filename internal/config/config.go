package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventsChannel string

	JWTSecret   string
	LogLevel    string
	LogPretty   bool
	CORSOrigins []string

	SkuAllocationAttempts int
	TxTimeout             time.Duration
	StoreBackend          string
}

// Load reads configs/.env when present, then the process environment.
// Values already set in the environment win over the file.
func Load() Config {
	_ = godotenv.Load("configs/.env")
	return FromEnv()
}

func FromEnv() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	attempts, err := strconv.Atoi(getEnv("SKU_ALLOCATION_ATTEMPTS", "3"))
	if err != nil || attempts < 1 {
		attempts = 3
	}
	txSeconds, err := strconv.Atoi(getEnv("TX_TIMEOUT_SECONDS", "10"))
	if err != nil || txSeconds < 1 {
		txSeconds = 10
	}
	pretty, _ := strconv.ParseBool(getEnv("LOG_PRETTY", "false"))

	backend := strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres))
	if backend != BackendMemory {
		backend = BackendPostgres
	}

	return Config{
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            getEnv("DB_PASSWORD", "postgres"),
		DBName:                getEnv("DB_NAME", "postgres"),
		DBSSLMode:             getEnv("DB_SSLMODE", "disable"),
		RedisAddr:             strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		EventsChannel:         getEnv("EVENTS_CHANNEL", "inventory.events"),
		JWTSecret:             strings.TrimSpace(os.Getenv("JWT_SECRET")),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogPretty:             pretty,
		CORSOrigins:           splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		SkuAllocationAttempts: attempts,
		TxTimeout:             time.Duration(txSeconds) * time.Second,
		StoreBackend:          backend,
	}
}

// DSN prefers DATABASE_URL and otherwise assembles one from the DB_* parts
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
