package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// defaultAdminPassword совпадает с паролем по умолчанию исходного табло.
const defaultAdminPassword = "8888"

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	ServerPort int

	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	JWTSecretKey string
	// Ровно одно из двух задано после Load; хеш приоритетнее.
	AdminPasswordHash string
	AdminPassword     string
	AdminTokenTTL     time.Duration

	InitialCourts      int
	AutomationDebounce time.Duration
	ResetCron          string
	AvatarBaseURL      string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	CORSAllowedOrigins []string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Ошибку не считаем фатальной: .env может отсутствовать
	_ = godotenv.Load()

	cfg := &Config{
		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisKey:          os.Getenv("REDIS_KEY"),
		JWTSecretKey:      os.Getenv("JWT_SECRET_KEY"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		ResetCron:         strings.TrimSpace(os.Getenv("RESET_CRON")),
		AvatarBaseURL:     os.Getenv("AVATAR_BASE_URL"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	var err error
	if cfg.ServerPort, err = getEnvInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case BackendRedis:
		if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of %q, %q or %q, got %q",
			BackendMemory, BackendPostgres, BackendRedis, cfg.StoreBackend)
	}

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.AdminPasswordHash == "" && cfg.AdminPassword == "" {
		cfg.AdminPassword = defaultAdminPassword
	}
	if cfg.AdminTokenTTL, err = getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour); err != nil {
		return nil, err
	}

	if cfg.InitialCourts, err = getEnvInt("INITIAL_COURTS", 3); err != nil {
		return nil, err
	}
	if cfg.InitialCourts < 0 {
		return nil, fmt.Errorf("INITIAL_COURTS must not be negative, got %d", cfg.InitialCourts)
	}
	if cfg.AutomationDebounce, err = getEnvDuration("AUTOMATION_DEBOUNCE", 800*time.Millisecond); err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
