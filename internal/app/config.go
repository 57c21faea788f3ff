package app

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Config описывает настройки запуска сервиса, читаемые из окружения.
type Config struct {
	ListenAddr    string
	MetricsAddr   string
	Domain        string
	APIKey        string
	BasicUsername string
	BasicPassword string
	DatabaseDSN   string
	BatchSize     int
	SyncSchedule  string
	KafkaBrokers  string
}

// LoadConfig собирает конфигурацию из переменных окружения. Отсутствующие
// обязательные переменные накапливаются и возвращаются одной ошибкой, чтобы
// оператор видел полный список сразу.
func LoadConfig() (Config, error) {
	cfg := Config{
		ListenAddr:    ":" + envOrDefault("PORT", "3000"),
		MetricsAddr:   envOrDefault("METRICS_ADDR", ":9090"),
		Domain:        envOrDefault("DOMAIN", "zooart6.yourtechnicaldomain.com"),
		APIKey:        os.Getenv("API_KEY"),
		BasicUsername: os.Getenv("BASIC_USERNAME"),
		BasicPassword: os.Getenv("BASIC_PASSWORD"),
		DatabaseDSN:   os.Getenv("DATABASE_URL"),
		SyncSchedule:  envOrDefault("SYNC_SCHEDULE", "0 0 * * *"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
	}

	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	if cfg.BasicUsername == "" {
		missing = append(missing, "BASIC_USERNAME")
	}
	if cfg.BasicPassword == "" {
		missing = append(missing, "BASIC_PASSWORD")
	}
	if cfg.DatabaseDSN == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	batchSize := envOrDefault("BATCH_SIZE", "4")
	parsed, err := strconv.Atoi(batchSize)
	if err != nil || parsed <= 0 {
		return Config{}, fmt.Errorf("BATCH_SIZE must be a positive integer, got %q", batchSize)
	}
	cfg.BatchSize = parsed

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
