package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort     string
	MySQLDSN     string
	RedisAddr    string
	KafkaBrokers []string
	TaskTopic    string
	EventsTopic  string
	GroupID      string
	WorkerCount  int
	ShardCount   int
	LockTTL      time.Duration
	PollInterval time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		MySQLDSN:     getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/orders?parseTime=true"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		TaskTopic:    getEnv("TASK_TOPIC", "order.processing"),
		EventsTopic:  getEnv("EVENTS_TOPIC", "order.events"),
		GroupID:      getEnv("CONSUMER_GROUP", "order-workers"),
		WorkerCount:  getEnvInt("WORKER_COUNT", 10),
		ShardCount:   getEnvInt("SHARD_COUNT", 4),
		LockTTL:      getEnvDuration("LOCK_TTL", 30*time.Second),
		PollInterval: getEnvDuration("SCHEDULER_POLL_INTERVAL", time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
