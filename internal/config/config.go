package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	SQLitePath string
}

type TelegramConfig struct {
	Token       string
	OwnerChatID int64
	// Timezone is the fixed deployment zone civil fire times are resolved
	// against, once, at the edge. Everything downstream is UTC.
	Timezone    string
	SendTimeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

func LoadAll() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			SQLitePath: getEnv("SQLITE_PATH", "reminders.db"),
		},
		Telegram: TelegramConfig{
			Token:       mustEnv("BOT_TOKEN"),
			OwnerChatID: mustEnvInt64("OWNER_CHAT_ID"),
			Timezone:    getEnv("TIMEZONE", "Europe/Vienna"),
			SendTimeout: time.Duration(getEnvInt("SEND_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: loadRedisConfig(),
	}

	validate(cfg)
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 86400)) * time.Second,
	}
}

func validate(cfg *Config) {
	if cfg.Telegram.OwnerChatID <= 0 {
		panic("OWNER_CHAT_ID must be a positive integer")
	}
	if cfg.Telegram.SendTimeout <= 0 {
		panic("SEND_TIMEOUT_SECONDS must be > 0")
	}
	if _, err := time.LoadLocation(cfg.Telegram.Timezone); err != nil {
		panic(fmt.Sprintf("invalid TIMEZONE %q: %v", cfg.Telegram.Timezone, err))
	}
}

func mustEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("missing required env var: %s", key))
	}
	return val
}

func mustEnvInt64(key string) int64 {
	v := mustEnv(key)
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}
