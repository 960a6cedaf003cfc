package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL    string
	DatabaseURL string

	// AdminID owns the settings component; only this caller may change ServiceURL.
	AdminID    string
	ServiceURL string

	MatchTTLSec  int
	HistoryLimit int
	MessagesDir  string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:     ":8080",
		MatchTTLSec:  86400,
		HistoryLimit: 10,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.AdminID = strings.TrimSpace(os.Getenv("ADMIN_ID"))
	cfg.ServiceURL = strings.TrimSpace(os.Getenv("SERVICE_URL"))

	if v := strings.TrimSpace(os.Getenv("MATCH_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MatchTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.AdminID == "" {
		return nil, errors.New("ADMIN_ID is required")
	}

	return cfg, nil
}
