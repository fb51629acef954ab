package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	GelfAddr string

	// External submissions backend
	BackendURL     string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration

	// Admin session
	SessionDBPath string
	LocalPINHash  string
	LocalSecret   string
	CacheTTL      time.Duration

	// Meeting calendar
	AvailableDates []string
	BookedSlots    []string

	// Notification email
	ResendAPIKey string
	NotifyFrom   string
	NotifyTo     []string
}

func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded .env")
	}

	return &Config{
		HTTPAddr: getEnv("GATEWAY_ADDR", ":8080"),
		GelfAddr: getEnv("GATEWAY_GELF_ADDR", ""),

		BackendURL:     getEnv("BACKEND_URL", "http://127.0.0.1:9000"),
		RequestTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		RetryAttempts:  getEnvInt("BACKEND_RETRY_ATTEMPTS", 3),
		RetryDelay:     getEnvDuration("BACKEND_RETRY_DELAY", time.Second),

		SessionDBPath: getEnv("GATEWAY_SESSION_DB", "gateway.db"),
		LocalPINHash:  getEnv("GATEWAY_LOCAL_PIN_HASH", ""),
		LocalSecret:   getEnv("GATEWAY_LOCAL_SECRET", "tesconnections-dev-secret-change-me"),
		CacheTTL:      getEnvDuration("GATEWAY_CACHE_TTL", 30*time.Second),

		AvailableDates: getEnvList("GATEWAY_AVAILABLE_DATES"),
		BookedSlots:    getEnvList("GATEWAY_BOOKED_SLOTS"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		NotifyFrom:   getEnv("NOTIFY_FROM", "forms@tesconnections.com"),
		NotifyTo:     getEnvList("NOTIFY_TO"),
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getEnvList splits a comma-separated value, dropping empties.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
