package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Backend names accepted in READINGLIST_BACKEND.
const (
	BackendHTTP  = "http"
	BackendMock  = "mock"
	BackendMongo = "mongo"
)

type Config struct {
	Backend        string
	APIBaseURL     string
	APIToken       string
	JWTSecret      string // signs a short-lived bearer token per request when set
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second, 0 = unlimited
	RateBurst      int
	MongoURI       string
	DBName         string
	LogLevel       string
	Port           string // used by "serve"
}

func Load() (*Config, error) {
	cfg := &Config{
		Backend:    strings.ToLower(getEnv("READINGLIST_BACKEND", BackendHTTP)),
		APIBaseURL: strings.TrimRight(getEnv("READINGLIST_API_URL", "http://localhost:8000"), "/"),
		APIToken:   getEnv("READINGLIST_API_TOKEN", ""),
		JWTSecret:  getEnv("READINGLIST_JWT_SECRET", ""),
		MongoURI:   getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:     getEnv("MONGODB_DB", "books"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Port:       getEnv("PORT", "8000"),
	}

	switch cfg.Backend {
	case BackendHTTP, BackendMock, BackendMongo:
	default:
		return nil, fmt.Errorf("READINGLIST_BACKEND must be http, mock or mongo (got %q)", cfg.Backend)
	}

	timeout, err := time.ParseDuration(getEnv("READINGLIST_REQUEST_TIMEOUT", "15s"))
	if err != nil || timeout < 0 {
		return nil, fmt.Errorf("READINGLIST_REQUEST_TIMEOUT: invalid duration")
	}
	cfg.RequestTimeout = timeout

	if v := getEnv("READINGLIST_RATE_LIMIT", "0"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("READINGLIST_RATE_LIMIT must be a non-negative number (got %q)", v)
		}
		cfg.RateLimit = n
	}
	cfg.RateBurst = 1
	if v := getEnv("READINGLIST_RATE_BURST", "1"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("READINGLIST_RATE_BURST must be a positive integer (got %q)", v)
		}
		cfg.RateBurst = n
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var secretEnvVars = map[string]bool{
	"READINGLIST_API_TOKEN":  true,
	"READINGLIST_JWT_SECRET": true,
	"MONGODB_URI":            true,
}

// OptionalEnvVars are logged at debug level so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"READINGLIST_BACKEND",
	"READINGLIST_API_URL",
	"READINGLIST_API_TOKEN",
	"READINGLIST_JWT_SECRET",
	"READINGLIST_REQUEST_TIMEOUT",
	"READINGLIST_RATE_LIMIT",
	"READINGLIST_RATE_BURST",
	"MONGODB_URI",
	"MONGODB_DB",
	"LOG_LEVEL",
	"PORT",
}

// LogEnv reports which variables are set without printing secret values.
func LogEnv(log logrus.FieldLogger) {
	for _, key := range OptionalEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		switch {
		case v == "":
			log.Debugf("env %s not set (optional)", key)
		case secretEnvVars[key]:
			log.Debugf("env %s loaded", key)
		default:
			log.Debugf("env %s = %s", key, v)
		}
	}
}
