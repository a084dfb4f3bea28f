package config

import (
	"log"
	"os"
	"strconv"
)

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

// MustEnvWithFallback fatally exits if neither env var is set. Used for
// secrets that have no sane default.
func MustEnvWithFallback(primary, fallback string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	log.Fatalf("Required env var %s (or %s) not set", primary, fallback)
	return ""
}

func GetEnvIntWithFallback(primary, fallback string, defaultValue int) int {
	for _, key := range []string{primary, fallback} {
		if value := os.Getenv(key); value != "" {
			if i, err := strconv.Atoi(value); err == nil {
				return i
			}
		}
	}
	return defaultValue
}
