package env

import "os"

// Get reads an environment variable, returning fallback when the variable is
// unset or empty. An empty value is treated as unset on purpose: deployment
// manifests often template variables to "" when a setting is absent.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// IsSet reports whether the variable has a non-empty value.
func IsSet(key string) bool {
	return os.Getenv(key) != ""
}
