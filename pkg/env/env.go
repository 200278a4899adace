package env

import "os"

// Get returns the named variable, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
