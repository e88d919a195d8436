package env

import "os"

// Get reads an environment variable, falling back when it is unset or blank.
// Blank counts as unset so an empty `LOG_FORMAT=` in a compose file does not
// suppress the default.
func Get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
