package env

import "os"

// Get reads the named environment variable, falling back to def when the
// variable is unset or empty.
func Get(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
