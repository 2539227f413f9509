package config

import "os"

// Config holds process-wide settings resolved from the environment.
type Config struct {
	// DataDir is the directory holding the flat-file stores.
	DataDir string
	// AdminUser and AdminPassword seed the user store when it is empty.
	AdminUser     string
	AdminPassword string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by the caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.DataDir = getEnv("POS_DATA_DIR", "data")
	cfg.AdminUser = getEnv("POS_ADMIN_USER", "admin")
	cfg.AdminPassword = getEnv("POS_ADMIN_PASSWORD", "admin123")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
