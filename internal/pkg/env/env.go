package env

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt reads an integer setting, falling back to def when the value
// is missing or not a number.
func GetEnvInt(key string, def int) int {
	raw := GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func SetupEnvFile() {
	// Look for .env file in project root
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/smartscan to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		loaded, err := godotenv.Read(envFile)
		if err == nil {
			Env = loaded
			return
		}
	}

	// No .env file found; rely on OS environment only.
	Env = map[string]string{}
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
