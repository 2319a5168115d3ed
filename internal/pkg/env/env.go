package env

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// loaded .env values win over the process environment
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt returns def when the value is missing or not a number.
func GetEnvInt(key string, def int) int {
	raw := GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("[Env] %s=%q is not an integer, using %d", key, raw, def)
		return def
	}
	return n
}

// GetEnvDuration parses values like "90s" or "15m".
func GetEnvDuration(key string, def time.Duration) time.Duration {
	raw := GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warnf("[Env] %s=%q is not a valid duration, using %s", key, raw, def)
		return def
	}
	return d
}

func SetupEnvFile() {
	envFiles := []string{
		".env",
		"../../.env",    // from cmd/osov
		"../../../.env", // deeper nesting (tests)
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	// containers inject configuration through the process environment
	Env = map[string]string{}
	log.Warn("[Env] no .env file found, relying on process environment")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}

// PublicBaseURL is the externally reachable origin used in redirects and emails.
func PublicBaseURL() string {
	if domain := GetEnv("PUBLIC_DOMAIN", ""); domain != "" {
		return domain
	}
	return "http://localhost:" + GetEnv("APP_PORT", "4000")
}
