package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Gemini model access
	GeminiAPIKey     string
	GeminiModelID    string
	GeminiEmbedModel string

	// Session storage
	UseMemorySessions  bool
	SessionIdleTimeout time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool

	// Knowledge corpus and retrieval
	DocsDir string
	RAGTopK int

	// Booking artifacts
	DocumentDir      string
	AvailabilityFile string

	// Shown to patients when the assistant has no answer
	HospitalPhone string

	// Static token guarding the admin availability endpoint
	AdminToken string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:    getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		GeminiEmbedModel: getEnv("GEMINI_EMBED_MODEL_ID", "text-embedding-004"),

		UseMemorySessions:  getEnvAsBool("USE_MEMORY_SESSIONS", true),
		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),

		DocsDir: getEnv("DOCS_DIR", "data/docs"),
		RAGTopK: getEnvAsInt("RAG_TOP_K", 3),

		DocumentDir:      getEnv("DOCUMENT_DIR", "data/documents"),
		AvailabilityFile: getEnv("AVAILABILITY_FILE", ""),

		HospitalPhone: getEnv("HOSPITAL_PHONE", "(555) 123-4567"),

		AdminToken: getEnv("ADMIN_TOKEN", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
