package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"plantquest/guard"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Firebase  FirebaseConfig
	Identify  IdentifyConfig
	Gemini    GeminiConfig
	Guard     GuardConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

type IdentifyConfig struct {
	APIKey string
}

type GeminiConfig struct {
	APIKey string
}

// GuardConfig tunes the duplicate-plant guard. The Hamming threshold trades
// missed duplicates against rejecting genuinely distinct look-alike plants.
type GuardConfig struct {
	ProximityDegrees float64
	HammingThreshold int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./serviceAccountKey.json"),
		},
		Identify: IdentifyConfig{
			APIKey: getEnv("PLANT_ID_API_KEY", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		Guard: GuardConfig{
			ProximityDegrees: parseFloat(getEnv("GUARD_PROXIMITY_DEGREES", ""), guard.DefaultProximityDegrees),
			HammingThreshold: parseInt(getEnv("GUARD_HAMMING_THRESHOLD", ""), guard.DefaultHammingThreshold),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		RateLimit: RateLimitConfig{
			Requests: parseInt(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
			Window:   parseDuration(getEnv("RATE_LIMIT_WINDOW", "60"), 60*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

func parseFloat(s string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// If it's just a number, assume seconds
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func parseStringSlice(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) Validate() {
	if c.Firebase.ProjectID == "" {
		log.Fatal("FIREBASE_PROJECT_ID must be set")
	}
	if _, err := os.Stat(c.Firebase.CredentialsPath); os.IsNotExist(err) {
		log.Fatalf("Firebase credentials file not found: %s", c.Firebase.CredentialsPath)
	}
	if c.Identify.APIKey == "" {
		log.Println("⚠️  PLANT_ID_API_KEY not set; plant registration and health checks will fail")
	}
	if c.Gemini.APIKey == "" {
		log.Println("⚠️  GEMINI_API_KEY not set; the plant chat endpoint is disabled")
	}
}
