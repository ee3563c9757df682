/*
Package config reads process configuration from the environment. A .env file in
the working directory is loaded first when present.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// API configures cmd/api.
type API struct {
	Port int
	Env  string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	RelayURL string

	ChatMaxSessions      int
	ChatSessionTTL       time.Duration
	TranslationCacheSize int
}

// Relay configures cmd/relay.
type Relay struct {
	Port int
	Env  string

	AccessToken   string
	PhoneNumberID string
	TemplateName  string
	APIVersion    string
	GraphBaseURL  string
}

// LoadAPI reads the API server configuration. GEMINI_API_KEY is mandatory.
func LoadAPI() (API, error) {
	cfg := API{
		Port:                 intEnv("PORT", 8080),
		Env:                  stringEnv("APP_ENV", "production"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          stringEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:        stringEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		RelayURL:             stringEnv("RELAY_URL", "http://localhost:3001"),
		ChatMaxSessions:      intEnv("CHAT_MAX_SESSIONS", 256),
		ChatSessionTTL:       durationEnv("CHAT_SESSION_TTL", 2*time.Hour),
		TranslationCacheSize: intEnv("TRANSLATION_CACHE_SIZE", 512),
	}

	if cfg.GeminiAPIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return cfg, nil
}

// LoadRelay reads the relay configuration. The three Meta WhatsApp credentials are
// mandatory and the relay refuses to start without them.
func LoadRelay() (Relay, error) {
	cfg := Relay{
		Port:          intEnv("PORT", 3001),
		Env:           stringEnv("APP_ENV", "production"),
		AccessToken:   os.Getenv("META_WA_ACCESS_TOKEN"),
		PhoneNumberID: os.Getenv("META_WA_PHONE_NUMBER_ID"),
		TemplateName:  os.Getenv("META_WA_TEMPLATE_NAME"),
		APIVersion:    stringEnv("META_WA_API_VERSION", "v19.0"),
		GraphBaseURL:  stringEnv("META_GRAPH_BASE_URL", "https://graph.facebook.com"),
	}

	var missing []string
	if cfg.AccessToken == "" {
		missing = append(missing, "META_WA_ACCESS_TOKEN")
	}
	if cfg.PhoneNumberID == "" {
		missing = append(missing, "META_WA_PHONE_NUMBER_ID")
	}
	if cfg.TemplateName == "" {
		missing = append(missing, "META_WA_TEMPLATE_NAME")
	}
	if len(missing) > 0 {
		return cfg, fmt.Errorf("Meta WhatsApp credentials are not set: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// intEnv falls back when the variable is unset, unparsable or not positive.
func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
