package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           int
	DatabaseURL    string
	LogLevel       string
	NatsURL        string
	NatsToken      string
	TogetherAPIKey string
	TogetherModel  string
	TogetherURL    string
	EmbedModel     string
	TavilyAPIKey   string
	TavilyURL      string
	PDFServiceURL  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first, without overriding variables already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:           envInt("MAGPIE_PORT", 8760),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
		TogetherAPIKey: envStr("TOGETHER_API_KEY", ""),
		TogetherModel:  envStr("MAGPIE_MODEL", "mistralai/Mistral-7B-Instruct-v0.3"),
		TogetherURL:    envStr("TOGETHER_BASE_URL", "https://api.together.xyz/v1"),
		EmbedModel:     envStr("MAGPIE_EMBED_MODEL", "BAAI/bge-base-en-v1.5"),
		TavilyAPIKey:   envStr("TAVILY_API_KEY", ""),
		TavilyURL:      envStr("TAVILY_BASE_URL", "https://api.tavily.com"),
		PDFServiceURL:  envStr("PDF_SERVICE_URL", "http://localhost:8081"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
