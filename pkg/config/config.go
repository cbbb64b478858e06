package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, loaded once at startup.
type Config struct {
	Env string

	// Discord
	DiscordBotToken string
	ApplicationID   string

	// Postgres (internal/store)
	DatabaseURL string

	// Neo4j (internal/recograph)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// AI fallback recommendation provider (internal/recograph)
	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	// Settings store
	SettingsDir string

	// Directory the ModeDownloadContainer/ModeDownloadAudio commands write
	// their yt-dlp output to (spec §6's literal "/data/downloads" layout).
	DownloadDir string

	// Optional process-level log channel, used before any guild-scoped
	// log_channels configuration exists.
	SystemLogChannelID string
}

// Load reads configuration from environment variables, loading a .env file
// first if one is present (not an error if it isn't).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getEnv("ENV", "development"),
		DiscordBotToken:    getEnv("DISCORD_BOT_TOKEN", ""),
		ApplicationID:      getEnv("DISCORD_APPLICATION_ID", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Neo4jURI:           getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", "password"),
		AIBaseURL:          getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:           getEnv("AI_API_KEY", ""),
		AIModel:            getEnv("AI_MODEL", "gpt-4o-mini"),
		SettingsDir:        getEnv("SETTINGS_DIR", "./data/settings"),
		DownloadDir:        getEnv("DOWNLOAD_DIR", "/data/downloads"),
		SystemLogChannelID: getEnv("SYSTEM_LOG_CHANNEL_ID", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set. The
// recommendation graph and AI fallback are optional collaborators (spec
// §14's graph-first/LLM-fallback chain degrades gracefully when either is
// unreachable), so only the bot token and database are required here.
func (c *Config) Validate() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
