package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string
}

// GitHubConfig holds the GitHub App credentials.
type GitHubConfig struct {
	AppID          int64
	WebhookSecret  string
	PrivateKeyPath string
	// Token is a personal access token used by the CLI instead of the
	// GitHub App installation flow. The server never reads it.
	Token string
}

// LLMConfig holds the model provider settings.
type LLMConfig struct {
	Provider     string
	Model        string
	OllamaHost   string
	GeminiAPIKey string
	Timeout      time.Duration
}

// DBConfig holds the PostgreSQL connection settings.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ReviewConfig holds the server-wide review defaults. A repository can
// override most of these through its .patchpilot.yml file.
type ReviewConfig struct {
	// Marker is the hidden HTML comment that identifies our reviews.
	Marker string
	// MinSeverity is the default inline-comment threshold.
	MinSeverity string
	// Layout is the default review body layout: "compact" or "detailed".
	Layout string
	// MaxComments caps inline comments per review.
	MaxComments int
	// CloneForContext enables cloning the repository to send source
	// context alongside the diff.
	CloneForContext bool
}

// Config holds the application's configuration values.
type Config struct {
	Server     ServerConfig
	GitHub     GitHubConfig
	LLM        LLMConfig
	Database   DBConfig
	Review     ReviewConfig
	LogLevel   slog.Level
	LogFormat  string
	MaxWorkers int
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	cfg := fromViper(v)

	if cfg.GitHub.AppID == 0 {
		return nil, fmt.Errorf("GITHUB_APP_ID must be set")
	}
	if cfg.GitHub.WebhookSecret == "" {
		return nil, fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("MAX_WORKERS", 5)
	v.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/patchpilot-app.private-key.pem")

	v.SetDefault("LLM_PROVIDER", "ollama")
	v.SetDefault("LLM_MODEL", "gemma3:latest")
	v.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	v.SetDefault("LLM_TIMEOUT", "5m")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "patchpilot")
	v.SetDefault("DB_NAME", "patchpilot")
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	v.SetDefault("REVIEW_MARKER", "<!-- patchpilot:review -->")
	v.SetDefault("REVIEW_MIN_SEVERITY", "suggestion")
	v.SetDefault("REVIEW_LAYOUT", "detailed")
	v.SetDefault("REVIEW_MAX_COMMENTS", 25)
	v.SetDefault("REVIEW_CLONE_FOR_CONTEXT", true)
}

func fromViper(v *viper.Viper) *Config {
	model := v.GetString("LLM_MODEL")
	if v.GetString("LLM_PROVIDER") == "gemini" {
		if geminiModel := v.GetString("GEMINI_MODEL"); geminiModel != "" {
			model = geminiModel
		} else {
			model = "gemini-2.5-flash"
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
		},
		GitHub: GitHubConfig{
			AppID:          v.GetInt64("GITHUB_APP_ID"),
			WebhookSecret:  v.GetString("GITHUB_WEBHOOK_SECRET"),
			PrivateKeyPath: v.GetString("GITHUB_PRIVATE_KEY_PATH"),
			Token:          v.GetString("GITHUB_TOKEN"),
		},
		LLM: LLMConfig{
			Provider:     v.GetString("LLM_PROVIDER"),
			Model:        model,
			OllamaHost:   v.GetString("OLLAMA_HOST"),
			GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
			Timeout:      v.GetDuration("LLM_TIMEOUT"),
		},
		Database: DBConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			Username:        v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Review: ReviewConfig{
			Marker:          v.GetString("REVIEW_MARKER"),
			MinSeverity:     v.GetString("REVIEW_MIN_SEVERITY"),
			Layout:          v.GetString("REVIEW_LAYOUT"),
			MaxComments:     v.GetInt("REVIEW_MAX_COMMENTS"),
			CloneForContext: v.GetBool("REVIEW_CLONE_FOR_CONTEXT"),
		},
		LogLevel:   parseLogLevel(v.GetString("LOG_LEVEL")),
		LogFormat:  v.GetString("LOG_FORMAT"),
		MaxWorkers: v.GetInt("MAX_WORKERS"),
	}
}

// parseLogLevel maps a log level string onto a slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", level)
		return slog.LevelInfo
	}
}
