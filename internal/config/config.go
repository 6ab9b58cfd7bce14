package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Server          ServerConfig              `json:"server"`
	Database        DatabaseConfig            `json:"database"`
	Session         SessionConfig             `json:"session"`
	Telegram        TelegramConfig            `json:"telegram"`
	Providers       map[string]ProviderConfig `json:"providers"`
	DefaultProvider string                    `json:"default_provider"`
	Summarize       SummarizeConfig           `json:"summarize"`
	Listener        ListenerConfig            `json:"listener"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

type SessionConfig struct {
	CookieName      string `json:"cookie_name"`
	ExpirationHours int    `json:"expiration_hours"`
}

// TelegramConfig carries the MTProto application credentials issued at
// my.telegram.org. Both are required for any connection, anonymous or not.
type TelegramConfig struct {
	APIID   int    `json:"api_id"`
	APIHash string `json:"api_hash"`
}

type ProviderConfig struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	BaseURL      string `json:"base_url,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
	DefaultModel string `json:"default_model"`
}

// SummarizeConfig bounds the chunk-and-summarize pipeline.
type SummarizeConfig struct {
	ChunkSize   int     `json:"chunk_size"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

// ListenerConfig configures the optional process-wide listening client.
// SessionToken must be a durable token minted with cmd/sessiontool.
type ListenerConfig struct {
	Enabled      bool   `json:"enabled"`
	SessionToken string `json:"session_token"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".sumgram"))
	}

	// Set defaults
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "sumgram")
	viper.SetDefault("database.database", "sumgram")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("session.cookie_name", "sumgram_session")
	viper.SetDefault("session.expiration_hours", 24)
	viper.SetDefault("default_provider", "openai")
	viper.SetDefault("summarize.chunk_size", 3000)
	viper.SetDefault("summarize.max_tokens", 2000)
	viper.SetDefault("summarize.temperature", 0.7)

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := createDefaultConfig()
			loadEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func createDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8000,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "sumgram",
			Password: "",
			Database: "sumgram",
			SSLMode:  "disable",
		},
		Session: SessionConfig{
			CookieName:      "sumgram_session",
			ExpirationHours: 24,
		},
		Providers: map[string]ProviderConfig{
			"openai": {
				Type:         "openai",
				Name:         "OpenAI",
				DefaultModel: "gpt-3.5-turbo",
			},
			"anthropic": {
				Type:         "anthropic",
				Name:         "Anthropic",
				DefaultModel: "claude-3-sonnet-20240229",
			},
		},
		DefaultProvider: "openai",
		Summarize: SummarizeConfig{
			ChunkSize:   3000,
			MaxTokens:   2000,
			Temperature: 0.7,
		},
	}
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("SUMGRAM_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("SUMGRAM_HOST"); host != "" {
		cfg.Server.Host = host
	}

	// Telegram application credentials
	if apiID := os.Getenv("TELEGRAM_API_ID"); apiID != "" {
		if id, err := strconv.Atoi(apiID); err == nil {
			cfg.Telegram.APIID = id
		}
	}
	if apiHash := os.Getenv("TELEGRAM_API_HASH"); apiHash != "" {
		cfg.Telegram.APIHash = apiHash
	}

	// Provider API keys
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if p, ok := cfg.Providers["openai"]; ok {
			p.APIKey = key
			cfg.Providers["openai"] = p
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		if p, ok := cfg.Providers["anthropic"]; ok {
			p.APIKey = key
			cfg.Providers["anthropic"] = p
		}
	}

	// Database overrides
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	// Listener session provisioning
	if token := os.Getenv("SUMGRAM_LISTENER_SESSION"); token != "" {
		cfg.Listener.SessionToken = token
		cfg.Listener.Enabled = true
	}
}
