// Package config loads the application configuration from defaults, an
// optional YAML file, and environment variables, in that order. Secrets
// come from the environment only; config files never carry the API key.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings for the graph client, the walkthrough
// commands, and the HTTP server.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Session   SessionConfig   `mapstructure:"session"`

	// GroupID is the graph partition episodes land in by default.
	GroupID string `mapstructure:"group_id"`
}

// LogConfig selects log level and an optional JSON log file.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DatabaseConfig holds the Neo4j connection parameters.
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// LLMConfig holds the chat model parameters. The API key is deliberately
// untagged so viper never reads it from a file.
type LLMConfig struct {
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	APIKey      string  `mapstructure:"-"`
}

// EmbeddingConfig holds the embedding model parameters.
type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
	APIKey     string `mapstructure:"-"`
}

// ServerConfig holds the HTTP listener parameters.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// TelemetryConfig points error capture at a directory. Empty disables it.
type TelemetryConfig struct {
	Dir string `mapstructure:"dir"`
}

// SessionConfig holds the conversation store parameters. An empty Dir
// keeps threads in memory.
type SessionConfig struct {
	Dir    string `mapstructure:"dir"`
	Window int    `mapstructure:"window"`
}

// Load reads configuration in order: .env file, defaults, the config file
// at path (or .engram.yaml in the working directory and $HOME when path is
// empty), then environment overrides.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(".engram")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("database.uri", "bolt://localhost:7687")
	v.SetDefault("database.username", "neo4j")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "neo4j")

	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 8192)

	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("embedding.batch_size", 32)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("session.window", 20)

	v.SetDefault("group_id", "default")
}

// overrideWithEnv applies the recognized environment variables on top of
// whatever the file provided.
func overrideWithEnv(config *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
		config.Embedding.APIKey = key
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		config.LLM.BaseURL = base
		config.Embedding.BaseURL = base
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		config.Database.Database = db
	}

	if group := os.Getenv("ENGRAM_GROUP_ID"); group != "" {
		config.GroupID = group
	}
	if level := os.Getenv("ENGRAM_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if dir := os.Getenv("ENGRAM_TELEMETRY_DIR"); dir != "" {
		config.Telemetry.Dir = dir
	}
	if dir := os.Getenv("ENGRAM_SESSION_DIR"); dir != "" {
		config.Session.Dir = dir
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			config.Server.Port = n
		}
	}
}
