package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = "config"
	ConfigFileType = "yaml"
	WissenDirName  = ".wissen"
	EnvPrefix      = "WISSEN"
)

var config *Config

// Config holds the application configuration
type Config struct {
	AI        AIConfig                `mapstructure:"ai"`
	Knowledge KnowledgeConfig         `mapstructure:"knowledge"`
	Chunking  ChunkingConfig          `mapstructure:"chunking"`
	Retrieval RetrievalConfig         `mapstructure:"retrieval"`
	Security  security.SecurityPolicy `mapstructure:"security"`
	Chat      ChatConfig              `mapstructure:"chat"`
	Log       LogConfig               `mapstructure:"log"`
}

// AIConfig holds LLM and embedding settings
type AIConfig struct {
	Provider           string  `mapstructure:"provider"`
	APIKey             string  `mapstructure:"api_key"`
	Model              string  `mapstructure:"model"`
	BaseURL            string  `mapstructure:"base_url"`
	Timeout            int     `mapstructure:"timeout"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	Temperature        float64 `mapstructure:"temperature"`
	EmbeddingModel     string  `mapstructure:"embedding_model"`
	EmbeddingDimension int     `mapstructure:"embedding_dimension"`
}

// KnowledgeConfig locates the document store
type KnowledgeConfig struct {
	DBPath     string `mapstructure:"db_path"`
	Collection string `mapstructure:"collection"`
}

// ChunkingConfig controls how documents are split before embedding
type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// RetrievalConfig controls search
type RetrievalConfig struct {
	Strategy string  `mapstructure:"strategy"`
	TopK     int     `mapstructure:"top_k"`
	RRFK     int     `mapstructure:"rrf_k"`
	MinScore float64 `mapstructure:"min_score"`
}

// ChatConfig holds chat-related configuration
type ChatConfig struct {
	MaxHistory     int  `mapstructure:"max_history"`
	AutoSave       bool `mapstructure:"auto_save"`
	Stream         bool `mapstructure:"stream"`
	RenderMarkdown bool `mapstructure:"render_markdown"`
	ShowSources    bool `mapstructure:"show_sources"`
}

// LogConfig controls the rotating log file
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultChatConfig returns default chat configuration
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		MaxHistory:     MaxHistory,
		AutoSave:       true,
		Stream:         true,
		RenderMarkdown: true,
	}
}

// GetConfigDir returns the wissen config directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, WissenDirName), nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("ai.provider", "ollama")
	v.SetDefault("ai.model", "qwen2.5:32b")
	v.SetDefault("ai.base_url", "http://localhost:11434")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.timeout", 120)
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.embedding_model", "bge-m3")
	v.SetDefault("ai.embedding_dimension", 1024)

	v.SetDefault("knowledge.db_path", filepath.Join(configDir, "wissen.db"))
	v.SetDefault("knowledge.collection", "chunks")

	v.SetDefault("chunking.size", 1000)
	v.SetDefault("chunking.overlap", 200)

	v.SetDefault("retrieval.strategy", "hybrid_rrf")
	v.SetDefault("retrieval.top_k", 10)
	v.SetDefault("retrieval.rrf_k", 60)
	v.SetDefault("retrieval.min_score", 0.01)

	// Security defaults
	v.SetDefault("security.command_level", "dangerous")
	v.SetDefault("security.restricted_paths", []string{})
	v.SetDefault("security.readonly_paths", []string{})

	// Chat defaults
	v.SetDefault("chat.max_history", MaxHistory)
	v.SetDefault("chat.auto_save", true)
	v.SetDefault("chat.stream", true)
	v.SetDefault("chat.render_markdown", true)
	v.SetDefault("chat.show_sources", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(configDir, "logs", "wissen.log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// InitConfig initializes the configuration.
//
// Values are layered: defaults, then ~/.wissen/config.yaml, then
// WISSEN_* environment variables (a .env file in the working directory
// is loaded into the environment first).
func InitConfig() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	// Create config directory if not exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, configDir)

	// Read config file (ignore if not exists)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = &cfg
	return config, nil
}

// GetConfig returns the loaded config
func GetConfig() *Config {
	return config
}

// SaveConfig saves the current config to file
func SaveConfig(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	v.AddConfigPath(configDir)

	v.Set("ai.provider", cfg.AI.Provider)
	v.Set("ai.api_key", cfg.AI.APIKey)
	v.Set("ai.model", cfg.AI.Model)
	v.Set("ai.base_url", cfg.AI.BaseURL)
	v.Set("ai.timeout", cfg.AI.Timeout)
	v.Set("ai.max_tokens", cfg.AI.MaxTokens)
	v.Set("ai.temperature", cfg.AI.Temperature)
	v.Set("ai.embedding_model", cfg.AI.EmbeddingModel)
	v.Set("ai.embedding_dimension", cfg.AI.EmbeddingDimension)

	v.Set("knowledge.db_path", cfg.Knowledge.DBPath)
	v.Set("knowledge.collection", cfg.Knowledge.Collection)

	v.Set("chunking.size", cfg.Chunking.Size)
	v.Set("chunking.overlap", cfg.Chunking.Overlap)

	v.Set("retrieval.strategy", cfg.Retrieval.Strategy)
	v.Set("retrieval.top_k", cfg.Retrieval.TopK)
	v.Set("retrieval.rrf_k", cfg.Retrieval.RRFK)
	v.Set("retrieval.min_score", cfg.Retrieval.MinScore)

	v.Set("security.command_level", cfg.Security.CommandLevel)
	v.Set("security.restricted_paths", cfg.Security.RestrictedPaths)
	v.Set("security.readonly_paths", cfg.Security.ReadOnlyPaths)

	v.Set("chat.max_history", cfg.Chat.MaxHistory)
	v.Set("chat.auto_save", cfg.Chat.AutoSave)
	v.Set("chat.stream", cfg.Chat.Stream)
	v.Set("chat.render_markdown", cfg.Chat.RenderMarkdown)
	v.Set("chat.show_sources", cfg.Chat.ShowSources)

	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.Set("log.max_backups", cfg.Log.MaxBackups)
	v.Set("log.max_age_days", cfg.Log.MaxAgeDays)

	configPath := filepath.Join(configDir, ConfigFileName+"."+ConfigFileType)
	return v.WriteConfigAs(configPath)
}
