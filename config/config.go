package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Auth     AuthConfig     `yaml:"auth"`
	Sync     SyncConfig     `yaml:"sync"`
	Audit    AuditConfig    `yaml:"audit"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type AIConfig struct {
	Provider  string `yaml:"provider"` // openai, ollama
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

type SyncConfig struct {
	// PollInterval bounds the staleness of the in-memory row cache.
	PollInterval time.Duration `yaml:"poll_interval"`
	// WriteChunkSize must stay safely below the store's per-batch ceiling (~500).
	WriteChunkSize int `yaml:"write_chunk_size"`
}

type AuditConfig struct {
	Retention time.Duration `yaml:"retention"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func loadConfig() *Config {
	config := &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/lingoflow.db",
		},
		AI: AIConfig{
			Provider:  "openai",
			APIURL:    "https://api.openai.com/v1",
			Model:     "gpt-4o",
			MaxTokens: 4096,
		},
		Auth: AuthConfig{
			TokenExpiry: 24 * time.Hour,
		},
		Sync: SyncConfig{
			PollInterval:   30 * time.Second,
			WriteChunkSize: 400,
		},
		Audit: AuditConfig{
			Retention: 90 * 24 * time.Hour,
		},
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	// Environment variables take precedence over the config file.
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.Provider = provider
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.APIURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.AI.Model = model
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = port
	}
	if chunk := os.Getenv("WRITE_CHUNK_SIZE"); chunk != "" {
		if n, err := strconv.Atoi(chunk); err == nil && n > 0 {
			config.Sync.WriteChunkSize = n
		}
	}

	if config.Sync.PollInterval <= 0 {
		config.Sync.PollInterval = 30 * time.Second
	}
	if config.Sync.WriteChunkSize <= 0 || config.Sync.WriteChunkSize > 450 {
		config.Sync.WriteChunkSize = 400
	}

	return config
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
