package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of config.yaml
type YAMLConfig struct {
	Model struct {
		Name        string  `yaml:"name"`
		BaseURL     string  `yaml:"base_url"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"model"`
	Router struct {
		MaxStagesPerTurn int `yaml:"max_stages_per_turn"`
	} `yaml:"router"`
	Conversation struct {
		MaxTurns   int `yaml:"max_turns"`
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"conversation"`
	Storage struct {
		Backend    string `yaml:"backend"` // "memory" or "redis"
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"storage"`
	Log LogConfig `yaml:"log"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "console" or "json"
	Output     string `yaml:"output"` // "stdout", "stderr" or "file"
	FilePath   string `yaml:"file_path"`
	TimeFormat string `yaml:"time_format"`
}

// Env holds secrets and endpoints read from the environment
type Env struct {
	APIKey   string `envconfig:"OPENROUTER_API_KEY"`
	RedisURL string `envconfig:"REDIS_URL"`
}

// ModelConfig is the resolved chat model configuration used by main
type ModelConfig struct {
	Name        string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// LoadConfig loads configuration from config.yaml
func LoadConfig(filepath string) (*YAMLConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config YAMLConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

// LoadEnv reads secrets from the process environment
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	return &env, nil
}

// BuildModelConfig merges YAML model settings with the environment API key
func BuildModelConfig(yamlConfig *YAMLConfig, env *Env) ModelConfig {
	return ModelConfig{
		Name:        yamlConfig.Model.Name,
		APIKey:      env.APIKey,
		BaseURL:     yamlConfig.Model.BaseURL,
		MaxTokens:   yamlConfig.Model.MaxTokens,
		Temperature: yamlConfig.Model.Temperature,
	}
}

// ConversationTTL returns the conversation TTL as a duration
func (c *YAMLConfig) ConversationTTL() time.Duration {
	return time.Duration(c.Conversation.TTLSeconds) * time.Second
}

// StorageTTL returns the session storage TTL as a duration
func (c *YAMLConfig) StorageTTL() time.Duration {
	return time.Duration(c.Storage.TTLSeconds) * time.Second
}

func (c *YAMLConfig) applyDefaults() {
	if c.Model.Name == "" {
		c.Model.Name = "openai/gpt-4o-mini"
	}
	if c.Model.BaseURL == "" {
		c.Model.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Model.MaxTokens == 0 {
		c.Model.MaxTokens = 2000
	}
	if c.Router.MaxStagesPerTurn == 0 {
		c.Router.MaxStagesPerTurn = 2
	}
	if c.Conversation.MaxTurns == 0 {
		c.Conversation.MaxTurns = 10
	}
	if c.Conversation.TTLSeconds == 0 {
		c.Conversation.TTLSeconds = 2400
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Storage.TTLSeconds == 0 {
		c.Storage.TTLSeconds = 2400
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}
