package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"port"`
	DevMode bool   `mapstructure:"dev_mode"`

	UploadDir    string        `mapstructure:"upload_dir"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
	StageTimeout time.Duration `mapstructure:"stage_timeout"`

	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	TopK         int `mapstructure:"top_k"`

	// openai covers any OpenAI-compatible endpoint (a local server works
	// too), gemini switches the completion side only
	CompletionProvider string   `mapstructure:"completion_provider"`
	AIEndpoint         string   `mapstructure:"ai_endpoint"`
	Model              string   `mapstructure:"model"`
	EmbeddingModel     string   `mapstructure:"embedding_model"`
	Temperature        float32  `mapstructure:"temperature"`
	MaxTokens          int      `mapstructure:"max_tokens"`
	OpenAIAPIKey       string   `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys      []string `mapstructure:"gemini_api_keys"`

	EmbeddingProvider string `mapstructure:"embedding_provider"` // openai or ollama
	OllamaURL         string `mapstructure:"ollama_url"`

	VectorStore         string              `mapstructure:"vector_store"` // weaviate or chromem
	ChromemPath         string              `mapstructure:"chromem_path"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`

	MongoURI string `mapstructure:"MONGODB_URI"`
}

type WeaviateStoreConfig struct {
	Host      string `mapstructure:"host"`
	APIKey    string `mapstructure:"WEAVIATE_APIKEY"`
	ClassName string `mapstructure:"class_name"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("port", "8080")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_mb", 20)
	v.SetDefault("stage_timeout", time.Minute)
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 100)
	v.SetDefault("top_k", 5)
	v.SetDefault("completion_provider", "openai")
	v.SetDefault("embedding_provider", "openai")
	v.SetDefault("vector_store", "weaviate")
	v.SetDefault("chromem_path", "chromemdb")
	v.SetDefault("temperature", 0.2)
	v.SetDefault("max_tokens", 1024)

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables for secrets
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("weaviate_store_config.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")
	v.BindEnv("gemini_api_keys", "GEMINI_API_KEYS")
	v.BindEnv("MONGODB_URI")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
