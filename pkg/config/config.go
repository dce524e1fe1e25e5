package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		BaseURL        string  `yaml:"base_url"`
		EmbedBatchSize int     `yaml:"embed_batch_size"`
		EmbedRateRPS   float64 `yaml:"embed_rate_rps"`
	} `yaml:"llm"`

	Corpus struct {
		Location string `yaml:"location"`
	} `yaml:"corpus"`

	Chunker struct {
		MaxLength int `yaml:"max_length"`
		Overlap   int `yaml:"overlap"`
	} `yaml:"chunker"`

	Index struct {
		Backend     string `yaml:"backend"`
		Store       string `yaml:"store"`
		DatabaseURL string `yaml:"database_url"`
		TableName   string `yaml:"table_name"`
		VectorDim   int    `yaml:"vector_dim"`
	} `yaml:"index"`

	Retrieval struct {
		TopK int `yaml:"top_k"`
	} `yaml:"retrieval"`

	Build struct {
		Workers     int `yaml:"workers"`
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"build"`

	History struct {
		Location string `yaml:"location"`
	} `yaml:"history"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/murli-chat/config.yaml"),
			"/etc/murli-chat/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "gpt-3.5-turbo-16k"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "text-embedding-ada-002"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.EmbedBatchSize == 0 {
		config.LLM.EmbedBatchSize = 25
	}
	if config.LLM.EmbedRateRPS == 0 {
		config.LLM.EmbedRateRPS = 2.0
	}

	if config.Chunker.MaxLength == 0 {
		config.Chunker.MaxLength = 4000
	}
	if config.Chunker.Overlap == 0 {
		config.Chunker.Overlap = 100
	}

	if config.Index.Backend == "" {
		config.Index.Backend = "sqlite"
	}
	if config.Index.Store == "" {
		config.Index.Store = "index_store"
	}
	if config.Index.TableName == "" {
		config.Index.TableName = "murli_segments"
	}
	if config.Index.VectorDim == 0 {
		config.Index.VectorDim = 1536
	}

	if config.Retrieval.TopK == 0 {
		config.Retrieval.TopK = 5
	}

	if config.Build.Workers == 0 {
		config.Build.Workers = 4
	}
	if config.Build.MaxAttempts == 0 {
		config.Build.MaxAttempts = 5
	}

	if config.History.Location == "" {
		config.History.Location = "."
	}
}

func mergeWithEnv(config *Config) {
	if docLocation := os.Getenv("DOC_LOCATION"); docLocation != "" {
		config.Corpus.Location = docLocation
	}
	if store := os.Getenv("INDEX_STORE"); store != "" {
		config.Index.Store = store
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Index.DatabaseURL = dbURL
	}
	if histLocation := os.Getenv("CHAT_HISTORY_LOCATION"); histLocation != "" {
		config.History.Location = histLocation
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
}
