package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Knowledge KnowledgeConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type AIConfig struct {
	// OpenAIAPIKey 为空时：检索降级到本地确定性向量，回答降级到规则引擎
	OpenAIAPIKey   string
	ChatModel      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float64
}

type KnowledgeConfig struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	// FetchTimeoutSeconds 文档下载超时（秒）
	FetchTimeoutSeconds int
	// ChatTimeoutSeconds 生成式回答超时（秒），超时后降级规则引擎
	ChatTimeoutSeconds int
}

var AppConfig *Config

func LoadConfig() error {
	// 设置默认值
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")

	// AI配置默认值
	viper.SetDefault("ai.chat_model", "gpt-4o-mini")
	viper.SetDefault("ai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("ai.max_tokens", 512)
	viper.SetDefault("ai.temperature", 0.2)

	// 检索管线默认值
	viper.SetDefault("knowledge.chunk_size", 1000)
	viper.SetDefault("knowledge.chunk_overlap", 200)
	viper.SetDefault("knowledge.top_k", 5)
	viper.SetDefault("knowledge.fetch_timeout_seconds", 30)
	viper.SetDefault("knowledge.chat_timeout_seconds", 45)

	// 读取环境变量
	viper.SetEnvPrefix("POLICYGENIUS")
	viper.AutomaticEnv()

	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if env := os.Getenv("ENV"); env != "" {
		viper.Set("server.env", env)
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		viper.Set("ai.openai_api_key", apiKey)
	}
	if model := os.Getenv("OPENAI_CHAT_MODEL"); model != "" {
		viper.Set("ai.chat_model", model)
	}
	if model := os.Getenv("OPENAI_EMBEDDING_MODEL"); model != "" {
		viper.Set("ai.embedding_model", model)
	}

	config := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		AI: AIConfig{
			OpenAIAPIKey:   viper.GetString("ai.openai_api_key"),
			ChatModel:      viper.GetString("ai.chat_model"),
			EmbeddingModel: viper.GetString("ai.embedding_model"),
			MaxTokens:      viper.GetInt("ai.max_tokens"),
			Temperature:    viper.GetFloat64("ai.temperature"),
		},
		Knowledge: KnowledgeConfig{
			ChunkSize:           viper.GetInt("knowledge.chunk_size"),
			ChunkOverlap:        viper.GetInt("knowledge.chunk_overlap"),
			TopK:                viper.GetInt("knowledge.top_k"),
			FetchTimeoutSeconds: viper.GetInt("knowledge.fetch_timeout_seconds"),
			ChatTimeoutSeconds:  viper.GetInt("knowledge.chat_timeout_seconds"),
		},
	}

	AppConfig = config
	return nil
}
