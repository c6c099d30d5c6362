package bootstrap

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/policygenius/backend-go/internal/config"
	"github.com/policygenius/backend-go/internal/knowledge"
	"github.com/policygenius/backend-go/internal/logger"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks []func() error
	queryService *knowledge.QueryService
}

// QueryService returns the document question answering service.
func (a *App) QueryService() *knowledge.QueryService {
	return a.queryService
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// SetGlobalApp sets the global app instance
func SetGlobalApp(app *App) {
	globalApp = app
}

// Init bootstraps configuration, logger and the query pipeline components
// required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}

	cfg := config.AppConfig
	app := &App{}

	embedder := knowledge.NewOpenAIEmbedder(cfg.AI.OpenAIAPIKey, cfg.AI.EmbeddingModel)
	if cfg.AI.OpenAIAPIKey == "" {
		logger.Warn("OpenAI API key not configured, using local embeddings and rule-based answers")
	}

	synthesizer := knowledge.NewGenerativeSynthesizer(
		cfg.AI.OpenAIAPIKey,
		cfg.AI.ChatModel,
		cfg.AI.MaxTokens,
		cfg.AI.Temperature,
		time.Duration(cfg.Knowledge.ChatTimeoutSeconds)*time.Second,
	)

	app.queryService = knowledge.NewQueryService(
		knowledge.NewFetcher(time.Duration(cfg.Knowledge.FetchTimeoutSeconds)*time.Second),
		knowledge.NewTextExtractor(),
		knowledge.NewChunker(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap),
		embedder,
		synthesizer,
		knowledge.NewDocumentCache(),
		cfg.Knowledge.TopK,
	)

	logger.Info("Query pipeline initialized",
		zap.String("embedding_model", cfg.AI.EmbeddingModel),
		zap.String("chat_model", cfg.AI.ChatModel),
		zap.Int("chunk_size", cfg.Knowledge.ChunkSize),
		zap.Int("top_k", cfg.Knowledge.TopK))

	SetGlobalApp(app)
	return app, nil
}

// Shutdown flushes/logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}

	// Flush logger buffers.
	logger.Sync()
}
