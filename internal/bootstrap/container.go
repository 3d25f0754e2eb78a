package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"floatchat-be/internal/config"
	"floatchat-be/internal/controller"
	"floatchat-be/internal/ingest"
	"floatchat-be/internal/pkg/logger"
	"floatchat-be/internal/repository/memory"
	"floatchat-be/internal/service"
	"floatchat-be/pkg/ai/heuristic"
	"floatchat-be/pkg/ai/pipeline"
	"floatchat-be/pkg/ai/router"
	"floatchat-be/pkg/database"
	"floatchat-be/pkg/embedding"
	llmfactory "floatchat-be/pkg/llm/factory"
	"floatchat-be/pkg/resilience"
	"floatchat-be/pkg/tabular"
	"floatchat-be/pkg/vectorstore"
	"floatchat-be/pkg/visualization"
)

// preferredTable is the dataset table the heuristic responder and the vector
// rebuild prefer when the store holds more than one.
const preferredTable = "ocean_1"

type Container struct {
	ChatController controller.IChatController

	// Background services, run by main.
	Consumer *ingest.Consumer

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config, vectorDB *gorm.DB) *Container {
	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	stdLogger := log.New(os.Stdout, "", log.LstdFlags)

	// 1. Datasources. A missing sqlite file leaves the store nil and the
	// branch degrades to its "datasource unavailable" response.
	storedSQL := openTabular(cfg.Database.StoredSQLPath, stdLogger)
	uploadedSQL := openTabular(cfg.Database.UploadedSQLPath, stdLogger)
	storedTabular := openTabular(cfg.Database.StoredTabularPath, stdLogger)

	vectors := vectorstore.NewPgVectorStore(vectorDB)
	if err := vectors.Migrate(); err != nil {
		log.Fatalf("vector store migration failed: %v", err)
	}

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// 3. Providers
	remoteEmbedder := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	localEmbedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)

	llmProvider, err := llmfactory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, cfg.Keys.GoogleGemini)
	if err != nil {
		// Without a provider the SQL chat types run on their heuristic
		// fallback only.
		log.Printf("[WARN] LLM provider unavailable: %v", err)
		llmProvider = nil
	} else {
		log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	}

	// 4. Resilience: one shared provider cooldown, a resolver that demotes
	// remote embeddings to the local model on quota failures.
	cooldown := resilience.NewCooldown()

	rebuilder := ingest.NewRebuilder(storedTabular, vectors, cfg.Rag.CollectionName, preferredTable, stdLogger)
	resolver := embedding.NewResolver(
		remoteEmbedder,
		localEmbedder,
		cooldown,
		vectors,
		rebuilder,
		cfg.Rag.CollectionName,
		time.Duration(cfg.Ai.RAGCooldownMinutes)*time.Minute,
		stdLogger,
	)
	if cfg.Ai.EmbeddingProvider == "ollama" {
		// Deployments without a Gemini key start on the local backend.
		if err := resolver.DemoteToLocal(context.Background()); err != nil {
			log.Printf("[WARN] Could not start on local embeddings: %v", err)
		}
	}

	// 5. Strategies
	keywords := heuristic.DefaultKeywords()
	var renderer visualization.Service
	if cfg.Rag.RendererURL != "" {
		renderer = visualization.NewHTTPRenderer(cfg.Rag.RendererURL)
	}

	ragPipeline := pipeline.NewRAGPipeline(resolver, vectors, cfg.Rag.CollectionName, cfg.Rag.TopK, stdLogger)

	var storedPrimary, uploadedPrimary, storedTabularPrimary router.SQLPipeline
	if llmProvider != nil {
		storedPrimary = pipeline.NewSQLChainPipeline(llmProvider, storedSQL, stdLogger)
		uploadedPrimary = pipeline.NewSQLAgentPipeline(llmProvider, uploadedSQL, stdLogger)
		storedTabularPrimary = pipeline.NewSQLAgentPipeline(llmProvider, storedTabular, stdLogger)
	}

	chatRouter := router.NewRouter(
		cooldown,
		time.Duration(cfg.Ai.SQLCooldownMinutes)*time.Minute,
		router.Branch{
			Primary:  storedPrimary,
			Fallback: heuristic.NewResponder(storedSQL, keywords, preferredTable),
			Store:    storedSQL,
		},
		router.Branch{
			Primary:  uploadedPrimary,
			Fallback: heuristic.NewResponder(uploadedSQL, keywords, preferredTable),
			Store:    uploadedSQL,
		},
		router.Branch{
			Primary:  storedTabularPrimary,
			Fallback: heuristic.NewResponder(storedTabular, keywords, preferredTable),
			Store:    storedTabular,
		},
		ragPipeline,
		storedTabular,
		renderer,
		stdLogger,
	)

	// 6. Services and controllers
	sessions := memory.NewSessionRepository()
	publisher := ingest.NewPublisher(pubSub, cfg.Keys.RebuildTopic)
	consumer := ingest.NewConsumer(pubSub, cfg.Keys.RebuildTopic, rebuilder, resolver, stdLogger)

	chatService := service.NewChatService(chatRouter, sessions, publisher, appLogger)

	return &Container{
		ChatController: controller.NewChatController(chatService),
		Consumer:       consumer,
		Logger:         appLogger,
	}
}

// openTabular opens a sqlite dataset, returning a nil store when the file
// does not exist.
func openTabular(path string, logger *log.Logger) tabular.Store {
	db, err := database.NewSqliteDB(path)
	if err != nil {
		logger.Printf("[WARN] Could not open sqlite database %s: %v", path, err)
		return nil
	}
	if db == nil {
		logger.Printf("[WARN] SQL database %s not found; its chat type will be unavailable", path)
		return nil
	}
	return tabular.NewSQLiteStore(db)
}
