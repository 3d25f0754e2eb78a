// Command prepare rebuilds the vector collection from the stored tabular
// dataset in one shot, using the configured embedding provider. Run it after
// loading new CSV/XLSX data.
package main

import (
	"context"
	"log"
	"os"

	"floatchat-be/internal/config"
	"floatchat-be/internal/ingest"
	"floatchat-be/pkg/database"
	"floatchat-be/pkg/embedding"
	"floatchat-be/pkg/tabular"
	"floatchat-be/pkg/vectorstore"
)

const preferredTable = "ocean_1"

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	vectorDB, err := database.NewGormDBFromDSN(cfg.Database.VectorDSN)
	if err != nil {
		log.Fatalf("Unable to connect to vector DB: %v", err)
	}

	vectors := vectorstore.NewPgVectorStore(vectorDB)
	if err := vectors.Migrate(); err != nil {
		log.Fatalf("Vector store migration failed: %v", err)
	}

	sqliteDB, err := database.NewSqliteDB(cfg.Database.StoredTabularPath)
	if err != nil {
		log.Fatalf("Unable to open %s: %v", cfg.Database.StoredTabularPath, err)
	}
	if sqliteDB == nil {
		log.Fatalf("Source database %s not found", cfg.Database.StoredTabularPath)
	}
	source := tabular.NewSQLiteStore(sqliteDB)

	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
	} else {
		provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	logger.Printf("Using embedding provider %s (dimension %d)", cfg.Ai.EmbeddingProvider, provider.Dimension())

	rebuilder := ingest.NewRebuilder(source, vectors, cfg.Rag.CollectionName, preferredTable, logger)
	if err := rebuilder.Rebuild(context.Background(), provider); err != nil {
		log.Fatalf("Rebuild failed: %v", err)
	}

	logger.Printf("Collection %s ready", cfg.Rag.CollectionName)
}
