package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"floatchat-be/pkg/embedding"
	"floatchat-be/pkg/llm"
	"floatchat-be/pkg/vectorstore"
)

// ErrNoResults is returned when the search completes but finds nothing
// relevant.
var ErrNoResults = errors.New("no relevant results found")

// RAGResult contains the retrieved context for a semantic query.
type RAGResult struct {
	Reply     string
	Documents []vectorstore.Document
}

// RAGPipeline answers a question by embedding it and running a
// nearest-neighbor search over the ocean-data collection.
type RAGPipeline struct {
	resolver       *embedding.Resolver
	vectors        vectorstore.Store
	collectionName string
	topK           int
	logger         *log.Logger
}

func NewRAGPipeline(
	resolver *embedding.Resolver,
	vectors vectorstore.Store,
	collectionName string,
	topK int,
	logger *log.Logger,
) *RAGPipeline {
	return &RAGPipeline{
		resolver:       resolver,
		vectors:        vectors,
		collectionName: collectionName,
		topK:           topK,
		logger:         logger,
	}
}

// Execute embeds the query and searches the collection. A quota failure on
// the remote backend demotes to local embeddings and retries the search once;
// a dimension mismatch between the collection and the active backend rebuilds
// the collection, also bounded to a single retry.
func (p *RAGPipeline) Execute(ctx context.Context, query string) (*RAGResult, error) {
	vector, err := p.resolver.Embed(ctx, query)
	if err != nil {
		if !llm.IsQuotaError(err) {
			return nil, err
		}
		// The resolver has already demoted to local and armed the cooldown.
		p.logger.Printf("[RAG] Retrying with local embeddings after quota failure")
		vector, err = p.resolver.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("local embedding retry: %w", err)
		}
	}

	docs, err := p.search(ctx, vector)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("collection %s: %w", p.collectionName, ErrNoResults)
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Result %d: %s", i+1, doc.Content)
	}

	return &RAGResult{Reply: sb.String(), Documents: docs}, nil
}

func (p *RAGPipeline) search(ctx context.Context, vector []float32) ([]vectorstore.Document, error) {
	retried := false

	for {
		collection, err := p.vectors.GetCollection(ctx, p.collectionName)
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			// Missing means "needs rebuild", not a hard failure.
			if retried {
				return nil, fmt.Errorf("collection %s still missing after rebuild", p.collectionName)
			}
			retried = true
			if err := p.resolver.ReconcileDimension(ctx, 0, len(vector)); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get collection %s: %w", p.collectionName, err)
		}

		if collection.Dimension() != len(vector) {
			if retried {
				return nil, fmt.Errorf("collection %s dimension %d still differs from backend dimension %d",
					p.collectionName, collection.Dimension(), len(vector))
			}
			retried = true
			if err := p.resolver.ReconcileDimension(ctx, collection.Dimension(), len(vector)); err != nil {
				return nil, err
			}
			continue
		}

		return collection.Query(ctx, vector, p.topK)
	}
}
