package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"floatchat-be/pkg/llm"
	"floatchat-be/pkg/resilience"
	"floatchat-be/pkg/vectorstore"
)

// Backend identifies which embedding backend is currently producing vectors.
type Backend string

const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

// Rebuilder recreates the vector collection from the source tabular data
// using the given provider. Implemented by internal/ingest.
type Rebuilder interface {
	Rebuild(ctx context.Context, provider EmbeddingProvider) error
}

// Resolver supplies embedding vectors and keeps the vector collection's
// declared dimension consistent with the backend actually producing vectors.
//
// Once demoted to the local backend it is never automatically promoted back;
// operators restart the process to return to the remote backend.
type Resolver struct {
	remote   EmbeddingProvider
	local    EmbeddingProvider
	cooldown *resilience.Cooldown
	vectors  vectorstore.Store
	rebuild  Rebuilder

	collectionName string
	cooldownWindow time.Duration
	logger         *log.Logger

	// mu guards active/dimension and serializes delete-then-rebuild so two
	// concurrent demotions cannot race on the same collection.
	mu        sync.Mutex
	active    Backend
	dimension int
}

func NewResolver(
	remote EmbeddingProvider,
	local EmbeddingProvider,
	cooldown *resilience.Cooldown,
	vectors vectorstore.Store,
	rebuild Rebuilder,
	collectionName string,
	cooldownWindow time.Duration,
	logger *log.Logger,
) *Resolver {
	return &Resolver{
		remote:         remote,
		local:          local,
		cooldown:       cooldown,
		vectors:        vectors,
		rebuild:        rebuild,
		collectionName: collectionName,
		cooldownWindow: cooldownWindow,
		logger:         logger,
		active:         BackendRemote,
		dimension:      remote.Dimension(),
	}
}

// Active returns the backend currently producing vectors.
func (r *Resolver) Active() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Dimension returns the output width of the active backend.
func (r *Resolver) Dimension() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dimension
}

// ActiveProvider returns the provider behind the active backend.
func (r *Resolver) ActiveProvider() EmbeddingProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.provider()
}

func (r *Resolver) provider() EmbeddingProvider {
	if r.active == BackendLocal {
		return r.local
	}
	return r.remote
}

// Embed generates an embedding for text with the active backend.
//
// While the provider cooldown is running the remote backend is not attempted:
// the resolver demotes to local first, so a request inside the cooldown
// window never reaches the remote API. A remote quota failure (429 or
// "quota" in the error text) activates the cooldown, demotes to local and
// returns the error so the caller can retry once against the local backend.
func (r *Resolver) Embed(ctx context.Context, text string) ([]float32, error) {
	if r.Active() == BackendRemote && !r.cooldown.IsAvailable() {
		r.logger.Printf("[RESOLVER] Provider cooling down, demoting to local embeddings")
		if err := r.DemoteToLocal(ctx); err != nil {
			return nil, fmt.Errorf("demote to local: %w", err)
		}
	}

	provider := r.ActiveProvider()
	res, err := provider.Generate(text, "RETRIEVAL_QUERY")
	if err != nil {
		if r.Active() == BackendRemote && llm.IsQuotaError(err) {
			r.logger.Printf("[RESOLVER] Remote embedding quota exhausted: %v", err)
			r.cooldown.Activate(r.cooldownWindow)
			if derr := r.DemoteToLocal(ctx); derr != nil {
				r.logger.Printf("[RESOLVER] Demotion failed: %v", derr)
			}
		}
		return nil, err
	}

	return res.Embedding.Values, nil
}

// DemoteToLocal switches the active backend to local and rebuilds the vector
// collection with local vectors. Idempotent: when already local it is a
// no-op and triggers no rebuild.
func (r *Resolver) DemoteToLocal(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == BackendLocal {
		return nil
	}

	r.active = BackendLocal
	r.dimension = r.local.Dimension()
	r.logger.Printf("[RESOLVER] Demoted embedding backend to local (dimension %d)", r.dimension)

	return r.reconcileLocked(ctx)
}

// ReconcileDimension rebuilds the collection when its declared dimension does
// not match the vectors the active backend produces. Destructive and
// non-transactional: a crash mid-rebuild leaves the collection absent, which
// callers must treat as "needs rebuild".
func (r *Resolver) ReconcileDimension(ctx context.Context, observed, expected int) error {
	if observed == expected {
		return nil
	}

	r.logger.Printf("[RESOLVER] Embedding dimension mismatch: expected %d, got %d. Rebuilding collection", expected, observed)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconcileLocked(ctx)
}

func (r *Resolver) reconcileLocked(ctx context.Context) error {
	err := r.vectors.DeleteCollection(ctx, r.collectionName)
	if err != nil && !errors.Is(err, vectorstore.ErrCollectionNotFound) {
		r.logger.Printf("[RESOLVER] Failed to delete collection %s: %v", r.collectionName, err)
	}

	if err := r.rebuild.Rebuild(ctx, r.provider()); err != nil {
		return fmt.Errorf("rebuild collection %s: %w", r.collectionName, err)
	}
	return nil
}
