package vectorstore

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned when the named collection does not
// exist. Callers treat this as "needs rebuild", not as a hard failure.
var ErrCollectionNotFound = errors.New("vector collection not found")

// Document is one embedded chunk in a collection.
type Document struct {
	ID       string
	Content  string
	Score    float32 // similarity, only populated on query results
	Metadata map[string]string
}

// Collection is an opaque handle to a named set of embedded documents with a
// fixed embedding dimension.
type Collection interface {
	Name() string
	Dimension() int
	Metadata() map[string]string

	Add(ctx context.Context, docs []Document, embeddings [][]float32) error
	Query(ctx context.Context, embedding []float32, topK int) ([]Document, error)
	Count(ctx context.Context) (int64, error)
}

// Store manages collections. Backed by Postgres/pgvector in production.
type Store interface {
	CreateCollection(ctx context.Context, name string, dimension int, metadata map[string]string) (Collection, error)
	GetCollection(ctx context.Context, name string) (Collection, error)
	DeleteCollection(ctx context.Context, name string) error
}
