package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gorm models

type collectionModel struct {
	Id        uuid.UUID         `gorm:"column:id;primaryKey"`
	Name      string            `gorm:"column:name;uniqueIndex"`
	Dimension int               `gorm:"column:dimension"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata"`
}

func (collectionModel) TableName() string {
	return "collections"
}

type collectionDocumentModel struct {
	Id           uuid.UUID         `gorm:"column:id;primaryKey"`
	CollectionId uuid.UUID         `gorm:"column:collection_id;index"`
	Document     string            `gorm:"column:document"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata"`
	Embedding    pgvector.Vector   `gorm:"column:embedding;type:vector"`
}

func (collectionDocumentModel) TableName() string {
	return "collection_documents"
}

// PgVectorStore implements Store on Postgres with the pgvector extension.
type PgVectorStore struct {
	db *gorm.DB
}

func NewPgVectorStore(db *gorm.DB) *PgVectorStore {
	return &PgVectorStore{db: db}
}

var _ Store = &PgVectorStore{}

// Migrate creates the backing tables and the pgvector extension.
func (s *PgVectorStore) Migrate() error {
	if err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	return s.db.AutoMigrate(&collectionModel{}, &collectionDocumentModel{})
}

func (s *PgVectorStore) CreateCollection(ctx context.Context, name string, dimension int, metadata map[string]string) (Collection, error) {
	m := &collectionModel{
		Id:        uuid.New(),
		Name:      name,
		Dimension: dimension,
		Metadata:  toJSONMap(metadata),
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	return &pgCollection{db: s.db, model: m}, nil
}

func (s *PgVectorStore) GetCollection(ctx context.Context, name string) (Collection, error) {
	var m collectionModel
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &pgCollection{db: s.db, model: &m}, nil
}

func (s *PgVectorStore) DeleteCollection(ctx context.Context, name string) error {
	var m collectionModel
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", m.Id).Delete(&collectionDocumentModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
}

type pgCollection struct {
	db    *gorm.DB
	model *collectionModel
}

func (c *pgCollection) Name() string {
	return c.model.Name
}

func (c *pgCollection) Dimension() int {
	return c.model.Dimension
}

func (c *pgCollection) Metadata() map[string]string {
	return fromJSONMap(c.model.Metadata)
}

func (c *pgCollection) Add(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents (%d) and embeddings (%d) length mismatch", len(docs), len(embeddings))
	}

	models := make([]*collectionDocumentModel, len(docs))
	for i, doc := range docs {
		id := uuid.New()
		if doc.ID != "" {
			if parsed, err := uuid.Parse(doc.ID); err == nil {
				id = parsed
			}
		}
		models[i] = &collectionDocumentModel{
			Id:           id,
			CollectionId: c.model.Id,
			Document:     doc.Content,
			Metadata:     toJSONMap(doc.Metadata),
			Embedding:    pgvector.NewVector(embeddings[i]),
		}
	}

	return c.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (c *pgCollection) Query(ctx context.Context, embedding []float32, topK int) ([]Document, error) {
	type scoredRow struct {
		Id         uuid.UUID
		Document   string
		Similarity float64
	}

	var rows []scoredRow
	err := c.db.WithContext(ctx).
		Table("collection_documents").
		Select("id, document, 1 - (embedding <=> ?) AS similarity", pgvector.NewVector(embedding)).
		Where("collection_id = ?", c.model.Id).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "embedding <=> ?",
			Vars: []interface{}{pgvector.NewVector(embedding)},
		}}).
		Limit(topK).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector query on %s: %w", c.model.Name, err)
	}

	docs := make([]Document, len(rows))
	for i, row := range rows {
		docs[i] = Document{
			ID:      row.Id.String(),
			Content: row.Document,
			Score:   float32(row.Similarity),
		}
	}
	return docs, nil
}

func (c *pgCollection) Count(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&collectionDocumentModel{}).
		Where("collection_id = ?", c.model.Id).
		Count(&count).Error
	return count, err
}

func toJSONMap(m map[string]string) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func fromJSONMap(m datatypes.JSONMap) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
