package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"floatchat-be/pkg/embedding"
	"floatchat-be/pkg/tabular"
	"floatchat-be/pkg/utils"
	"floatchat-be/pkg/vectorstore"
)

// maxDocumentChars caps a single row document before embedding. Oversized
// spreadsheet rows are clipped rather than split so one row stays one
// document.
const maxDocumentChars = 8000

// embedBatchSize bounds how many documents are added per store round trip.
const embedBatchSize = 50

// Rebuilder turns the rows of the stored tabular dataset into embedded
// documents in the vector collection. It implements embedding.Rebuilder so
// the resolver can recreate the collection after a backend demotion.
type Rebuilder struct {
	source         tabular.Store
	vectors        vectorstore.Store
	collectionName string
	preferredTable string
	logger         *log.Logger
}

func NewRebuilder(
	source tabular.Store,
	vectors vectorstore.Store,
	collectionName string,
	preferredTable string,
	logger *log.Logger,
) *Rebuilder {
	return &Rebuilder{
		source:         source,
		vectors:        vectors,
		collectionName: collectionName,
		preferredTable: preferredTable,
		logger:         logger,
	}
}

var _ embedding.Rebuilder = &Rebuilder{}

// Rebuild recreates the collection from scratch with the given provider's
// vectors. The caller is expected to have deleted any stale collection; a
// leftover one with the same name is replaced.
func (r *Rebuilder) Rebuild(ctx context.Context, provider embedding.EmbeddingProvider) error {
	if r.source == nil {
		return fmt.Errorf("source datasource not configured")
	}

	table, err := r.pickTable(ctx)
	if err != nil {
		return err
	}

	rows, err := r.source.Query(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return fmt.Errorf("read source table %s: %w", table, err)
	}
	if rows.Empty() {
		return fmt.Errorf("source table %s is empty", table)
	}

	docs := buildRowDocuments(rows)
	r.logger.Printf("[INGEST] Rebuilding collection %s from table %s (%d documents, dimension %d)",
		r.collectionName, table, len(docs), provider.Dimension())

	// Stale collections with the old dimension must not survive a rebuild.
	if err := r.vectors.DeleteCollection(ctx, r.collectionName); err != nil && !errors.Is(err, vectorstore.ErrCollectionNotFound) {
		r.logger.Printf("[INGEST] Could not delete stale collection %s: %v", r.collectionName, err)
	}

	collection, err := r.vectors.CreateCollection(ctx, r.collectionName, provider.Dimension(), map[string]string{
		"embedding_dimension": strconv.Itoa(provider.Dimension()),
		"source_table":        table,
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.collectionName, err)
	}

	for start := 0; start < len(docs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		embeddings := make([][]float32, len(batch))
		for i, doc := range batch {
			res, err := provider.Generate(doc.Content, "RETRIEVAL_DOCUMENT")
			if err != nil {
				return fmt.Errorf("embed document %s: %w", doc.ID, err)
			}
			embeddings[i] = res.Embedding.Values
		}

		if err := collection.Add(ctx, batch, embeddings); err != nil {
			return fmt.Errorf("store batch starting at %d: %w", start, err)
		}
	}

	count, err := collection.Count(ctx)
	if err != nil {
		return fmt.Errorf("verify collection %s: %w", r.collectionName, err)
	}
	if count != int64(len(docs)) {
		return fmt.Errorf("collection %s holds %d documents, expected %d", r.collectionName, count, len(docs))
	}

	r.logger.Printf("[INGEST] Collection %s rebuilt with %d documents", r.collectionName, count)
	return nil
}

func (r *Rebuilder) pickTable(ctx context.Context) (string, error) {
	tables, err := r.source.ListTables(ctx)
	if err != nil {
		return "", fmt.Errorf("list source tables: %w", err)
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("source database has no tables")
	}
	for _, t := range tables {
		if t == r.preferredTable {
			return t, nil
		}
	}
	return tables[0], nil
}

// buildRowDocuments renders each row as "column: value,\n" lines, one
// document per row.
func buildRowDocuments(rows *tabular.ResultSet) []vectorstore.Document {
	docs := make([]vectorstore.Document, 0, len(rows.Rows))
	for i, row := range rows.Rows {
		var sb strings.Builder
		for j, col := range rows.Columns {
			if j < len(row) {
				fmt.Fprintf(&sb, "%s: %v,\n", col, row[j])
			}
		}

		content := utils.TruncateText(sb.String(), maxDocumentChars)
		docs = append(docs, vectorstore.Document{
			ID:      uuid.New().String(),
			Content: content,
			Metadata: map[string]string{
				"row_index": strconv.Itoa(i),
			},
		})
	}
	return docs
}
