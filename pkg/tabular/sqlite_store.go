package tabular

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SQLiteStore implements Store over a sqlite file holding imported ocean
// data (one table per imported CSV/XLSX file).
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = &SQLiteStore{}

func (s *SQLiteStore) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := s.db.WithContext(ctx).
		Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name").
		Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (s *SQLiteStore) DescribeColumns(ctx context.Context, table string) ([]Column, error) {
	type pragmaRow struct {
		Name string
		Type string
	}
	var rows []pragmaRow
	err := s.db.WithContext(ctx).
		Raw(fmt.Sprintf("PRAGMA table_info(%q)", table)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("describe columns of %s: %w", table, err)
	}

	cols := make([]Column, len(rows))
	for i, r := range rows {
		cols[i] = Column{Name: r.Name, Type: r.Type}
	}
	return cols, nil
}

func (s *SQLiteStore) Query(ctx context.Context, query string) (*ResultSet, error) {
	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanTargets := make([]interface{}, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		// sqlite hands text back as []byte; keep rows printable
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}
