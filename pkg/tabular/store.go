package tabular

import (
	"context"
)

// Column describes one column of a table.
type Column struct {
	Name string
	Type string
}

// ResultSet holds query results with column order preserved.
type ResultSet struct {
	Columns []string
	Rows    [][]interface{}
}

// Empty reports whether the result set has no rows.
func (rs *ResultSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

// Maps renders each row as a field-name -> value mapping.
func (rs *ResultSet) Maps() []map[string]interface{} {
	out := make([]map[string]interface{}, len(rs.Rows))
	for i, row := range rs.Rows {
		m := make(map[string]interface{}, len(rs.Columns))
		for j, col := range rs.Columns {
			if j < len(row) {
				m[col] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// Store is the read-only contract the chat engine has with a relational
// store of tabular data.
type Store interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeColumns(ctx context.Context, table string) ([]Column, error)
	Query(ctx context.Context, sql string) (*ResultSet, error)
}
