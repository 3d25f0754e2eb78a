package heuristic

import (
	"context"
	"fmt"
	"strings"

	"floatchat-be/pkg/tabular"
)

// Keywords drives the column and intent classification. Keeping these as
// data lets deployments extend the vocabulary without code changes.
type Keywords struct {
	DepthColumns       []string
	TemperatureColumns []string
	RangeIntent        []string
}

// DefaultKeywords matches the ocean-measurement vocabulary the stored
// datasets use.
func DefaultKeywords() Keywords {
	return Keywords{
		DepthColumns:       []string{"depth", "dep_m", "dep"},
		TemperatureColumns: []string{"temperature", "temp", "sst"},
		RangeIntent:        []string{"range", "min", "max", "temperature", "temp"},
	}
}

// Answer is the outcome of a heuristic lookup. Store failures are reported
// through Success/Err rather than a returned error so callers always get a
// presentable response.
type Answer struct {
	Text    string
	Success bool
	Err     string
	Table   string
}

// Responder answers simple analytic questions (min/max, table summary)
// directly against the relational store. It never calls a language model, so
// it stays available when the provider is rate limited.
type Responder struct {
	store          tabular.Store
	keywords       Keywords
	preferredTable string
}

func NewResponder(store tabular.Store, keywords Keywords, preferredTable string) *Responder {
	return &Responder{
		store:          store,
		keywords:       keywords,
		preferredTable: preferredTable,
	}
}

// Respond runs the heuristic pipeline for a question.
func (r *Responder) Respond(ctx context.Context, question string) Answer {
	if r.store == nil {
		return Answer{
			Text:    "The database is currently unavailable.",
			Success: false,
			Err:     "datasource not configured",
		}
	}

	// 1. Enumerate tables.
	tables, err := r.store.ListTables(ctx)
	if err != nil {
		return storeFailure(err)
	}
	if len(tables) == 0 {
		return Answer{
			Text:    "The database is empty. Please load a dataset first.",
			Success: true,
		}
	}

	// 2. Pick the target table, honoring the preferred name when present.
	table := tables[0]
	for _, t := range tables {
		if t == r.preferredTable {
			table = t
			break
		}
	}

	// 3. Classify columns.
	columns, err := r.store.DescribeColumns(ctx, table)
	if err != nil {
		return storeFailure(err)
	}

	depthColumn := matchColumn(columns, r.keywords.DepthColumns)
	tempColumn := matchColumn(columns, r.keywords.TemperatureColumns)

	// 4. Min/max answer when the question asks about a range and a
	// temperature-like column exists. A column of NULLs has no range to
	// report, so that case falls through to the summary.
	if tempColumn != "" && containsAny(question, r.keywords.RangeIntent) {
		answer, ok, err := r.minMaxAnswer(ctx, table, tempColumn)
		if err != nil {
			return storeFailure(err)
		}
		if ok {
			answer.Table = table
			return answer
		}
	}

	// 5. Generic summary otherwise.
	answer, err := r.summaryAnswer(ctx, table, columns, depthColumn, tempColumn)
	if err != nil {
		return storeFailure(err)
	}
	answer.Table = table
	return answer
}

func (r *Responder) minMaxAnswer(ctx context.Context, table, column string) (Answer, bool, error) {
	query := fmt.Sprintf("SELECT MIN(%s) AS min_value, MAX(%s) AS max_value FROM %s", column, column, table)
	result, err := r.store.Query(ctx, query)
	if err != nil {
		return Answer{}, false, err
	}
	if result.Empty() || len(result.Rows[0]) < 2 {
		return Answer{}, false, nil
	}

	row := result.Rows[0]
	if row[0] == nil || row[1] == nil {
		return Answer{}, false, nil
	}

	text := fmt.Sprintf(
		"The minimum temperature recorded is %v degrees and the maximum temperature recorded is %v degrees.",
		row[0], row[1],
	)
	return Answer{Text: text, Success: true}, true, nil
}

func (r *Responder) summaryAnswer(ctx context.Context, table string, columns []tabular.Column, depthColumn, tempColumn string) (Answer, error) {
	countResult, err := r.store.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	if err != nil {
		return Answer{}, err
	}
	rowCount := interface{}(0)
	if !countResult.Empty() {
		rowCount = countResult.Rows[0][0]
	}

	sample, err := r.store.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 5", table))
	if err != nil {
		return Answer{}, err
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Table %s has %v rows with columns: %s.", table, rowCount, strings.Join(names, ", "))
	if depthColumn != "" {
		fmt.Fprintf(&sb, " Depth readings are in column %s.", depthColumn)
	}
	if tempColumn != "" {
		fmt.Fprintf(&sb, " Temperature readings are in column %s.", tempColumn)
	}
	if !sample.Empty() {
		sb.WriteString(" First rows:")
		for _, row := range sample.Rows {
			parts := make([]string, len(row))
			for i, v := range row {
				parts[i] = fmt.Sprintf("%v", v)
			}
			sb.WriteString("\n")
			sb.WriteString(strings.Join(parts, ", "))
		}
	}

	return Answer{Text: sb.String(), Success: true}, nil
}

func storeFailure(err error) Answer {
	return Answer{
		Text:    "I could not read the database to answer that.",
		Success: false,
		Err:     err.Error(),
	}
}

func matchColumn(columns []tabular.Column, keywords []string) string {
	for _, c := range columns {
		lower := strings.ToLower(c.Name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return c.Name
			}
		}
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
