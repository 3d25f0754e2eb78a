package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"floatchat-be/pkg/llm"
	"floatchat-be/pkg/tabular"
)

// SQLResult is the outcome of a chain or agent run, including the rows the
// generated query produced so the caller can attach a visualization.
type SQLResult struct {
	Reply string
	Query string
	Rows  *tabular.ResultSet
	Steps int
}

// SQLChainPipeline answers a question in three phases: generate a SQL query
// from the schema, execute it read-only, then synthesize a natural-language
// answer from the rows.
type SQLChainPipeline struct {
	provider llm.LLMProvider
	store    tabular.Store
	logger   *log.Logger
}

func NewSQLChainPipeline(provider llm.LLMProvider, store tabular.Store, logger *log.Logger) *SQLChainPipeline {
	return &SQLChainPipeline{
		provider: provider,
		store:    store,
		logger:   logger,
	}
}

const sqlGenerationPrompt = `You are a SQL expert answering questions about oceanographic data.
Given the schema below, write a single SQLite SELECT statement that answers the question.
Reply with only the SQL statement, no markdown and no explanation.

Schema:
%s

Question: %s`

const answerSynthesisPrompt = `You are a helpful oceanographic data assistant.
Answer the user's question using only the query results below. Be concise.

Question: %s
SQL executed: %s
Results:
%s`

// Execute runs the full chain. Any error is returned to the caller so the
// router can fall back to the heuristic responder.
func (p *SQLChainPipeline) Execute(ctx context.Context, question string) (*SQLResult, error) {
	if p.store == nil {
		return nil, fmt.Errorf("datasource not configured")
	}

	schema, err := p.describeSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe schema: %w", err)
	}

	// 1. Generate the query.
	raw, err := p.provider.Generate(ctx, fmt.Sprintf(sqlGenerationPrompt, schema, question), llm.WithTemperature(0))
	if err != nil {
		return nil, err
	}
	query := CleanSQL(raw)
	if query == "" {
		return nil, fmt.Errorf("model returned no usable query")
	}
	p.logger.Printf("[SQLCHAIN] Generated query: %s", query)

	// 2. Execute it.
	rows, err := p.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute generated query: %w", err)
	}

	// 3. Synthesize the answer.
	reply, err := p.provider.Generate(ctx, fmt.Sprintf(answerSynthesisPrompt, question, query, formatRows(rows, 20)))
	if err != nil {
		return nil, err
	}

	return &SQLResult{
		Reply: strings.TrimSpace(reply),
		Query: query,
		Rows:  rows,
		Steps: 1,
	}, nil
}

func (p *SQLChainPipeline) describeSchema(ctx context.Context) (string, error) {
	tables, err := p.store.ListTables(ctx)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("database has no tables")
	}

	var sb strings.Builder
	for _, table := range tables {
		columns, err := p.store.DescribeColumns(ctx, table)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
		}
		fmt.Fprintf(&sb, "TABLE %s (%s)\n", table, strings.Join(parts, ", "))
	}
	return sb.String(), nil
}

// CleanSQL strips markdown fences and surrounding noise from a model reply,
// keeping only the statement itself.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```SQL")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

func formatRows(rs *tabular.ResultSet, limit int) string {
	if rs.Empty() {
		return "(no rows)"
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(rs.Columns, " | "))
	for i, row := range rs.Rows {
		if i >= limit {
			fmt.Fprintf(&sb, "\n... (%d more rows)", len(rs.Rows)-limit)
			break
		}
		parts := make([]string, len(row))
		for j, v := range row {
			parts[j] = fmt.Sprintf("%v", v)
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(parts, " | "))
	}
	return sb.String()
}
