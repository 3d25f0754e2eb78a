package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"floatchat-be/pkg/llm"
	"floatchat-be/pkg/tabular"
)

// maxAgentSteps bounds the query/observe loop so a confused model cannot
// spin forever against the store.
const maxAgentSteps = 4

// SQLAgentPipeline lets the model direct a short sequence of queries against
// an uploaded or stored tabular database, observing each result before
// deciding the next step or the final answer.
type SQLAgentPipeline struct {
	provider llm.LLMProvider
	store    tabular.Store
	logger   *log.Logger
}

func NewSQLAgentPipeline(provider llm.LLMProvider, store tabular.Store, logger *log.Logger) *SQLAgentPipeline {
	return &SQLAgentPipeline{
		provider: provider,
		store:    store,
		logger:   logger,
	}
}

const agentSystemPrompt = `You are a data analyst working against a SQLite database.
Schema:
%s

To inspect the data, reply with exactly:
QUERY: <a single SELECT statement>
When you can answer the user, reply with exactly:
ANSWER: <your answer>
Never use any other format.`

// Execute runs the bounded agent loop.
func (p *SQLAgentPipeline) Execute(ctx context.Context, question string) (*SQLResult, error) {
	if p.store == nil {
		return nil, fmt.Errorf("datasource not configured")
	}

	schema, err := p.describeSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe schema: %w", err)
	}

	history := []llm.Message{
		{Role: "system", Content: fmt.Sprintf(agentSystemPrompt, schema)},
		{Role: "user", Content: question},
	}

	var lastRows *tabular.ResultSet
	for step := 1; step <= maxAgentSteps; step++ {
		reply, err := p.provider.Chat(ctx, history, llm.WithTemperature(0))
		if err != nil {
			return nil, err
		}
		reply = strings.TrimSpace(reply)

		if answer, ok := cutDirective(reply, "ANSWER:"); ok {
			return &SQLResult{Reply: answer, Rows: lastRows, Steps: step}, nil
		}

		query, ok := cutDirective(reply, "QUERY:")
		if !ok {
			// Treat an unformatted reply as the final answer rather than
			// failing the whole request.
			return &SQLResult{Reply: reply, Rows: lastRows, Steps: step}, nil
		}

		query = CleanSQL(query)
		p.logger.Printf("[SQLAGENT] Step %d query: %s", step, query)

		rows, err := p.store.Query(ctx, query)
		observation := ""
		if err != nil {
			observation = fmt.Sprintf("Query failed: %v", err)
		} else {
			lastRows = rows
			observation = formatRows(rows, 20)
		}

		history = append(history,
			llm.Message{Role: "assistant", Content: reply},
			llm.Message{Role: "user", Content: "Observation:\n" + observation},
		)
	}

	return nil, fmt.Errorf("agent exceeded %d steps without an answer", maxAgentSteps)
}

func (p *SQLAgentPipeline) describeSchema(ctx context.Context) (string, error) {
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

func cutDirective(reply, prefix string) (string, bool) {
	idx := strings.Index(reply, prefix)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(reply[idx+len(prefix):]), true
}
