package pipeline

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatchat-be/pkg/llm"
	"floatchat-be/pkg/tabular"
)

// scriptedLLM replies with pre-seeded responses in order.
type scriptedLLM struct {
	replies []string
	calls   int
	err     error
}

func (s *scriptedLLM) next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.replies) {
		return "", nil
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.next()
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.next()
}

type scriptedStore struct {
	tables  []string
	columns []tabular.Column
	results map[string]*tabular.ResultSet
	queries []string
}

func (s *scriptedStore) ListTables(ctx context.Context) ([]string, error) {
	return s.tables, nil
}

func (s *scriptedStore) DescribeColumns(ctx context.Context, table string) ([]tabular.Column, error) {
	return s.columns, nil
}

func (s *scriptedStore) Query(ctx context.Context, sql string) (*tabular.ResultSet, error) {
	s.queries = append(s.queries, sql)
	if rs, ok := s.results[sql]; ok {
		return rs, nil
	}
	return &tabular.ResultSet{}, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSQLChainExecutesGeneratedQuery(t *testing.T) {
	provider := &scriptedLLM{replies: []string{
		"```sql\nSELECT MAX(water_temp) FROM ocean_1;\n```",
		"The warmest recorded water temperature is 28.7 degrees.",
	}}
	store := &scriptedStore{
		tables:  []string{"ocean_1"},
		columns: []tabular.Column{{Name: "water_temp", Type: "REAL"}},
		results: map[string]*tabular.ResultSet{
			"SELECT MAX(water_temp) FROM ocean_1": {
				Columns: []string{"MAX(water_temp)"},
				Rows:    [][]interface{}{{28.7}},
			},
		},
	}

	chain := NewSQLChainPipeline(provider, store, discardLogger())
	result, err := chain.Execute(context.Background(), "what is the warmest water temperature")

	require.NoError(t, err)
	assert.Equal(t, "SELECT MAX(water_temp) FROM ocean_1", result.Query)
	assert.Contains(t, result.Reply, "28.7")
	require.Len(t, store.queries, 1)
}

func TestSQLChainNilStore(t *testing.T) {
	chain := NewSQLChainPipeline(&scriptedLLM{}, nil, discardLogger())
	_, err := chain.Execute(context.Background(), "anything")
	assert.Error(t, err)
}

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT 1;", "SELECT 1"},
		{"```sql\nSELECT 1;\n```", "SELECT 1"},
		{"```\nSELECT 1\n```", "SELECT 1"},
		{"  SELECT 1  ", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := CleanSQL(tt.in); got != tt.want {
			t.Errorf("CleanSQL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSQLAgentAnswersAfterQuery(t *testing.T) {
	provider := &scriptedLLM{replies: []string{
		"QUERY: SELECT COUNT(*) FROM ocean_1",
		"ANSWER: The table holds 42 measurements.",
	}}
	store := &scriptedStore{
		tables:  []string{"ocean_1"},
		columns: []tabular.Column{{Name: "water_temp", Type: "REAL"}},
		results: map[string]*tabular.ResultSet{
			"SELECT COUNT(*) FROM ocean_1": {
				Columns: []string{"COUNT(*)"},
				Rows:    [][]interface{}{{int64(42)}},
			},
		},
	}

	agent := NewSQLAgentPipeline(provider, store, discardLogger())
	result, err := agent.Execute(context.Background(), "how many measurements are there")

	require.NoError(t, err)
	assert.Equal(t, "The table holds 42 measurements.", result.Reply)
	assert.Equal(t, 2, result.Steps)
	require.Len(t, store.queries, 1)
}

func TestSQLAgentGivesUpAfterMaxSteps(t *testing.T) {
	replies := make([]string, 0, maxAgentSteps+1)
	for i := 0; i <= maxAgentSteps; i++ {
		replies = append(replies, "QUERY: SELECT 1")
	}
	provider := &scriptedLLM{replies: replies}
	store := &scriptedStore{
		tables:  []string{"ocean_1"},
		columns: []tabular.Column{{Name: "water_temp", Type: "REAL"}},
	}

	agent := NewSQLAgentPipeline(provider, store, discardLogger())
	_, err := agent.Execute(context.Background(), "loop forever")

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "steps"))
}
