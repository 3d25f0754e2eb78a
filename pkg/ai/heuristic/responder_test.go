package heuristic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"floatchat-be/pkg/tabular"
)

type fakeStore struct {
	tables  []string
	columns map[string][]tabular.Column
	results map[string]*tabular.ResultSet
	err     error
}

func (f *fakeStore) ListTables(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tables, nil
}

func (f *fakeStore) DescribeColumns(ctx context.Context, table string) ([]tabular.Column, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.columns[table], nil
}

func (f *fakeStore) Query(ctx context.Context, query string) (*tabular.ResultSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	if rs, ok := f.results[query]; ok {
		return rs, nil
	}
	return &tabular.ResultSet{}, nil
}

func TestRespondTemperatureRange(t *testing.T) {
	store := &fakeStore{
		tables: []string{"ocean_1"},
		columns: map[string][]tabular.Column{
			"ocean_1": {
				{Name: "dep_m", Type: "REAL"},
				{Name: "water_temp", Type: "REAL"},
			},
		},
		results: map[string]*tabular.ResultSet{
			"SELECT MIN(water_temp) AS min_value, MAX(water_temp) AS max_value FROM ocean_1": {
				Columns: []string{"min_value", "max_value"},
				Rows:    [][]interface{}{{2.1, 28.7}},
			},
		},
	}

	responder := NewResponder(store, DefaultKeywords(), "ocean_1")
	answer := responder.Respond(context.Background(), "what is the temperature range")

	assert.True(t, answer.Success)
	assert.Contains(t, answer.Text, "2.1")
	assert.Contains(t, answer.Text, "28.7")
	assert.Equal(t, "ocean_1", answer.Table)
}

func TestRespondAllNullTemperatureFallsBackToSummary(t *testing.T) {
	store := &fakeStore{
		tables: []string{"ocean_1"},
		columns: map[string][]tabular.Column{
			"ocean_1": {
				{Name: "dep_m", Type: "REAL"},
				{Name: "water_temp", Type: "REAL"},
			},
		},
		results: map[string]*tabular.ResultSet{
			"SELECT MIN(water_temp) AS min_value, MAX(water_temp) AS max_value FROM ocean_1": {
				Columns: []string{"min_value", "max_value"},
				Rows:    [][]interface{}{{nil, nil}},
			},
			"SELECT COUNT(*) FROM ocean_1": {
				Columns: []string{"COUNT(*)"},
				Rows:    [][]interface{}{{int64(7)}},
			},
		},
	}

	responder := NewResponder(store, DefaultKeywords(), "ocean_1")
	answer := responder.Respond(context.Background(), "what is the temperature range")

	assert.True(t, answer.Success)
	assert.NotContains(t, answer.Text, "<nil>")
	assert.NotContains(t, answer.Text, "minimum temperature")
	assert.Contains(t, answer.Text, "Table ocean_1")
}

func TestRespondSummaryMentionsMeasurementColumns(t *testing.T) {
	store := &fakeStore{
		tables: []string{"ocean_1"},
		columns: map[string][]tabular.Column{
			"ocean_1": {
				{Name: "dep_m", Type: "REAL"},
				{Name: "water_temp", Type: "REAL"},
			},
		},
		results: map[string]*tabular.ResultSet{
			"SELECT COUNT(*) FROM ocean_1": {
				Columns: []string{"COUNT(*)"},
				Rows:    [][]interface{}{{int64(3)}},
			},
		},
	}

	responder := NewResponder(store, DefaultKeywords(), "ocean_1")
	answer := responder.Respond(context.Background(), "describe the dataset")

	assert.True(t, answer.Success)
	assert.Contains(t, answer.Text, "Depth readings are in column dep_m")
	assert.Contains(t, answer.Text, "Temperature readings are in column water_temp")
}

func TestRespondPreferredTableWins(t *testing.T) {
	store := &fakeStore{
		tables: []string{"aardvark", "ocean_1"},
		columns: map[string][]tabular.Column{
			"ocean_1": {{Name: "temp", Type: "REAL"}},
		},
		results: map[string]*tabular.ResultSet{
			"SELECT MIN(temp) AS min_value, MAX(temp) AS max_value FROM ocean_1": {
				Columns: []string{"min_value", "max_value"},
				Rows:    [][]interface{}{{1.0, 2.0}},
			},
		},
	}

	responder := NewResponder(store, DefaultKeywords(), "ocean_1")
	answer := responder.Respond(context.Background(), "temperature range please")

	assert.True(t, answer.Success)
	assert.Equal(t, "ocean_1", answer.Table)
}

func TestRespondEmptyDatabase(t *testing.T) {
	responder := NewResponder(&fakeStore{}, DefaultKeywords(), "ocean_1")
	answer := responder.Respond(context.Background(), "anything")

	assert.True(t, answer.Success)
	assert.Contains(t, answer.Text, "empty")
}

func TestRespondSummary(t *testing.T) {
	store := &fakeStore{
		tables: []string{"stations"},
		columns: map[string][]tabular.Column{
			"stations": {
				{Name: "name", Type: "TEXT"},
				{Name: "lat", Type: "REAL"},
			},
		},
		results: map[string]*tabular.ResultSet{
			"SELECT COUNT(*) FROM stations": {
				Columns: []string{"COUNT(*)"},
				Rows:    [][]interface{}{{int64(42)}},
			},
			"SELECT * FROM stations LIMIT 5": {
				Columns: []string{"name", "lat"},
				Rows:    [][]interface{}{{"alpha", 12.5}},
			},
		},
	}

	responder := NewResponder(store, DefaultKeywords(), "ocean_1")
	answer := responder.Respond(context.Background(), "tell me about the data")

	assert.True(t, answer.Success)
	assert.Contains(t, answer.Text, "42")
	assert.Contains(t, answer.Text, "name, lat")
	assert.Contains(t, answer.Text, "alpha")
}

func TestRespondStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("disk I/O error")}
	responder := NewResponder(store, DefaultKeywords(), "ocean_1")
	answer := responder.Respond(context.Background(), "temperature range")

	assert.False(t, answer.Success)
	assert.Equal(t, "disk I/O error", answer.Err)
	assert.NotEmpty(t, answer.Text)
}

func TestRespondNilStore(t *testing.T) {
	responder := NewResponder(nil, DefaultKeywords(), "ocean_1")
	answer := responder.Respond(context.Background(), "hello")

	assert.False(t, answer.Success)
	assert.NotEmpty(t, answer.Err)
}
