package router

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"floatchat-be/pkg/ai/heuristic"
	"floatchat-be/pkg/ai/pipeline"
	"floatchat-be/pkg/llm"
	"floatchat-be/pkg/resilience"
	"floatchat-be/pkg/tabular"
	"floatchat-be/pkg/visualization"
)

type fakeSQLPipeline struct {
	calls  int
	result *pipeline.SQLResult
	err    error
}

func (f *fakeSQLPipeline) Execute(ctx context.Context, question string) (*pipeline.SQLResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRAG struct {
	calls  int
	result *pipeline.RAGResult
	err    error
}

func (f *fakeRAG) Execute(ctx context.Context, query string) (*pipeline.RAGResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeTabularStore struct {
	calls  int
	tables []string
	rows   *tabular.ResultSet
	err    error
}

func (f *fakeTabularStore) ListTables(ctx context.Context) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tables, nil
}

func (f *fakeTabularStore) DescribeColumns(ctx context.Context, table string) ([]tabular.Column, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []tabular.Column{{Name: "water_temp", Type: "REAL"}}, nil
}

func (f *fakeTabularStore) Query(ctx context.Context, sql string) (*tabular.ResultSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.rows != nil {
		return f.rows, nil
	}
	return &tabular.ResultSet{}, nil
}

type fakeRenderer struct {
	artifact *visualization.Artifact
	err      error
}

func (f *fakeRenderer) Render(ctx context.Context, rows *tabular.ResultSet, hint string) (*visualization.Artifact, error) {
	return f.artifact, f.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestRouter(primary SQLPipeline, store tabular.Store, rag RAGExecutor, renderer visualization.Service, cooldown *resilience.Cooldown) *Router {
	fallback := heuristic.NewResponder(store, heuristic.DefaultKeywords(), "ocean_1")
	branch := Branch{Primary: primary, Fallback: fallback, Store: store}
	return NewRouter(cooldown, 30*time.Minute, branch, branch, branch, rag, store, renderer, testLogger())
}

func TestCooldownGatesPrimaryPath(t *testing.T) {
	now := time.Now()
	cooldown := resilience.NewCooldownWithClock(func() time.Time { return now })
	cooldown.Activate(30 * time.Minute)

	primary := &fakeSQLPipeline{result: &pipeline.SQLResult{Reply: "from llm"}}
	store := &fakeTabularStore{
		tables: []string{"ocean_1"},
		rows: &tabular.ResultSet{
			Columns: []string{"min_value", "max_value"},
			Rows:    [][]interface{}{{2.1, 28.7}},
		},
	}

	r := newTestRouter(primary, store, &fakeRAG{}, nil, cooldown)
	env := r.Route(context.Background(), "what is the temperature range", labelStoredSql, "Chat")

	assert.Equal(t, 0, primary.calls, "provider must not be called while cooling down")
	assert.True(t, env.Success)
	assert.Contains(t, env.Text, "2.1")
	assert.Contains(t, env.Text, "28.7")
}

func TestQuotaFailureActivatesCooldownAndFallsBack(t *testing.T) {
	cooldown := resilience.NewCooldown()
	primary := &fakeSQLPipeline{err: &llm.ProviderError{Provider: "gemini", StatusCode: 429, Body: "quota exceeded"}}
	store := &fakeTabularStore{
		tables: []string{"ocean_1"},
		rows: &tabular.ResultSet{
			Columns: []string{"min_value", "max_value"},
			Rows:    [][]interface{}{{2.1, 28.7}},
		},
	}

	r := newTestRouter(primary, store, &fakeRAG{}, nil, cooldown)

	env := r.Route(context.Background(), "temperature range", labelStoredSql, "Chat")
	assert.True(t, env.Success)
	assert.Equal(t, 1, primary.calls)
	assert.False(t, cooldown.IsAvailable())

	// The next request must skip the provider entirely.
	r.Route(context.Background(), "temperature range", labelStoredSql, "Chat")
	assert.Equal(t, 1, primary.calls)
}

func TestNonQuotaFailureFallsBackWithoutCooldown(t *testing.T) {
	cooldown := resilience.NewCooldown()
	primary := &fakeSQLPipeline{err: errors.New("connection refused")}
	store := &fakeTabularStore{tables: []string{"ocean_1"}}

	r := newTestRouter(primary, store, &fakeRAG{}, nil, cooldown)
	env := r.Route(context.Background(), "summarize the data", labelUploadedTabularSql, "Chat")

	assert.True(t, env.Success)
	assert.True(t, cooldown.IsAvailable(), "only quota failures arm the cooldown")
}

func TestUnknownChatType(t *testing.T) {
	store := &fakeTabularStore{tables: []string{"ocean_1"}}
	primary := &fakeSQLPipeline{}
	rag := &fakeRAG{}

	r := newTestRouter(primary, store, rag, nil, resilience.NewCooldown())
	env := r.Route(context.Background(), "hello", "Unknown", "Chat")

	assert.False(t, env.Success)
	assert.Equal(t, errUnsupportedChatType, env.Err)
	assert.Equal(t, msgUnsupportedChatType, env.Text)
	assert.Equal(t, 0, primary.calls, "no provider access for unsupported types")
	assert.Equal(t, 0, rag.calls)
	assert.Equal(t, 0, store.calls, "no store access for unsupported types")
}

func TestAppFunctionalityNotImplemented(t *testing.T) {
	store := &fakeTabularStore{tables: []string{"ocean_1"}}
	r := newTestRouter(&fakeSQLPipeline{}, store, &fakeRAG{}, nil, resilience.NewCooldown())

	env := r.Route(context.Background(), "hello", labelStoredSql, "Summarize")

	assert.False(t, env.Success)
	assert.Equal(t, errNotImplemented, env.Err)
	assert.Equal(t, 0, store.calls)
}

func TestAllBranchesReturnEnvelopeOnTotalFailure(t *testing.T) {
	storeErr := errors.New("database file is locked")
	primaryErr := errors.New("deadline exceeded")

	for _, label := range []string{labelStoredSql, labelUploadedTabularSql, labelStoredTabularSql, labelRag} {
		primary := &fakeSQLPipeline{err: primaryErr}
		store := &fakeTabularStore{err: storeErr}
		rag := &fakeRAG{err: primaryErr}

		r := newTestRouter(primary, store, rag, nil, resilience.NewCooldown())
		env := r.Route(context.Background(), "anything", label, "Chat")

		assert.False(t, env.Success, "chat type %q", label)
		assert.NotEmpty(t, env.Err, "chat type %q", label)
		assert.NotEmpty(t, env.Text, "chat type %q", label)
	}
}

func TestRAGNoResults(t *testing.T) {
	rag := &fakeRAG{err: pipeline.ErrNoResults}
	r := newTestRouter(&fakeSQLPipeline{}, &fakeTabularStore{}, rag, nil, resilience.NewCooldown())

	env := r.Route(context.Background(), "anything semantic", labelRag, "Chat")

	assert.False(t, env.Success)
	assert.Equal(t, errNoRelevantResults, env.Err)
}

func TestVisualizationAttached(t *testing.T) {
	primary := &fakeSQLPipeline{result: &pipeline.SQLResult{
		Reply: "here are the temperatures",
		Rows: &tabular.ResultSet{
			Columns: []string{"water_temp"},
			Rows:    [][]interface{}{{12.3}},
		},
	}}
	renderer := &fakeRenderer{artifact: &visualization.Artifact{Type: "image", Format: "image/png", Data: "aGk="}}

	r := newTestRouter(primary, &fakeTabularStore{tables: []string{"ocean_1"}}, &fakeRAG{}, renderer, resilience.NewCooldown())
	env := r.Route(context.Background(), "plot the temperatures", labelStoredSql, "Chat")

	assert.True(t, env.Success)
	assert.NotNil(t, env.Visualization)
	assert.Equal(t, "image/png", env.Visualization.Format)
}

func TestVisualizationFailureDegradesToText(t *testing.T) {
	primary := &fakeSQLPipeline{result: &pipeline.SQLResult{
		Reply: "here are the temperatures",
		Rows: &tabular.ResultSet{
			Columns: []string{"water_temp"},
			Rows:    [][]interface{}{{12.3}},
		},
	}}
	renderer := &fakeRenderer{err: errors.New("renderer unreachable")}

	r := newTestRouter(primary, &fakeTabularStore{tables: []string{"ocean_1"}}, &fakeRAG{}, renderer, resilience.NewCooldown())
	env := r.Route(context.Background(), "plot the temperatures", labelStoredSql, "Chat")

	assert.True(t, env.Success, "a chart failure never fails the request")
	assert.Nil(t, env.Visualization)
	assert.Contains(t, env.Text, "here are the temperatures")
	assert.Contains(t, env.Text, "Chart generation failed")
}
