package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"floatchat-be/pkg/ai/heuristic"
	"floatchat-be/pkg/ai/pipeline"
	"floatchat-be/pkg/llm"
	"floatchat-be/pkg/resilience"
	"floatchat-be/pkg/tabular"
	"floatchat-be/pkg/visualization"
)

// visualizationRowLimit caps how many rows are handed to the renderer.
const visualizationRowLimit = 1000

// Envelope is the uniform result of every strategy. Callers never see a raw
// provider error; failures are reported through Success and Err.
type Envelope struct {
	Text          string
	Success       bool
	Err           string
	Visualization *visualization.Artifact
}

// SQLPipeline is the LLM-mediated primary path for the SQL chat types.
type SQLPipeline interface {
	Execute(ctx context.Context, question string) (*pipeline.SQLResult, error)
}

// RAGExecutor is the primary path for the semantic chat type.
type RAGExecutor interface {
	Execute(ctx context.Context, query string) (*pipeline.RAGResult, error)
}

// sqlBranch pairs a primary LLM pipeline with its fallback responder over
// the same store.
type sqlBranch struct {
	primary  SQLPipeline
	fallback *heuristic.Responder
	store    tabular.Store
}

// Router dispatches a request to one strategy per chat type. Every branch
// degrades to a response that never depends on a failing external call twice
// in the same request: at most one retry after a backend switch.
type Router struct {
	cooldown    *resilience.Cooldown
	sqlCooldown time.Duration

	branches map[ChatType]sqlBranch
	rag      RAGExecutor
	ragStore tabular.Store

	renderer visualization.Service
	logger   *log.Logger
}

// Branch groups the constructor arguments for one SQL chat type.
type Branch struct {
	Primary  SQLPipeline
	Fallback *heuristic.Responder
	Store    tabular.Store
}

func NewRouter(
	cooldown *resilience.Cooldown,
	sqlCooldown time.Duration,
	storedSql Branch,
	uploadedTabular Branch,
	storedTabular Branch,
	rag RAGExecutor,
	ragStore tabular.Store,
	renderer visualization.Service,
	logger *log.Logger,
) *Router {
	return &Router{
		cooldown:    cooldown,
		sqlCooldown: sqlCooldown,
		branches: map[ChatType]sqlBranch{
			ChatTypeStoredSql:          storedSql.branch(),
			ChatTypeUploadedTabularSql: uploadedTabular.branch(),
			ChatTypeStoredTabularSql:   storedTabular.branch(),
		},
		rag:      rag,
		ragStore: ragStore,
		renderer: renderer,
		logger:   logger,
	}
}

func (b Branch) branch() sqlBranch {
	return sqlBranch{primary: b.Primary, fallback: b.Fallback, store: b.Store}
}

// Route answers a message. It never returns an error: every failure mode is
// folded into the envelope.
func (r *Router) Route(ctx context.Context, message, chatTypeLabel, appFunctionality string) Envelope {
	if appFunctionality != "Chat" {
		return Envelope{Text: msgNotImplemented, Err: errNotImplemented}
	}

	switch chatType := ParseChatType(chatTypeLabel); chatType {
	case ChatTypeStoredSql, ChatTypeUploadedTabularSql, ChatTypeStoredTabularSql:
		return r.routeSQL(ctx, r.branches[chatType], message)
	case ChatTypeRag:
		return r.routeRAG(ctx, message)
	default:
		return Envelope{Text: msgUnsupportedChatType, Err: errUnsupportedChatType}
	}
}

func (r *Router) routeSQL(ctx context.Context, branch sqlBranch, message string) Envelope {
	// The cooldown is consulted before any network call. While it runs, the
	// provider is assumed unavailable and the branch goes straight to the
	// heuristic fallback.
	if branch.primary != nil && r.cooldown.IsAvailable() {
		result, err := branch.primary.Execute(ctx, message)
		if err == nil && result.Reply != "" {
			env := Envelope{Text: result.Reply, Success: true}
			r.attachVisualization(ctx, &env, message, branch.store, result.Rows)
			return env
		}
		if err != nil {
			if llm.IsQuotaError(err) {
				r.logger.Printf("[ROUTER] Provider quota exhausted, cooling down for %s: %v", r.sqlCooldown, err)
				r.cooldown.Activate(r.sqlCooldown)
			} else {
				r.logger.Printf("[ROUTER] Primary SQL path failed, using heuristic fallback: %v", err)
			}
		}
	}

	answer := branch.fallback.Respond(ctx, message)
	env := Envelope{Text: answer.Text, Success: answer.Success, Err: answer.Err}
	if env.Success {
		r.attachVisualization(ctx, &env, message, branch.store, nil)
	}
	return env
}

func (r *Router) routeRAG(ctx context.Context, message string) Envelope {
	result, err := r.rag.Execute(ctx, message)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoResults) {
			return Envelope{Text: msgNoResponse, Err: errNoRelevantResults}
		}
		r.logger.Printf("[ROUTER] RAG path failed: %v", err)
		return Envelope{Text: msgNoResponse, Err: err.Error()}
	}

	env := Envelope{Text: result.Reply, Success: true}
	r.attachVisualization(ctx, &env, message, r.ragStore, nil)
	return env
}

// attachVisualization adds a rendered chart when the message asks for one. A
// rendering failure degrades to the text answer plus a short note; it never
// flips Success.
func (r *Router) attachVisualization(ctx context.Context, env *Envelope, message string, store tabular.Store, rows *tabular.ResultSet) {
	if r.renderer == nil || !visualization.WantsVisualization(message) {
		return
	}

	if rows.Empty() && store != nil {
		fetched, err := r.fetchChartRows(ctx, store)
		if err != nil {
			r.logger.Printf("[ROUTER] Could not fetch rows for chart: %v", err)
			env.Text += msgChartFailedNote
			return
		}
		rows = fetched
	}
	if rows.Empty() {
		return
	}
	if len(rows.Rows) > visualizationRowLimit {
		rows = &tabular.ResultSet{Columns: rows.Columns, Rows: rows.Rows[:visualizationRowLimit]}
	}

	artifact, err := r.renderer.Render(ctx, rows, message)
	if err != nil {
		r.logger.Printf("[ROUTER] Chart rendering failed: %v", err)
		env.Text += msgChartFailedNote
		return
	}
	env.Visualization = artifact
}

func (r *Router) fetchChartRows(ctx context.Context, store tabular.Store) (*tabular.ResultSet, error) {
	tables, err := store.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables available")
	}
	return store.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", tables[0], visualizationRowLimit))
}
