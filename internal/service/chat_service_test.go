package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatchat-be/internal/dto"
	"floatchat-be/internal/repository/memory"
	"floatchat-be/pkg/ai/router"
	"floatchat-be/pkg/visualization"
)

type fakeRouter struct {
	env   router.Envelope
	calls int
}

func (f *fakeRouter) Route(ctx context.Context, message, chatType, appFunctionality string) router.Envelope {
	f.calls++
	return f.env
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func newTestService(env router.Envelope) (IChatService, *fakeRouter, *memory.SessionRepository) {
	r := &fakeRouter{env: env}
	sessions := memory.NewSessionRepository()
	svc := NewChatService(r, sessions, nil, noopLogger{})
	return svc, r, sessions
}

func TestChatDefaultsAppFunctionality(t *testing.T) {
	svc, _, _ := newTestService(router.Envelope{Text: "ok", Success: true})

	resp := svc.Chat(context.Background(), &dto.ChatRequest{
		Message:  "hello",
		ChatType: "Q&A with stored SQL-DB",
	})

	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Response)
}

func TestChatMapsVisualization(t *testing.T) {
	svc, _, _ := newTestService(router.Envelope{
		Text:    "chart below",
		Success: true,
		Visualization: &visualization.Artifact{
			Type:   "image",
			Format: "image/png",
			Data:   "aGk=",
		},
	})

	resp := svc.Chat(context.Background(), &dto.ChatRequest{Message: "plot it", ChatType: "Q&A with stored SQL-DB"})

	assert.Equal(t, "data:image/png;base64,aGk=", resp.Graph)
	require.NotNil(t, resp.GraphData)
	assert.Equal(t, "image", resp.GraphData.Type)
}

func TestSessionTranscriptOrderAndClear(t *testing.T) {
	svc, _, _ := newTestService(router.Envelope{Text: "answer", Success: true})

	svc.ChatWithSession(context.Background(), "s1", &dto.ChatRequest{Message: "first", ChatType: "Q&A with stored SQL-DB"})
	svc.ChatWithSession(context.Background(), "s1", &dto.ChatRequest{Message: "second", ChatType: "Q&A with stored SQL-DB"})

	history := svc.GetHistory("s1")
	require.Len(t, history.History, 2)
	assert.Equal(t, []string{"first", "answer"}, history.History[0])
	assert.Equal(t, []string{"second", "answer"}, history.History[1])

	cleared := svc.ClearSession("s1")
	assert.True(t, cleared.Cleared)
	assert.Empty(t, svc.GetHistory("s1").History)

	// Clearing again reports that nothing existed.
	assert.False(t, svc.ClearSession("s1").Cleared)
}

func TestSessionIsolation(t *testing.T) {
	svc, _, _ := newTestService(router.Envelope{Text: "answer", Success: true})

	svc.ChatWithSession(context.Background(), "a", &dto.ChatRequest{Message: "for a", ChatType: "Q&A with stored SQL-DB"})
	svc.ChatWithSession(context.Background(), "b", &dto.ChatRequest{Message: "for b", ChatType: "Q&A with stored SQL-DB"})

	assert.Len(t, svc.GetHistory("a").History, 1)
	assert.Len(t, svc.GetHistory("b").History, 1)

	svc.ClearSession("a")
	assert.Empty(t, svc.GetHistory("a").History)
	assert.Len(t, svc.GetHistory("b").History, 1, "clearing one session must not touch another")
}

func TestFailedAnswerStillRecorded(t *testing.T) {
	svc, _, _ := newTestService(router.Envelope{Text: "This chat type is not supported.", Err: "Unsupported chat type"})

	resp := svc.ChatWithSession(context.Background(), "s2", &dto.ChatRequest{Message: "hm", ChatType: "Unknown"})

	assert.False(t, resp.Success)
	history := svc.GetHistory("s2")
	require.Len(t, history.History, 1)
	assert.Equal(t, "This chat type is not supported.", history.History[0][1])
}

func TestChatTypes(t *testing.T) {
	svc, _, _ := newTestService(router.Envelope{})
	types := svc.ChatTypes()
	assert.Equal(t, router.ChatTypeLabels(), types.ChatTypes)
}
