package service

import (
	"context"

	"floatchat-be/internal/dto"
	"floatchat-be/internal/ingest"
	"floatchat-be/internal/pkg/logger"
	"floatchat-be/internal/repository/memory"
	"floatchat-be/pkg/ai/router"
	"floatchat-be/pkg/store"
)

type IChatService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) *dto.ChatResponse
	ChatWithSession(ctx context.Context, sessionID string, req *dto.ChatRequest) *dto.ChatResponse
	GetHistory(sessionID string) *dto.ChatHistoryResponse
	ClearSession(sessionID string) *dto.ClearSessionResponse
	ChatTypes() *dto.ChatTypesResponse
	RequestRebuild(reason string) (*dto.RebuildResponse, error)
}

// Responder routes a message to an answering strategy. Satisfied by
// router.Router.
type Responder interface {
	Route(ctx context.Context, message, chatType, appFunctionality string) router.Envelope
}

type chatService struct {
	router    Responder
	sessions  *memory.SessionRepository
	publisher *ingest.Publisher
	logger    logger.ILogger
}

func NewChatService(
	r Responder,
	sessions *memory.SessionRepository,
	publisher *ingest.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		router:    r,
		sessions:  sessions,
		publisher: publisher,
		logger:    log,
	}
}

// Chat answers a one-shot message with no transcript.
func (s *chatService) Chat(ctx context.Context, req *dto.ChatRequest) *dto.ChatResponse {
	return s.respond(ctx, req)
}

// ChatWithSession answers a message and records the exchange in the session
// transcript. Failed answers are recorded too; the transcript reflects what
// the user saw.
func (s *chatService) ChatWithSession(ctx context.Context, sessionID string, req *dto.ChatRequest) *dto.ChatResponse {
	resp := s.respond(ctx, req)
	s.sessions.Append(sessionID, store.ConversationTurn{
		UserMessage: req.Message,
		BotResponse: resp.Response,
	})
	return resp
}

func (s *chatService) respond(ctx context.Context, req *dto.ChatRequest) *dto.ChatResponse {
	appFunctionality := req.AppFunctionality
	if appFunctionality == "" {
		appFunctionality = "Chat"
	}

	env := s.router.Route(ctx, req.Message, req.ChatType, appFunctionality)

	s.logger.Info("chat", "chat request handled", map[string]interface{}{
		"chat_type": req.ChatType,
		"success":   env.Success,
	})

	resp := &dto.ChatResponse{
		Response: env.Text,
		Success:  env.Success,
		Error:    env.Err,
	}
	if env.Visualization != nil {
		resp.Graph = "data:" + env.Visualization.Format + ";base64," + env.Visualization.Data
		resp.GraphData = &dto.GraphData{
			Type:   env.Visualization.Type,
			Format: env.Visualization.Format,
		}
	}
	return resp
}

func (s *chatService) GetHistory(sessionID string) *dto.ChatHistoryResponse {
	transcript := s.sessions.Get(sessionID)
	history := make([][]string, len(transcript))
	for i, turn := range transcript {
		history[i] = []string{turn.UserMessage, turn.BotResponse}
	}
	return &dto.ChatHistoryResponse{History: history}
}

func (s *chatService) ClearSession(sessionID string) *dto.ClearSessionResponse {
	return &dto.ClearSessionResponse{Cleared: s.sessions.Clear(sessionID)}
}

func (s *chatService) ChatTypes() *dto.ChatTypesResponse {
	return &dto.ChatTypesResponse{ChatTypes: router.ChatTypeLabels()}
}

// RequestRebuild enqueues a vector collection rebuild on the event bus.
func (s *chatService) RequestRebuild(reason string) (*dto.RebuildResponse, error) {
	id, err := s.publisher.PublishRebuild(reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("chat", "vector rebuild enqueued", map[string]interface{}{"request_id": id})
	return &dto.RebuildResponse{RequestID: id, Status: "queued"}, nil
}
