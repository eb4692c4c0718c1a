package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xaenox/cash-copilot/internal/engine"
	"github.com/xaenox/cash-copilot/internal/metrics"
	"github.com/xaenox/cash-copilot/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultSession = "default"

	// assistantMemoryWindow is how many recent memory entries the assistant sees
	assistantMemoryWindow = 20
)

var (
	ErrEmptyMessage         = errors.New("message is required")
	ErrAssistantUnavailable = errors.New("assistant is not configured")
)

type ChatReply struct {
	Success bool `json:"success"`
	models.AssistantReply
	MemoryStats models.MemoryStats `json:"memory_stats"`
}

// Chat answers a question about decision history within a session
func (s *Service) Chat(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if s.assistant == nil {
		return nil, ErrAssistantUnavailable
	}
	sessionID = sessionOrDefault(sessionID)

	entries, err := s.Memory(ctx)
	if err != nil {
		return nil, err
	}
	stats := engine.AggregateMemory(entries)

	history, err := s.store.ChatHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	recent := entries
	if len(recent) > assistantMemoryWindow {
		recent = recent[:assistantMemoryWindow]
	}
	reply := s.assistant.Reply(ctx, message, history, recent, stats)

	err = s.store.AppendChat(context.WithoutCancel(ctx), sessionID,
		models.ChatMessage{Role: models.RoleUser, Content: message},
		models.ChatMessage{Role: models.RoleAssistant, Content: reply.Answer},
	)
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues("chat").Inc()
		s.logger.Error("Failed to save chat history", zap.Error(err), zap.String("session_id", sessionID))
	}

	return &ChatReply{Success: true, AssistantReply: reply, MemoryStats: stats}, nil
}

func (s *Service) ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	history, err := s.store.ChatHistory(ctx, sessionOrDefault(sessionID))
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	return history, nil
}

func (s *Service) ClearChat(ctx context.Context, sessionID string) error {
	if err := s.store.ClearChat(ctx, sessionOrDefault(sessionID)); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}

func sessionOrDefault(id string) string {
	if strings.TrimSpace(id) == "" {
		return DefaultSession
	}
	return id
}
