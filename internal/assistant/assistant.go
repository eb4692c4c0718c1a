package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/cash-copilot/internal/models"
	"go.uber.org/zap"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Assistant answers questions about decision history with a chat model.
// Without an API key it answers from the memory statistics alone.
type Assistant struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Assistant {
	a := &Assistant{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		a.client = openai.NewClientWithConfig(clientCfg)
	}
	return a
}

const systemPrompt = `You are a sharp, no-nonsense assistant that analyzes the decision history of a cash-flow agent.

GUIDELINES:
- Be direct and concise. Call out failures and poor patterns.
- Base every answer on the memory data below. If it holds nothing relevant, say so.
- Quote specific data points and compute rates or totals when useful.
- Suggest follow-up questions when appropriate.

CONVERSATION HISTORY:
%s

MEMORY DATA (most recent records only):
%s

Return ONLY a JSON object with this structure:
{
    "answer": "direct answer",
    "key_insights": ["insight 1", "insight 2"],
    "data_points": ["point 1", "point 2"],
    "follow_up_suggestions": ["suggestion 1", "suggestion 2"]
}`

var errNoChoices = errors.New("empty completion")

func (a *Assistant) Reply(ctx context.Context, question string, history []models.ChatMessage, memory []models.MemoryEntry, stats models.MemoryStats) models.AssistantReply {
	if a.client == nil {
		return statsReply(stats)
	}

	memoryJSON, err := json.MarshalIndent(map[string]any{
		"records":    memory,
		"statistics": stats,
	}, "", "  ")
	if err != nil {
		a.logger.Error("Failed to encode memory for assistant", zap.Error(err))
		return statsReply(stats)
	}

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: fmt.Sprintf(systemPrompt, historyText(history), memoryJSON),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: question,
				},
			},
			MaxTokens:      a.maxTokens,
			Temperature:    float32(a.temperature),
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		},
	)
	if err == nil && len(resp.Choices) == 0 {
		err = errNoChoices
	}
	if err != nil {
		a.logger.Error("Failed to get assistant response", zap.Error(err))
		return statsReply(stats)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var reply models.AssistantReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		a.logger.Warn("Failed to parse assistant response",
			zap.Error(err),
			zap.String("response", content))
		reply = models.AssistantReply{Answer: content}
	}
	return normalize(reply)
}

func historyText(history []models.ChatMessage) string {
	if len(history) == 0 {
		return "This is the first question."
	}
	lines := make([]string, len(history))
	for i, m := range history {
		lines[i] = strings.ToUpper(string(m.Role)) + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

func normalize(r models.AssistantReply) models.AssistantReply {
	if r.KeyInsights == nil {
		r.KeyInsights = []string{}
	}
	if r.DataPoints == nil {
		r.DataPoints = []string{}
	}
	if r.FollowUpSuggestions == nil {
		r.FollowUpSuggestions = []string{}
	}
	return r
}
