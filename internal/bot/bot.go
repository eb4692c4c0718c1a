package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/cash-copilot/internal/models"
	"github.com/xaenox/cash-copilot/internal/service"
	"go.uber.org/zap"
)

// Copilot is the part of the service the bot talks to
type Copilot interface {
	RunAnalysis(ctx context.Context, req service.AnalysisRequest) (*models.AnalysisSnapshot, error)
	Alerts(ctx context.Context) ([]models.Alert, error)
	Clients(ctx context.Context) ([]models.ClientProfile, error)
	MemoryStats(ctx context.Context) (models.MemoryStats, error)
	Chat(ctx context.Context, sessionID, message string) (*service.ChatReply, error)
	ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context, sessionID string) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api     sender
	updates func() tgbotapi.UpdatesChannel
	stop    func()
	copilot Copilot
	logger  *zap.Logger
}

func New(token string, copilot Copilot, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("account", api.Self.UserName))

	return &Bot{
		api: api,
		updates: func() tgbotapi.UpdatesChannel {
			u := tgbotapi.NewUpdate(0)
			u.Timeout = 60
			return api.GetUpdatesChan(u)
		},
		stop:    api.StopReceivingUpdates,
		copilot: copilot,
		logger:  logger,
	}, nil
}

// Start blocks until the update channel closes
func (b *Bot) Start() error {
	for update := range b.updates() {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) Stop() {
	b.stop()
}

// Digest returns a channel that posts alert digests to the given chats
func (b *Bot) Digest(chatIDs []int64) *DigestChannel {
	return &DigestChannel{api: b.api, chatIDs: chatIDs, logger: b.logger}
}

func sessionID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	b.handleAsk(ctx, message.Chat.ID, message.MessageID, content)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "analyze":
		b.handleAnalyze(ctx, message)
	case "alerts":
		b.handleAlerts(ctx, message)
	case "clients":
		b.handleClients(ctx, message)
	case "stats":
		b.handleStats(ctx, message)
	case "ask":
		b.handleAsk(ctx, message.Chat.ID, message.MessageID, message.CommandArguments())
	case "history":
		b.handleHistory(ctx, message)
	case "clear":
		b.handleClear(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to Cash Copilot!
I watch your cash position and tell you what to do next.

Run /analyze with your current balance to get a decision.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/analyze <cash> - Run an analysis with the given cash balance
/alerts - Show current alerts
/clients - Show client risk profiles
/stats - Show decision memory statistics
/ask <question> - Ask about past decisions
/history - Show this chat's history
/clear - Forget this chat's history

Any other text is treated as a question.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleAnalyze(ctx context.Context, message *tgbotapi.Message) {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		b.sendMessage(message.Chat.ID, "Usage: /analyze <cash balance>, for example /analyze 12000")
		return
	}

	snap, err := b.copilot.RunAnalysis(ctx, service.AnalysisRequest{CashBalance: args})
	if err != nil {
		b.logger.Error("Failed to run analysis",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, the analysis failed. Please try again later.")
		return
	}

	b.sendMarkdown(message.Chat.ID, message.MessageID, formatAnalysis(snap))
}

func (b *Bot) handleAlerts(ctx context.Context, message *tgbotapi.Message) {
	alerts, err := b.copilot.Alerts(ctx)
	if err != nil {
		b.logger.Error("Failed to build alerts",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't build your alerts.")
		return
	}

	if len(alerts) == 0 {
		b.sendMessage(message.Chat.ID, "No alerts. Cash position looks calm.")
		return
	}
	b.sendMarkdown(message.Chat.ID, 0, formatAlerts(alerts))
}

func (b *Bot) handleClients(ctx context.Context, message *tgbotapi.Message) {
	clients, err := b.copilot.Clients(ctx)
	if err != nil {
		b.logger.Error("Failed to classify clients",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your clients.")
		return
	}

	if len(clients) == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any receivables yet.")
		return
	}
	b.sendMarkdown(message.Chat.ID, 0, formatClients(clients))
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) {
	stats, err := b.copilot.MemoryStats(ctx)
	if err != nil {
		b.logger.Error("Failed to get memory stats",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your statistics.")
		return
	}

	b.sendMarkdown(message.Chat.ID, 0, formatStats(stats))
}

func (b *Bot) handleAsk(ctx context.Context, chatID int64, replyTo int, question string) {
	if strings.TrimSpace(question) == "" {
		b.sendMessage(chatID, "Ask me something about your past decisions.")
		return
	}

	reply, err := b.copilot.Chat(ctx, sessionID(chatID), question)
	if err != nil {
		b.logger.Error("Failed to answer question",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Sorry, I couldn't answer that right now.")
		return
	}

	b.sendMarkdown(chatID, replyTo, formatReply(&reply.AssistantReply))
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	history, err := b.copilot.ChatHistory(ctx, sessionID(message.Chat.ID))
	if err != nil {
		b.logger.Error("Failed to get chat history",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your chat history.")
		return
	}

	if len(history) == 0 {
		b.sendMessage(message.Chat.ID, "You haven't asked anything yet.")
		return
	}
	b.sendMarkdown(message.Chat.ID, 0, formatHistory(history, historyLimit))
}

func (b *Bot) handleClear(ctx context.Context, message *tgbotapi.Message) {
	if err := b.copilot.ClearChat(ctx, sessionID(message.Chat.ID)); err != nil {
		b.logger.Error("Failed to clear chat history",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't clear your chat history.")
		return
	}
	b.sendMessage(message.Chat.ID, "History cleared.")
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// sendMarkdown expects text that is already escaped for MarkdownV2
func (b *Bot) sendMarkdown(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = replyTo
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
