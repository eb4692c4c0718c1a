package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/cash-copilot/internal/models"
	"go.uber.org/zap"
)

// DigestChannel posts scheduled alert digests to fixed chats
type DigestChannel struct {
	api     sender
	chatIDs []int64
	logger  *zap.Logger
}

func (d *DigestChannel) Name() string { return "telegram" }

func (d *DigestChannel) Deliver(_ context.Context, alerts []models.Alert, at time.Time) error {
	if len(d.chatIDs) == 0 {
		return errors.New("no digest chats configured")
	}

	text := fmt.Sprintf("*Daily digest* %s\n\n", escapeMarkdown(at.Format("2006-01-02")))
	text += formatAlerts(alerts)

	var errs []error
	for _, chatID := range d.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		if _, err := d.api.Send(msg); err != nil {
			d.logger.Error("Failed to send digest",
				zap.Error(err),
				zap.Int64("chat_id", chatID))
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}
