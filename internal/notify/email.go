package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/xaenox/cash-copilot/internal/models"
	"go.uber.org/zap"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
}

// Sender delivers alert digests over SMTP
type Sender struct {
	cfg    SMTPConfig
	send   func(e *email.Email) error
	logger *zap.Logger
}

func NewSender(cfg SMTPConfig, logger *zap.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = func(e *email.Email) error {
		addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		return e.Send(addr, auth)
	}
	return s
}

func (s *Sender) Name() string { return "email" }

// Deliver sends one digest e-mail to every configured recipient
func (s *Sender) Deliver(_ context.Context, alerts []models.Alert, at time.Time) error {
	return s.SendAlertDigest(alerts, at)
}

func (s *Sender) SendAlertDigest(alerts []models.Alert, at time.Time) error {
	if len(s.cfg.To) == 0 {
		return fmt.Errorf("no digest recipients configured")
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = s.cfg.To
	e.Subject = DigestSubject(alerts, at)
	e.Text = []byte(RenderDigest(alerts, at))

	if err := s.send(e); err != nil {
		s.logger.Error("Failed to send alert digest",
			zap.Error(err),
			zap.Strings("to", s.cfg.To))
		return fmt.Errorf("failed to send alert digest: %w", err)
	}

	s.logger.Info("Alert digest sent",
		zap.Strings("to", s.cfg.To),
		zap.String("subject", e.Subject))
	return nil
}

// DigestSubject leads with the number of critical alerts when there are any
func DigestSubject(alerts []models.Alert, at time.Time) string {
	critical := 0
	for _, a := range alerts {
		if a.Severity == models.SeverityCritical {
			critical++
		}
	}
	date := at.Format("2006-01-02")
	if critical > 0 {
		return fmt.Sprintf("[%d critical] Cash alerts for %s", critical, date)
	}
	return fmt.Sprintf("Cash alerts for %s", date)
}

// RenderDigest formats alerts as plain text in the order given
func RenderDigest(alerts []models.Alert, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cash alerts as of %s\n\n", at.Format("2006-01-02 15:04"))
	for i, a := range alerts {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, strings.ToUpper(string(a.Severity)), a.Title)
		fmt.Fprintf(&b, "   %s\n", a.Narrative)
		if a.TimePressure != "" {
			fmt.Fprintf(&b, "   When: %s\n", a.TimePressure)
		}
		if a.RecommendedPlan != "" {
			fmt.Fprintf(&b, "   Plan: %s\n", a.RecommendedPlan)
		}
		b.WriteString("\n")
	}
	b.WriteString("Sent by cash-copilot")
	return b.String()
}
