package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xaenox/cash-copilot/internal/metrics"
	"github.com/xaenox/cash-copilot/internal/models"
	"go.uber.org/zap"
)

// AlertSource produces the current alerts
type AlertSource interface {
	Alerts(ctx context.Context) ([]models.Alert, error)
}

// Channel is one way of delivering a digest
type Channel interface {
	Name() string
	Deliver(ctx context.Context, alerts []models.Alert, at time.Time) error
}

type Scheduler struct {
	cron     *cron.Cron
	source   AlertSource
	channels []Channel
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler runs the digest on spec, a standard five-field cron expression
func NewScheduler(spec string, source AlertSource, logger *zap.Logger, channels ...Channel) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		source:   source,
		channels: channels,
		timeout:  time.Minute,
		now:      time.Now,
		logger:   logger,
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Alert digest failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Alert digest scheduled", zap.Int("channels", len(s.channels)))
}

// Stop waits for a running digest to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce builds the digest and delivers it to every channel. Nothing is sent
// when there are no alerts. Channel failures do not stop the other channels.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	alerts, err := s.source.Alerts(ctx)
	if err != nil {
		return fmt.Errorf("build alerts: %w", err)
	}
	if len(alerts) == 0 {
		s.logger.Info("No alerts, digest skipped")
		return nil
	}

	at := s.now()
	var errs []error
	for _, ch := range s.channels {
		if err := ch.Deliver(ctx, alerts, at); err != nil {
			metrics.DigestsSent.WithLabelValues(ch.Name(), "failed").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		metrics.DigestsSent.WithLabelValues(ch.Name(), "sent").Inc()
	}
	return errors.Join(errs...)
}
