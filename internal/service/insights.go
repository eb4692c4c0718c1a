package service

import (
	"context"
	"fmt"

	"github.com/xaenox/cash-copilot/internal/engine"
	"github.com/xaenox/cash-copilot/internal/metrics"
	"github.com/xaenox/cash-copilot/internal/models"
)

// Alerts synthesizes alerts from the latest analysis and the current records
func (s *Service) Alerts(ctx context.Context) ([]models.Alert, error) {
	latest, err := s.store.LatestAnalysis(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest analysis: %w", err)
	}
	recs, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}

	alerts := engine.SynthesizeAlerts(engine.AlertInput{
		Latest:      latest,
		Receivables: recs.receivables,
		Salaries:    recs.salaries,
		Bills:       recs.bills,
	})
	for _, a := range alerts {
		metrics.AlertsGenerated.WithLabelValues(string(a.Severity)).Inc()
	}
	return alerts, nil
}

// Clients profiles every client with outstanding receivables
func (s *Service) Clients(ctx context.Context) ([]models.ClientProfile, error) {
	receivables, err := s.store.ListReceivables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load receivables: %w", err)
	}
	history, err := s.store.ListAnalyses(ctx, AnalysisListLimit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return engine.ClassifyClients(receivables, history), nil
}

// Memory lists decision history, newest first
func (s *Service) Memory(ctx context.Context) ([]models.MemoryEntry, error) {
	entries, err := s.store.ListMemory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list memory: %w", err)
	}
	return entries, nil
}

func (s *Service) AddMemory(ctx context.Context, e *models.MemoryEntry) error {
	if err := s.store.AppendMemory(ctx, e); err != nil {
		return fmt.Errorf("append memory: %w", err)
	}
	return nil
}

func (s *Service) MemoryStats(ctx context.Context) (models.MemoryStats, error) {
	entries, err := s.Memory(ctx)
	if err != nil {
		return models.MemoryStats{}, err
	}
	return engine.AggregateMemory(entries), nil
}
