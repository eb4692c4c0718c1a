package service

import (
	"context"
	"fmt"

	"github.com/xaenox/cash-copilot/internal/engine"
	"github.com/xaenox/cash-copilot/internal/metrics"
	"github.com/xaenox/cash-copilot/internal/models"
	"github.com/xaenox/cash-copilot/internal/planner"
	"go.uber.org/zap"
)

// AnalysisRequest is the input of one analysis run. CashBalance is coerced, so
// any JSON value is accepted.
type AnalysisRequest struct {
	CashBalance any                 `json:"cash_balance"`
	Preferences *models.Preferences `json:"preferences,omitempty"`
}

// RunAnalysis computes metrics, obtains an assessment and persists the result.
// A failing planner degrades to the local rules. Persistence failures are logged
// and counted but do not fail the run. An error is returned only when the
// records cannot be loaded, in which case nothing is persisted.
func (s *Service) RunAnalysis(ctx context.Context, req AnalysisRequest) (*models.AnalysisSnapshot, error) {
	cash := engine.CoerceCashBalance(req.CashBalance)

	recs, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}

	state := engine.NewFinanceState(cash, recs.salaries, recs.bills, recs.receivables, req.Preferences)

	s.logger.Info("analysis requested",
		zap.Float64("cash_balance", cash),
		zap.Float64("net_position", state.Metrics.NetPosition),
		zap.Int("salaries", len(recs.salaries)),
		zap.Int("bills", len(recs.bills)),
		zap.Int("receivables", len(recs.receivables)))

	assessment := s.assess(ctx, state)

	snapshot := models.NewSnapshot(assessment, state.Metrics)
	entry := engine.NewMemoryEntry(assessment)

	// The caller going away must not lose an analysis that already ran.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.store.AppendAnalysis(persistCtx, snapshot); err != nil {
		metrics.PersistenceFailures.WithLabelValues("analysis").Inc()
		s.logger.Error("Failed to save analysis", zap.Error(err), zap.String("source", string(assessment.Source)))
	}
	if err := s.store.AppendMemory(persistCtx, &entry); err != nil {
		metrics.PersistenceFailures.WithLabelValues("memory").Inc()
		s.logger.Error("Failed to save memory entry", zap.Error(err), zap.String("strategy", entry.Strategy))
	}

	metrics.AnalysisRuns.WithLabelValues(string(assessment.Source)).Inc()
	s.logger.Info("analysis complete",
		zap.String("source", string(assessment.Source)),
		zap.String("strategy", string(assessment.Decision.Strategy)),
		zap.Int("risk_score", assessment.RiskAnalysis.RiskScore))

	return snapshot, nil
}

func (s *Service) assess(ctx context.Context, state *models.FinanceState) *models.Assessment {
	if s.delegate == nil {
		return engine.Fallback(state)
	}

	assessment, err := s.delegate.Assess(ctx, state)
	if err == nil {
		return assessment
	}

	reason := planner.ReasonOf(err)
	metrics.PlannerFailures.WithLabelValues(string(reason)).Inc()
	s.logger.Warn("Planner unavailable, using local rules",
		zap.Error(err),
		zap.String("reason", string(reason)))

	return engine.Fallback(state)
}

// Analyses lists stored analyses, newest first
func (s *Service) Analyses(ctx context.Context) ([]models.AnalysisSnapshot, error) {
	analyses, err := s.store.ListAnalyses(ctx, AnalysisListLimit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return analyses, nil
}

// LatestAnalysis returns nil when no analysis has run yet
func (s *Service) LatestAnalysis(ctx context.Context) (*models.AnalysisSnapshot, error) {
	latest, err := s.store.LatestAnalysis(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest analysis: %w", err)
	}
	return latest, nil
}
