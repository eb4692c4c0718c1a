package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/xaenox/cash-copilot/internal/models"
)

const (
	scoreSurplus    = 1
	scoreBorderline = 5
	scoreDeficit    = 8

	intentMaintain = "MAINTAIN_LIQUIDITY"
	intentCover    = "COVER_DEFICIT"

	dominantLow     = "LOW"
	dominantDeficit = "LIQUIDITY_DEFICIT"

	confidenceMedium = "MEDIUM"

	// deficitDeadlineDays is the fixed horizon for covering a deficit
	deficitDeadlineDays = 10

	noWindow = "N/A"
)

// Assessor produces a complete assessment for one finance state.
// The planner client and the local rule table both satisfy it.
type Assessor interface {
	Assess(ctx context.Context, state *models.FinanceState) (*models.Assessment, error)
}

// FallbackAssessor runs the local rule table. It never fails.
type FallbackAssessor struct{}

func (FallbackAssessor) Assess(_ context.Context, state *models.FinanceState) (*models.Assessment, error) {
	return Fallback(state), nil
}

// Fallback computes the local risk assessment, decision and action log
func Fallback(state *models.FinanceState) *models.Assessment {
	decision, subGoal := SelectDecision(state.CashBalance, state.Metrics, state.Receivables, state.FixedBills)
	return &models.Assessment{
		Source:       models.SourceFallback,
		RiskAnalysis: AssessRisk(state.CashBalance, state.Metrics, state.Receivables),
		SubGoal:      subGoal,
		Decision:     decision,
		ActionLog:    FallbackActionLog(),
	}
}

// AssessRisk is the fallback risk assessor. Since SURPLUS means projected >= 0,
// the borderline score of 5 never occurs.
func AssessRisk(cash float64, metrics models.FinancialMetrics, receivables []models.Receivable) models.RiskAssessment {
	dominant := dominantDeficit
	if metrics.LiquidityStatus == models.Surplus {
		dominant = dominantLow
	}
	return models.RiskAssessment{
		RiskScore:      riskScore(metrics),
		DominantRisk:   dominant,
		CriticalWindow: criticalWindow(receivables),
		Confidence:     confidenceMedium,
		SubGoal:        fallbackSubGoal(cash, metrics, true),
	}
}

func riskScore(metrics models.FinancialMetrics) int {
	switch {
	case metrics.LiquidityStatus == models.Surplus:
		return scoreSurplus
	case metrics.ProjectedBalance < 0:
		return scoreDeficit
	default:
		return scoreBorderline
	}
}

func criticalWindow(receivables []models.Receivable) string {
	if len(receivables) == 0 {
		return noWindow
	}
	soonest := receivables[0].DueInDays
	for _, r := range receivables[1:] {
		if r.DueInDays < soonest {
			soonest = r.DueInDays
		}
	}
	return fmt.Sprintf("%d days", soonest)
}

// fallbackSubGoal is shared by the risk assessment and the decision. Only the risk
// assessment's deficit reason names the amount to raise.
func fallbackSubGoal(cash float64, metrics models.FinancialMetrics, withRaise bool) models.SubGoal {
	if metrics.LiquidityStatus == models.Surplus {
		return models.SubGoal{
			Intent: intentMaintain,
			Reason: surplusReason(cash, metrics.ProjectedBalance),
		}
	}
	return models.SubGoal{
		Intent:         intentCover,
		RequiredAmount: math.Abs(metrics.ProjectedBalance),
		DeadlineDays:   deficitDeadlineDays,
		Reason:         deficitReason(metrics.ProjectedBalance, withRaise),
	}
}
