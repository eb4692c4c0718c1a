package engine

import (
	"math"

	"github.com/xaenox/cash-copilot/internal/models"
)

const (
	toneNone    = "NONE"
	tonePolite  = "POLITE"
	channelNone = "NONE"
	channelMail = "EMAIL"

	fallbackActionReason = "Basic analysis mode (AI agents unavailable)"
	statusAnalysisDone   = "ANALYSIS_COMPLETE"
)

type decisionInput struct {
	cash        float64
	metrics     models.FinancialMetrics
	receivables []models.Receivable
	bills       []models.FixedBill
}

func (in decisionInput) deficit() float64 {
	return math.Abs(in.metrics.ProjectedBalance)
}

// decisionRule is one row of the fallback decision table
type decisionRule struct {
	name    string
	applies func(in decisionInput) bool
	decide  func(in decisionInput) models.Decision
}

// decisionRules is evaluated top to bottom, first match wins. "First" receivable or bill
// means input order; no secondary sort key is applied.
var decisionRules = []decisionRule{
	{
		name:    "surplus",
		applies: func(in decisionInput) bool { return in.metrics.LiquidityStatus == models.Surplus },
		decide: func(in decisionInput) models.Decision {
			return models.Decision{
				Strategy:        models.StrategyMaintainStatusQuo,
				Target:          models.SingleTarget(models.TargetNone),
				Rationale:       statusQuoRationale(in.cash),
				ExecutionParams: models.ExecutionParams{Tone: toneNone, Channel: channelNone},
			}
		},
	},
	{
		name:    "collect-receivable",
		applies: func(in decisionInput) bool { return len(in.receivables) > 0 },
		decide: func(in decisionInput) models.Decision {
			first := in.receivables[0]
			return deficitDecision(in, models.StrategyCollectReceivable, first.Client,
				collectRationale(in.deficit(), first.Client, first.Amount, first.DueInDays))
		},
	},
	{
		name:    "delay-vendor",
		applies: func(in decisionInput) bool { return len(in.bills) > 0 },
		decide: func(in decisionInput) models.Decision {
			first := in.bills[0]
			return deficitDecision(in, models.StrategyDelayVendorPayment, first.Category,
				renegotiateRationale(first.Category, in.deficit()))
		},
	},
	{
		name:    "external-funding",
		applies: func(decisionInput) bool { return true },
		decide: func(in decisionInput) models.Decision {
			return deficitDecision(in, models.StrategyDelayVendorPayment, models.TargetNone, externalFundingRationale)
		},
	},
}

func deficitDecision(in decisionInput, strategy models.Strategy, target, rationale string) models.Decision {
	return models.Decision{
		Strategy:        strategy,
		Target:          models.SingleTarget(target),
		Rationale:       rationale,
		AmountGoal:      in.deficit(),
		ExecutionParams: models.ExecutionParams{Tone: tonePolite, Channel: channelMail},
	}
}

// SelectDecision runs the fallback decision table and returns the chosen decision with its
// self-describing sub-goal
func SelectDecision(cash float64, metrics models.FinancialMetrics, receivables []models.Receivable, bills []models.FixedBill) (models.Decision, models.SubGoal) {
	in := decisionInput{cash: cash, metrics: metrics, receivables: receivables, bills: bills}
	return matchDecisionRule(in).decide(in), fallbackSubGoal(cash, metrics, false)
}

func matchDecisionRule(in decisionInput) decisionRule {
	for _, rule := range decisionRules {
		if rule.applies(in) {
			return rule
		}
	}
	// the last rule always applies
	return decisionRules[len(decisionRules)-1]
}

// FallbackActionLog is the action log of every locally computed analysis.
// The local path never executes communications.
func FallbackActionLog() models.ActionLog {
	return models.ActionLog{
		ActionTaken: models.ActionNone,
		Reason:      fallbackActionReason,
		Result:      models.ActionResult{Status: statusAnalysisDone},
	}
}
