package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xaenox/cash-copilot/internal/models"
)

const (
	criticalRiskThreshold = 70
	watchRiskThreshold    = 40

	soonDueDays    = 3
	payrollDueDays = 7
	billDueDays    = 5

	// fallback scores live on a 1..10 scale
	fallbackScoreScale = 10
)

// AlertInput is everything the alert rules look at. Latest may be nil when no analysis
// has been run yet.
type AlertInput struct {
	Latest      *models.AnalysisSnapshot
	Receivables []models.Receivable
	Salaries    []models.SalaryObligation
	Bills       []models.FixedBill
}

type alertRule func(in *AlertInput) (models.Alert, bool)

// alertRules are evaluated independently and in this order. Each emits at most one alert.
var alertRules = []alertRule{
	riskAlert,
	overdueAlert,
	soonDueAlert,
	payrollAlert,
	billsAlert,
	blockedActionAlert,
}

// SynthesizeAlerts evaluates every alert rule and orders the result by severity.
// Alerts of equal severity keep rule order.
func SynthesizeAlerts(in AlertInput) []models.Alert {
	alerts := []models.Alert{}
	for _, rule := range alertRules {
		if alert, ok := rule(&in); ok {
			alerts = append(alerts, alert)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
	return alerts
}

// DisplayRiskScore maps a snapshot's risk score onto 0..100. Delegated scores already use
// that range; fallback scores are scaled.
func DisplayRiskScore(s *models.AnalysisSnapshot) int {
	if s == nil {
		return 0
	}
	if s.Source == models.SourceFallback {
		return s.RiskAnalysis.RiskScore * fallbackScoreScale
	}
	return s.RiskAnalysis.RiskScore
}

func riskAlert(in *AlertInput) (models.Alert, bool) {
	if in.Latest == nil {
		return models.Alert{}, false
	}
	score := DisplayRiskScore(in.Latest)
	risk := in.Latest.RiskAnalysis

	switch {
	case score > criticalRiskThreshold:
		plan := "Analyzing options"
		if in.Latest.Decision.Strategy != "" {
			plan = fmt.Sprintf("Executing: %s", in.Latest.Decision.Strategy)
		}
		return models.Alert{
			ID:              "risk-critical",
			Severity:        models.SeverityCritical,
			Title:           "Critical Cash Flow Risk",
			Narrative:       fmt.Sprintf("Your company is at %d/100 risk. %s.", score, orDefault(risk.DominantRisk, "Cash shortage detected")),
			TimePressure:    orDefault(risk.CriticalWindow, "Immediate attention required"),
			RecommendedPlan: plan,
			Category:        "financial",
		}, true
	case score > watchRiskThreshold:
		return models.Alert{
			ID:              "risk-warning",
			Severity:        models.SeverityWarning,
			Title:           "Financial Health Under Watch",
			Narrative:       fmt.Sprintf("Risk score at %d/100. %s.", score, orDefault(risk.DominantRisk, "Monitor cash position")),
			TimePressure:    orDefault(risk.CriticalWindow, "Review in 48 hours"),
			RecommendedPlan: "Monitoring actively",
			Category:        "financial",
		}, true
	}
	return models.Alert{}, false
}

func overdueAlert(in *AlertInput) (models.Alert, bool) {
	var (
		count int
		total float64
		worst models.Receivable
	)
	for _, r := range in.Receivables {
		if r.DueInDays >= 0 {
			continue
		}
		if count == 0 || abs(r.DueInDays) > abs(worst.DueInDays) {
			worst = r
		}
		count++
		total += r.Amount
	}
	if count == 0 {
		return models.Alert{}, false
	}

	late := abs(worst.DueInDays)
	return models.Alert{
		ID:       "overdue-payments",
		Severity: models.SeverityCritical,
		Title:    fmt.Sprintf("%d Overdue %s", count, plural(count, "Payment")),
		Narrative: fmt.Sprintf("Client %s is %d days late on %s. Total overdue: %s.",
			worst.Client, late, formatAmount(worst.Amount), formatAmount(total)),
		TimePressure:    fmt.Sprintf("Longest delay: %d days", late),
		RecommendedPlan: "Escalate collection reminders",
		Category:        "overdue",
	}, true
}

func soonDueAlert(in *AlertInput) (models.Alert, bool) {
	var (
		total   float64
		soonest int
		clients []string
	)
	for _, r := range in.Receivables {
		if r.DueInDays <= 0 || r.DueInDays > soonDueDays {
			continue
		}
		if len(clients) == 0 || r.DueInDays < soonest {
			soonest = r.DueInDays
		}
		total += r.Amount
		clients = append(clients, r.Client)
	}
	if len(clients) == 0 {
		return models.Alert{}, false
	}

	count := len(clients)
	return models.Alert{
		ID:              "urgent-payments",
		Severity:        models.SeverityWarning,
		Title:           fmt.Sprintf("%d %s Due Soon", count, plural(count, "Payment")),
		Narrative:       fmt.Sprintf("%s expected in next %d days from %s.", formatAmount(total), soonDueDays, strings.Join(clients, ", ")),
		TimePressure:    fmt.Sprintf("Payments due within %d days", soonest),
		RecommendedPlan: "Send courtesy reminders",
		Category:        "receivable",
	}, true
}

func payrollAlert(in *AlertInput) (models.Alert, bool) {
	var (
		count   int
		total   float64
		soonest int
	)
	for _, s := range in.Salaries {
		if s.DueInDays > payrollDueDays {
			continue
		}
		if count == 0 || s.DueInDays < soonest {
			soonest = s.DueInDays
		}
		count++
		total += s.Amount
	}
	if count == 0 {
		return models.Alert{}, false
	}

	severity, plan := models.SeverityWarning, "Monitoring cash reserves"
	if soonest <= soonDueDays {
		severity, plan = models.SeverityCritical, "Secure funds immediately"
	}
	return models.Alert{
		ID:              "salary-due",
		Severity:        severity,
		Title:           "Team Payroll Approaching",
		Narrative:       fmt.Sprintf("%s in salaries due for %d team %s.", formatAmount(total), count, plural(count, "member")),
		TimePressure:    fmt.Sprintf("Payroll due in %d %s", soonest, plural(soonest, "day")),
		RecommendedPlan: plan,
		Category:        "salary",
	}, true
}

func billsAlert(in *AlertInput) (models.Alert, bool) {
	var (
		total      float64
		soonest    int
		categories []string
	)
	for _, b := range in.Bills {
		if b.DueInDays > billDueDays {
			continue
		}
		if len(categories) == 0 || b.DueInDays < soonest {
			soonest = b.DueInDays
		}
		total += b.Amount
		categories = append(categories, b.Category)
	}
	if len(categories) == 0 {
		return models.Alert{}, false
	}

	return models.Alert{
		ID:              "bills-due",
		Severity:        models.SeverityInfo,
		Title:           "Vendor Payments Upcoming",
		Narrative:       fmt.Sprintf("%s in bills due soon (%s).", formatAmount(total), strings.Join(categories, ", ")),
		TimePressure:    fmt.Sprintf("Due within %d days", soonest),
		RecommendedPlan: "Schedule payments",
		Category:        "vendor",
	}, true
}

// blockedActionAlert fires when a strategy was chosen but nothing was executed
func blockedActionAlert(in *AlertInput) (models.Alert, bool) {
	if in.Latest == nil {
		return models.Alert{}, false
	}
	if in.Latest.ActionLog.ActionTaken != models.ActionNone || in.Latest.Decision.Strategy == models.StrategyNoAction {
		return models.Alert{}, false
	}
	return models.Alert{
		ID:              "action-blocked",
		Severity:        models.SeverityWarning,
		Title:           "Action Execution Issue",
		Narrative:       "An action was recommended but could not be executed automatically.",
		TimePressure:    "Manual review needed",
		RecommendedPlan: "Review decision log and take manual action",
		Category:        "system",
	}, true
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
