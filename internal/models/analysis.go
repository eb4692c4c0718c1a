package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type LiquidityStatus string

const (
	Surplus LiquidityStatus = "SURPLUS"
	Deficit LiquidityStatus = "DEFICIT"
)

// FinancialMetrics is derived from the raw records and never stored on its own
type FinancialMetrics struct {
	TotalInflow      float64         `json:"total_inflow"`
	TotalOutflow     float64         `json:"total_outflow"`
	ProjectedBalance float64         `json:"projected_balance"`
	LiquidityStatus  LiquidityStatus `json:"liquidity_status"`
	NetPosition      float64         `json:"net_position"`
	BurnRateCoverage float64         `json:"burn_rate_coverage"`
}

// SubGoal is the corrective target implied by a risk assessment
type SubGoal struct {
	Intent         string  `json:"intent"`
	RequiredAmount float64 `json:"required_amount"`
	DeadlineDays   int     `json:"deadline_days"`
	Reason         string  `json:"reason"`
}

type RiskAssessment struct {
	RiskScore      int     `json:"risk_score"`
	DominantRisk   string  `json:"dominant_risk"`
	CriticalWindow string  `json:"critical_window"`
	Confidence     string  `json:"confidence"`
	SubGoal        SubGoal `json:"sub_goal"`
}

type Strategy string

const (
	StrategyMaintainStatusQuo  Strategy = "MAINTAIN_STATUS_QUO"
	StrategyCollectReceivable  Strategy = "COLLECT_RECEIVABLE"
	StrategyDelayVendorPayment Strategy = "DELAY_VENDOR_PAYMENT"
	StrategyNoAction           Strategy = "NO_ACTION"
)

type ExecutionParams struct {
	Tone    string `json:"tone"`
	Channel string `json:"channel"`
}

// Target names who a decision or action is aimed at. The planner sends either a
// single name or a list of names; the shape it arrived in is kept when encoding.
type Target struct {
	names []string
	list  bool
}

func SingleTarget(name string) Target {
	if name == "" {
		return Target{}
	}
	return Target{names: []string{name}}
}

func TargetList(names ...string) Target {
	return Target{names: append([]string{}, names...), list: true}
}

// Names returns every named target, skipping blanks and the "None" placeholder
func (t Target) Names() []string {
	out := make([]string, 0, len(t.names))
	for _, n := range t.names {
		if n != "" && n != TargetNone {
			out = append(out, n)
		}
	}
	return out
}

func (t Target) IsList() bool { return t.list }

func (t Target) String() string { return strings.Join(t.names, ", ") }

func (t Target) MarshalJSON() ([]byte, error) {
	if t.list {
		return json.Marshal(append([]string{}, t.names...))
	}
	return json.Marshal(t.String())
}

func (t *Target) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = Target{}
	case len(data) > 0 && data[0] == '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}
		*t = TargetList(names...)
	default:
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*t = SingleTarget(name)
	}
	return nil
}

type Decision struct {
	Strategy        Strategy        `json:"strategy"`
	Target          Target          `json:"target"`
	Rationale       string          `json:"rationale"`
	AmountGoal      float64         `json:"amount_goal"`
	ExecutionParams ExecutionParams `json:"execution_params"`
}

const (
	ActionNone = "NO_ACTION"
	TargetNone = "None"
)

type ProcessedTarget struct {
	Target string `json:"target"`
	Email  string `json:"email,omitempty"`
}

type ActionResult struct {
	Status string `json:"status"`
}

// ActionLog records what, if anything, was executed for a decision
type ActionLog struct {
	ActionTaken      string            `json:"action_taken"`
	Reason           string            `json:"reason,omitempty"`
	Target           Target            `json:"target"`
	TargetsProcessed []ProcessedTarget `json:"targets_processed,omitempty"`
	Result           ActionResult      `json:"result"`
}

// Source tags where an assessment came from
type Source string

const (
	SourceDelegated Source = "DELEGATED"
	SourceFallback  Source = "FALLBACK"
)

// Assessment is the outcome of one assessor. Delegated and fallback results share this shape
// so that persistence and reporting never need to know the origin.
type Assessment struct {
	Source        Source          `json:"source"`
	RiskAnalysis  RiskAssessment  `json:"risk_analysis"`
	SubGoal       SubGoal         `json:"sub_goal"`
	Decision      Decision        `json:"decision"`
	ActionLog     ActionLog       `json:"action_log"`
	MemoryUpdates json.RawMessage `json:"memory_updates,omitempty"`
	// Raw holds the planner body verbatim for delegated assessments
	Raw json.RawMessage `json:"-"`
}

// AnalysisSnapshot is one immutable, timestamped analysis result
type AnalysisSnapshot struct {
	ID               string           `json:"id"`
	Source           Source           `json:"source"`
	RiskAnalysis     RiskAssessment   `json:"risk_analysis"`
	SubGoal          SubGoal          `json:"sub_goal"`
	Decision         Decision         `json:"decision"`
	ActionLog        ActionLog        `json:"action_log"`
	MemoryUpdates    json.RawMessage  `json:"memory_updates,omitempty"`
	FinancialMetrics FinancialMetrics `json:"financial_metrics"`
	PlannerResponse  json.RawMessage  `json:"planner_response,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewSnapshot freezes an assessment together with the metrics it was computed from
func NewSnapshot(a *Assessment, metrics FinancialMetrics) *AnalysisSnapshot {
	return &AnalysisSnapshot{
		Source:           a.Source,
		RiskAnalysis:     a.RiskAnalysis,
		SubGoal:          a.SubGoal,
		Decision:         a.Decision,
		ActionLog:        a.ActionLog,
		MemoryUpdates:    a.MemoryUpdates,
		FinancialMetrics: metrics,
		PlannerResponse:  a.Raw,
	}
}

// MemoryEntry is one append-only row of decision history
type MemoryEntry struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Clients     []string       `json:"clients"`
	Strategy    string         `json:"strategy"`
	ActionTaken string         `json:"action_taken"`
	Result      string         `json:"result"`
	Details     map[string]any `json:"details,omitempty"`
}

// MemoryStats summarizes memory entries for reporting and the assistant
type MemoryStats struct {
	TotalRecords         int            `json:"total_records"`
	StrategiesUsed       map[string]int `json:"strategies_used"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	TotalAmountAttempted float64        `json:"total_amount_attempted"`
	ClientsInvolved      []string       `json:"clients_involved"`
}
