// Package planner calls the external planning service that produces delegated
// assessments, and classifies its failures so callers can fall back.
package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/xaenox/cash-copilot/internal/metrics"
	"github.com/xaenox/cash-copilot/internal/models"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 60 * time.Second

	analysisPath = "/run-analysis"
	maxBodyBytes = 4 << 20
)

//go:embed schema.json
var responseSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(responseSchema)

type Config struct {
	URL     string
	Timeout time.Duration
}

// Client is the delegated assessor
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type wireSalary struct {
	Employee  string  `json:"employee"`
	Amount    float64 `json:"amount"`
	DueInDays int     `json:"due_in_days"`
}

type wireBill struct {
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	DueInDays int     `json:"due_in_days"`
}

type wireReceivable struct {
	Client    string  `json:"client"`
	Email     string  `json:"email"`
	Amount    float64 `json:"amount"`
	DueInDays int     `json:"due_in_days"`
}

type wireRequest struct {
	CashBalance      float64                 `json:"cash_balance"`
	Salaries         []wireSalary            `json:"salaries"`
	FixedBills       []wireBill              `json:"fixed_bills"`
	Receivables      []wireReceivable        `json:"receivables"`
	Preferences      models.Preferences      `json:"preferences"`
	FinancialMetrics models.FinancialMetrics `json:"financial_metrics"`
}

// Planners may emit whole numbers as floats (85.0), so scores and day
// counts are decoded as float64 and rounded.
type wireSubGoal struct {
	Intent         string  `json:"intent"`
	RequiredAmount float64 `json:"required_amount"`
	DeadlineDays   float64 `json:"deadline_days"`
	Reason         string  `json:"reason"`
}

func (g wireSubGoal) model() models.SubGoal {
	return models.SubGoal{
		Intent:         g.Intent,
		RequiredAmount: g.RequiredAmount,
		DeadlineDays:   int(math.Round(g.DeadlineDays)),
		Reason:         g.Reason,
	}
}

type wireRiskAnalysis struct {
	RiskScore      float64      `json:"risk_score"`
	DominantRisk   string       `json:"dominant_risk"`
	CriticalWindow string       `json:"critical_window"`
	Confidence     string       `json:"confidence"`
	SubGoal        *wireSubGoal `json:"sub_goal"`
}

func (r wireRiskAnalysis) model() models.RiskAssessment {
	risk := models.RiskAssessment{
		RiskScore:      int(math.Round(r.RiskScore)),
		DominantRisk:   r.DominantRisk,
		CriticalWindow: r.CriticalWindow,
		Confidence:     r.Confidence,
	}
	if r.SubGoal != nil {
		risk.SubGoal = r.SubGoal.model()
	}
	return risk
}

type wireResponse struct {
	RiskAnalysis  wireRiskAnalysis  `json:"risk_analysis"`
	SubGoal       *wireSubGoal      `json:"sub_goal"`
	Decision      models.Decision   `json:"decision"`
	ActionLog     *models.ActionLog `json:"action_log"`
	MemoryUpdates json.RawMessage   `json:"memory_updates"`
}

func newWireRequest(state *models.FinanceState) wireRequest {
	req := wireRequest{
		CashBalance:      state.CashBalance,
		Salaries:         make([]wireSalary, 0, len(state.Salaries)),
		FixedBills:       make([]wireBill, 0, len(state.FixedBills)),
		Receivables:      make([]wireReceivable, 0, len(state.Receivables)),
		Preferences:      state.Preferences,
		FinancialMetrics: state.Metrics,
	}
	for _, s := range state.Salaries {
		req.Salaries = append(req.Salaries, wireSalary{Employee: s.Employee, Amount: s.Amount, DueInDays: s.DueInDays})
	}
	for _, b := range state.FixedBills {
		req.FixedBills = append(req.FixedBills, wireBill{Type: b.Category, Amount: b.Amount, DueInDays: b.DueInDays})
	}
	for _, r := range state.Receivables {
		req.Receivables = append(req.Receivables, wireReceivable{Client: r.Client, Email: r.Email, Amount: r.Amount, DueInDays: r.DueInDays})
	}
	return req
}

// Assess posts the finance state to the planner and returns a DELEGATED assessment.
// Every failure is returned as *Error.
func (c *Client) Assess(ctx context.Context, state *models.FinanceState) (*models.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(newWireRequest(state))
	if err != nil {
		return nil, &Error{Reason: ReasonDecode, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analysisPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Reason: ReasonTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.PlannerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &Error{Reason: transportReason(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Reason: transportReason(err), Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Reason: ReasonStatus, Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, snippet(body))}
	}

	assessment, err := parseResponse(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("planner responded",
		zap.String("strategy", string(assessment.Decision.Strategy)),
		zap.Int("risk_score", assessment.RiskAnalysis.RiskScore),
		zap.Duration("elapsed", time.Since(start)))

	return assessment, nil
}

func parseResponse(body []byte) (*models.Assessment, error) {
	if !json.Valid(body) {
		return nil, &Error{Reason: ReasonDecode, Err: fmt.Errorf("response is not JSON: %s", snippet(body))}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, &Error{Reason: ReasonSchema, Err: fmt.Errorf("validation error: %w", err)}
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, &Error{Reason: ReasonSchema, Err: fmt.Errorf("response validation failed: %v", errs)}
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &Error{Reason: ReasonDecode, Err: fmt.Errorf("decode response: %w", err)}
	}

	risk := wire.RiskAnalysis.model()
	subGoal := risk.SubGoal
	if wire.SubGoal != nil {
		subGoal = wire.SubGoal.model()
	}
	actionLog := models.ActionLog{ActionTaken: models.ActionNone}
	if wire.ActionLog != nil {
		actionLog = *wire.ActionLog
	}

	return &models.Assessment{
		Source:        models.SourceDelegated,
		RiskAnalysis:  risk,
		SubGoal:       subGoal,
		Decision:      wire.Decision,
		ActionLog:     actionLog,
		MemoryUpdates: wire.MemoryUpdates,
		Raw:           json.RawMessage(body),
	}, nil
}

func transportReason(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonTransport
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
