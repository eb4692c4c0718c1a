// Package engine holds the deterministic rules that turn cash records into metrics, risk
// assessments, decisions, alerts and client classifications. Everything here is pure: no I/O,
// no shared state.
package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xaenox/cash-copilot/internal/models"
)

// UnlimitedCoverage is reported as burn rate coverage when nothing is owed
const UnlimitedCoverage = 999

// CoerceCashBalance turns a loosely typed cash balance into a number.
// Anything that is not a finite number or a numeric string becomes 0.
func CoerceCashBalance(raw any) float64 {
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int64:
		v = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		v = f
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		v = f
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CalculateMetrics derives inflow, outflow, projected balance and coverage from raw records
func CalculateMetrics(cash float64, salaries []models.SalaryObligation, bills []models.FixedBill, receivables []models.Receivable) models.FinancialMetrics {
	balance := decimal.NewFromFloat(cash)

	inflow := decimal.Zero
	for _, r := range receivables {
		inflow = inflow.Add(decimal.NewFromFloat(r.Amount))
	}

	outflow := decimal.Zero
	for _, s := range salaries {
		outflow = outflow.Add(decimal.NewFromFloat(s.Amount))
	}
	for _, b := range bills {
		outflow = outflow.Add(decimal.NewFromFloat(b.Amount))
	}

	projected := balance.Sub(outflow)
	status := models.Surplus
	if projected.IsNegative() {
		status = models.Deficit
	}

	coverage := float64(UnlimitedCoverage)
	if outflow.IsPositive() {
		coverage = balance.Div(outflow).Round(2).InexactFloat64()
	}

	return models.FinancialMetrics{
		TotalInflow:      inflow.InexactFloat64(),
		TotalOutflow:     outflow.InexactFloat64(),
		ProjectedBalance: projected.InexactFloat64(),
		LiquidityStatus:  status,
		NetPosition:      balance.Add(inflow).Sub(outflow).InexactFloat64(),
		BurnRateCoverage: coverage,
	}
}

// NewFinanceState assembles the input of an analysis run, computing its metrics
func NewFinanceState(cash float64, salaries []models.SalaryObligation, bills []models.FixedBill, receivables []models.Receivable, prefs *models.Preferences) *models.FinanceState {
	p := models.DefaultPreferences()
	if prefs != nil {
		p = *prefs
	}
	return &models.FinanceState{
		CashBalance: cash,
		Salaries:    salaries,
		FixedBills:  bills,
		Receivables: receivables,
		Preferences: p,
		Metrics:     CalculateMetrics(cash, salaries, bills, receivables),
	}
}
