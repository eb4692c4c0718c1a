package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaenox/cash-copilot/internal/models"
)

func sampleSalaries() []models.SalaryObligation {
	return []models.SalaryObligation{{Employee: "Dev Team", Amount: 50000, DueInDays: 15}}
}

func sampleBills() []models.FixedBill {
	return []models.FixedBill{{Category: "AWS", Amount: 10000, DueInDays: 10}}
}

func sampleReceivables() []models.Receivable {
	return []models.Receivable{{Client: "Acme Corp", Email: "ap@acme.test", Amount: 60000, DueInDays: 8}}
}

func TestCoerceCashBalance(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
	}{
		{"float", 150000.5, 150000.5},
		{"int", 42, 42},
		{"numeric string", " 1200.25 ", 1200.25},
		{"json number", json.Number("99"), 99},
		{"empty string", "", 0},
		{"garbage string", "lots", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
		{"NaN", math.NaN(), 0},
		{"infinity", math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceCashBalance(tt.raw))
		})
	}
}

func TestCalculateMetrics_SurplusScenario(t *testing.T) {
	m := CalculateMetrics(150000, sampleSalaries(), sampleBills(), sampleReceivables())

	assert.Equal(t, 60000.0, m.TotalOutflow)
	assert.Equal(t, 60000.0, m.TotalInflow)
	assert.Equal(t, 90000.0, m.ProjectedBalance)
	assert.Equal(t, models.Surplus, m.LiquidityStatus)
	assert.Equal(t, 150000.0, m.NetPosition)
	assert.Equal(t, 2.5, m.BurnRateCoverage)
}

func TestCalculateMetrics_DeficitScenario(t *testing.T) {
	m := CalculateMetrics(10000, sampleSalaries(), sampleBills(), sampleReceivables())

	assert.Equal(t, -50000.0, m.ProjectedBalance)
	assert.Equal(t, models.Deficit, m.LiquidityStatus)
	assert.Equal(t, 10000.0, m.NetPosition)
	assert.Equal(t, 0.17, m.BurnRateCoverage)
}

func TestCalculateMetrics_NoRecords(t *testing.T) {
	m := CalculateMetrics(0, nil, nil, nil)

	assert.Equal(t, float64(UnlimitedCoverage), m.BurnRateCoverage)
	assert.Equal(t, 0.0, m.ProjectedBalance)
	assert.Equal(t, models.Surplus, m.LiquidityStatus)
}

func TestCalculateMetrics_Invariants(t *testing.T) {
	cases := []struct {
		cash        float64
		salaries    []float64
		bills       []float64
		receivables []float64
	}{
		{0, nil, nil, nil},
		{100, []float64{100}, nil, nil},
		{99.99, []float64{50.005}, []float64{49.99}, []float64{0.1, 0.2}},
		{1e6, []float64{1, 2, 3}, []float64{4, 5}, []float64{6, 7, 8, 9}},
		{0.3, nil, []float64{0.1, 0.2}, []float64{0.7}},
	}
	for _, c := range cases {
		var (
			salaries    []models.SalaryObligation
			bills       []models.FixedBill
			receivables []models.Receivable
		)
		for _, a := range c.salaries {
			salaries = append(salaries, models.SalaryObligation{Employee: "e", Amount: a})
		}
		for _, a := range c.bills {
			bills = append(bills, models.FixedBill{Category: "b", Amount: a})
		}
		for _, a := range c.receivables {
			receivables = append(receivables, models.Receivable{Client: "c", Amount: a})
		}

		m := CalculateMetrics(c.cash, salaries, bills, receivables)

		assert.InDelta(t, c.cash+m.TotalInflow-m.TotalOutflow, m.NetPosition, 1e-9)
		assert.Equal(t, m.ProjectedBalance >= 0, m.LiquidityStatus == models.Surplus)
	}
}

func TestCalculateMetrics_ExactDecimalSums(t *testing.T) {
	bills := []models.FixedBill{{Category: "a", Amount: 0.1}, {Category: "b", Amount: 0.2}}

	m := CalculateMetrics(0.3, nil, bills, nil)

	assert.Equal(t, 0.3, m.TotalOutflow)
	assert.Equal(t, 0.0, m.ProjectedBalance)
	assert.Equal(t, models.Surplus, m.LiquidityStatus)
}

func TestNewFinanceState_DefaultsPreferences(t *testing.T) {
	state := NewFinanceState(500, nil, nil, nil, nil)

	assert.Equal(t, models.DefaultPreferences(), state.Preferences)
	assert.Equal(t, 500.0, state.Metrics.ProjectedBalance)

	custom := models.Preferences{DontDelaySalaries: false}
	state = NewFinanceState(500, nil, nil, nil, &custom)
	assert.False(t, state.Preferences.DontDelaySalaries)
	assert.False(t, state.Preferences.AvoidVendorDamage)
}
