package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaenox/cash-copilot/internal/models"
)

func TestAggregateMemory_Empty(t *testing.T) {
	stats := AggregateMemory(nil)

	assert.Equal(t, 0, stats.TotalRecords)
	assert.Empty(t, stats.StrategiesUsed)
	assert.Empty(t, stats.StatusDistribution)
	assert.Zero(t, stats.TotalAmountAttempted)
	assert.NotNil(t, stats.ClientsInvolved)
	assert.Empty(t, stats.ClientsInvolved)
}

func TestAggregateMemory_Counts(t *testing.T) {
	entries := []models.MemoryEntry{
		{Clients: []string{"Acme", "Beta"}, Strategy: "COLLECT_RECEIVABLE", Result: "SENT", Details: map[string]any{"amount": 1200.0}},
		{Clients: []string{"Acme"}, Strategy: "COLLECT_RECEIVABLE", Result: "BATCH_PROCESSED"},
		{Strategy: "MAINTAIN_STATUS_QUO", Result: "ANALYSIS_COMPLETE", Details: map[string]any{"amount": 300}},
		{Clients: []string{"Gamma"}},
	}

	stats := AggregateMemory(entries)

	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, map[string]int{"COLLECT_RECEIVABLE": 2, "MAINTAIN_STATUS_QUO": 1, "UNKNOWN": 1}, stats.StrategiesUsed)
	assert.Equal(t, map[string]int{"SENT": 1, "BATCH_PROCESSED": 1, "ANALYSIS_COMPLETE": 1, "UNKNOWN": 1}, stats.StatusDistribution)
	assert.Equal(t, 1500.0, stats.TotalAmountAttempted)
	assert.Equal(t, []string{"Acme", "Beta", "Gamma"}, stats.ClientsInvolved)

	sum := func(m map[string]int) int {
		n := 0
		for _, v := range m {
			n += v
		}
		return n
	}
	assert.Equal(t, len(entries), sum(stats.StrategiesUsed))
	assert.Equal(t, len(entries), sum(stats.StatusDistribution))
}

func TestAggregateMemory_OrderIndependentCounts(t *testing.T) {
	a := models.MemoryEntry{Strategy: "X", Result: "OK", Details: map[string]any{"amount": 10.0}}
	b := models.MemoryEntry{Strategy: "Y", Result: "FAILED", Details: map[string]any{"amount": 5.0}}

	forward := AggregateMemory([]models.MemoryEntry{a, b})
	backward := AggregateMemory([]models.MemoryEntry{b, a})

	assert.Equal(t, forward.StrategiesUsed, backward.StrategiesUsed)
	assert.Equal(t, forward.StatusDistribution, backward.StatusDistribution)
	assert.Equal(t, forward.TotalAmountAttempted, backward.TotalAmountAttempted)
}

func TestAggregateMemory_IgnoresNonNumericAmount(t *testing.T) {
	stats := AggregateMemory([]models.MemoryEntry{{Details: map[string]any{"amount": "lots"}}})

	assert.Zero(t, stats.TotalAmountAttempted)
}

func TestNewMemoryEntry(t *testing.T) {
	t.Run("batch targets", func(t *testing.T) {
		a := &models.Assessment{
			Decision: models.Decision{Strategy: models.StrategyCollectReceivable},
			ActionLog: models.ActionLog{
				ActionTaken:      "EMAIL_SENT",
				TargetsProcessed: []models.ProcessedTarget{{Target: "Acme", Email: "a@x"}, {Target: "Beta"}},
				Result:           models.ActionResult{Status: "BATCH_PROCESSED"},
			},
		}

		e := NewMemoryEntry(a)

		assert.Equal(t, []string{"Acme", "Beta"}, e.Clients)
		assert.Equal(t, "COLLECT_RECEIVABLE", e.Strategy)
		assert.Equal(t, "EMAIL_SENT", e.ActionTaken)
		assert.Equal(t, "BATCH_PROCESSED", e.Result)
		assert.Equal(t, "EMAIL_SENT", e.Details["action_taken"])
	})

	t.Run("single target and default status", func(t *testing.T) {
		a := &models.Assessment{ActionLog: models.ActionLog{ActionTaken: "EMAIL_SENT", Target: models.SingleTarget("Acme")}}

		e := NewMemoryEntry(a)

		assert.Equal(t, []string{"Acme"}, e.Clients)
		assert.Equal(t, "COMPLETED", e.Result)
	})

	t.Run("target list", func(t *testing.T) {
		a := &models.Assessment{ActionLog: models.ActionLog{ActionTaken: "FOUNDER_ALERTED", Target: models.TargetList("Acme", "None", "Beta")}}

		e := NewMemoryEntry(a)

		assert.Equal(t, []string{"Acme", "Beta"}, e.Clients)
	})

	t.Run("raw action log keeps extra fields", func(t *testing.T) {
		a := &models.Assessment{
			Decision:  models.Decision{Strategy: models.StrategyCollectReceivable},
			ActionLog: models.ActionLog{ActionTaken: "EMAIL_SENT", Target: models.SingleTarget("Acme")},
			Raw:       []byte(`{"action_log": {"action_taken": "EMAIL_SENT", "target": "Acme", "amount": 4000}}`),
		}

		e := NewMemoryEntry(a)

		assert.Equal(t, 4000.0, e.Details["amount"])
		assert.Equal(t, 4000.0, AggregateMemory([]models.MemoryEntry{e}).TotalAmountAttempted)
	})

	t.Run("fallback run", func(t *testing.T) {
		a := &models.Assessment{
			Decision:  models.Decision{Strategy: models.StrategyMaintainStatusQuo},
			ActionLog: FallbackActionLog(),
		}

		e := NewMemoryEntry(a)

		assert.Empty(t, e.Clients)
		assert.Equal(t, "ANALYSIS_COMPLETE", e.Result)
		assert.Equal(t, "NO_ACTION", e.ActionTaken)
	})
}
