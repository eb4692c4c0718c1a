package engine

import (
	"encoding/json"

	"github.com/xaenox/cash-copilot/internal/models"
)

const unknownLabel = "UNKNOWN"

// AggregateMemory summarizes decision history. The result does not depend on entry order
// except for the order of ClientsInvolved, which follows first appearance.
//
// Amounts are only read from details.amount. Entries built from action logs rarely carry
// that field, so the total is often 0.
func AggregateMemory(entries []models.MemoryEntry) models.MemoryStats {
	stats := models.MemoryStats{
		TotalRecords:       len(entries),
		StrategiesUsed:     make(map[string]int),
		StatusDistribution: make(map[string]int),
		ClientsInvolved:    []string{},
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		stats.StrategiesUsed[labelOrUnknown(e.Strategy)]++
		stats.StatusDistribution[labelOrUnknown(e.Result)]++
		stats.TotalAmountAttempted += detailAmount(e.Details)

		for _, c := range e.Clients {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			stats.ClientsInvolved = append(stats.ClientsInvolved, c)
		}
	}
	return stats
}

func labelOrUnknown(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}

func detailAmount(details map[string]any) float64 {
	switch v := details["amount"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

const statusCompleted = "COMPLETED"

// NewMemoryEntry records one analysis run in decision history. Clients come from the
// processed targets, or the action target(s) when no batch was processed.
func NewMemoryEntry(a *models.Assessment) models.MemoryEntry {
	clients := []string{}
	switch {
	case len(a.ActionLog.TargetsProcessed) > 0:
		for _, t := range a.ActionLog.TargetsProcessed {
			clients = append(clients, t.Target)
		}
	default:
		clients = append(clients, a.ActionLog.Target.Names()...)
	}

	status := a.ActionLog.Result.Status
	if status == "" {
		status = statusCompleted
	}

	return models.MemoryEntry{
		Clients:     clients,
		Strategy:    string(a.Decision.Strategy),
		ActionTaken: a.ActionLog.ActionTaken,
		Result:      status,
		Details:     actionLogDetails(a),
	}
}

// actionLogDetails keeps the planner's action log verbatim when there is one,
// so fields the model does not know about (such as amount) survive.
func actionLogDetails(a *models.Assessment) map[string]any {
	if len(a.Raw) > 0 {
		var body struct {
			ActionLog map[string]any `json:"action_log"`
		}
		if err := json.Unmarshal(a.Raw, &body); err == nil && body.ActionLog != nil {
			return body.ActionLog
		}
	}

	raw, err := json.Marshal(a.ActionLog)
	if err != nil {
		return nil
	}
	var details map[string]any
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil
	}
	return details
}
