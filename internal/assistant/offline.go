package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xaenox/cash-copilot/internal/models"
)

type count struct {
	label string
	n     int
}

// sortedCounts orders by count descending, then label
func sortedCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for label, n := range m {
		out = append(out, count{label, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].label < out[j].label
	})
	return out
}

// statsReply answers from aggregate statistics when no model is reachable
func statsReply(stats models.MemoryStats) models.AssistantReply {
	if stats.TotalRecords == 0 {
		return normalize(models.AssistantReply{
			Answer:              "Memory is empty. No decisions have been recorded yet, so there is nothing to analyze.",
			FollowUpSuggestions: []string{"Run an analysis first, then ask again."},
		})
	}

	strategies := sortedCounts(stats.StrategiesUsed)
	statuses := sortedCounts(stats.StatusDistribution)

	answer := fmt.Sprintf("The assistant model is unavailable, so this is a summary of %d recorded decisions.", stats.TotalRecords)
	if len(strategies) > 0 {
		answer += fmt.Sprintf(" Most used strategy: %s (%d).", strategies[0].label, strategies[0].n)
	}

	insights := make([]string, 0, len(statuses))
	for _, s := range statuses {
		insights = append(insights, fmt.Sprintf("%s: %d of %d", s.label, s.n, stats.TotalRecords))
	}

	points := []string{
		"Total amount attempted: " + decimal.NewFromFloat(stats.TotalAmountAttempted).StringFixed(2),
	}
	if len(stats.ClientsInvolved) > 0 {
		points = append(points, "Clients involved: "+strings.Join(stats.ClientsInvolved, ", "))
	}

	return normalize(models.AssistantReply{
		Answer:      answer,
		KeyInsights: insights,
		DataPoints:  points,
	})
}
