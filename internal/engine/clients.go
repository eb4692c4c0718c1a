package engine

import (
	"sort"

	"github.com/xaenox/cash-copilot/internal/models"
)

const (
	courtesyReminderAvgDays = 3

	historyStatusSent = "Sent"
)

// clientTier is one row of the client classification table
type clientTier struct {
	score    int
	label    string
	applies  func(p *models.ClientProfile) bool
	opinion  func(p *models.ClientProfile) string
	nextMove func(p *models.ClientProfile) string
}

// clientTiers is evaluated top to bottom, first match wins
var clientTiers = []clientTier{
	{
		score:    80,
		label:    "High Risk",
		applies:  func(p *models.ClientProfile) bool { return p.OverdueAmount > 0 },
		opinion:  func(p *models.ClientProfile) string { return highRiskOpinion(p.OverdueAmount) },
		nextMove: func(*models.ClientProfile) string { return "Send a strong reminder immediately." },
	},
	{
		score:    50,
		label:    "Delays Sometimes",
		applies:  func(p *models.ClientProfile) bool { return p.AvgDueDays < 5 },
		opinion:  func(p *models.ClientProfile) string { return watchOpinion(p.AvgDueDays) },
		nextMove: courtesyOrNothing,
	},
	{
		score:    0,
		label:    "Reliable",
		applies:  func(*models.ClientProfile) bool { return true },
		opinion:  func(p *models.ClientProfile) string { return reliableOpinion(p.AvgDueDays) },
		nextMove: courtesyOrNothing,
	},
}

func courtesyOrNothing(p *models.ClientProfile) string {
	if p.AvgDueDays < courtesyReminderAvgDays {
		return "Send a courtesy reminder in 24 hours."
	}
	return "No immediate action needed."
}

// ClassifyClients groups receivables by exact client name and classifies each client.
// History is attached only where a snapshot's processed targets name the client exactly.
// The result is ordered by risk score, highest first.
func ClassifyClients(receivables []models.Receivable, history []models.AnalysisSnapshot) []models.ClientProfile {
	index := make(map[string]int)
	profiles := []models.ClientProfile{}
	dueSums := []int{}

	for _, r := range receivables {
		i, ok := index[r.Client]
		if !ok {
			i = len(profiles)
			index[r.Client] = i
			profiles = append(profiles, models.ClientProfile{
				Name:          r.Client,
				Email:         r.Email,
				RecentHistory: []models.ClientHistoryEntry{},
			})
			dueSums = append(dueSums, 0)
		}
		p := &profiles[i]
		p.TotalOwed += r.Amount
		p.ItemCount++
		if r.DueInDays < 0 {
			p.OverdueAmount += r.Amount
		}
		dueSums[i] += r.DueInDays
	}

	for _, snap := range history {
		for _, t := range snap.ActionLog.TargetsProcessed {
			i, ok := index[t.Target]
			if !ok {
				continue
			}
			profiles[i].RecentHistory = append(profiles[i].RecentHistory, models.ClientHistoryEntry{
				Date:   snap.CreatedAt,
				Action: snap.ActionLog.ActionTaken,
				Status: historyStatusSent,
			})
		}
	}

	for i := range profiles {
		p := &profiles[i]
		p.AvgDueDays = float64(dueSums[i]) / float64(p.ItemCount)
		tier := matchClientTier(p)
		p.RiskScore = tier.score
		p.RiskLabel = tier.label
		p.Opinion = tier.opinion(p)
		p.NextMove = tier.nextMove(p)
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].RiskScore > profiles[j].RiskScore
	})
	return profiles
}

func matchClientTier(p *models.ClientProfile) clientTier {
	for _, tier := range clientTiers {
		if tier.applies(p) {
			return tier
		}
	}
	return clientTiers[len(clientTiers)-1]
}
