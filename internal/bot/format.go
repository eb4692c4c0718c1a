package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xaenox/cash-copilot/internal/engine"
	"github.com/xaenox/cash-copilot/internal/models"
)

const historyLimit = 10

var severityIcon = map[models.Severity]string{
	models.SeverityCritical: "🔴",
	models.SeverityWarning:  "🟠",
	models.SeverityInfo:     "🔵",
}

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatAnalysis(s *models.AnalysisSnapshot) string {
	m := s.FinancialMetrics
	text := fmt.Sprintf("*Risk:* %d/100 %s\n",
		engine.DisplayRiskScore(s),
		escapeMarkdown("("+s.RiskAnalysis.DominantRisk+")"))
	text += fmt.Sprintf("*Projected balance:* %s \\(%s\\)\n",
		escapeMarkdown(money(m.ProjectedBalance)),
		escapeMarkdown(string(m.LiquidityStatus)))
	text += fmt.Sprintf("*Inflow:* %s  *Outflow:* %s\n",
		escapeMarkdown(money(m.TotalInflow)),
		escapeMarkdown(money(m.TotalOutflow)))

	text += fmt.Sprintf("\n*Decision:* %s", escapeMarkdown(string(s.Decision.Strategy)))
	if names := s.Decision.Target.Names(); len(names) > 0 {
		text += " → " + escapeMarkdown(strings.Join(names, ", "))
	}
	text += "\n"
	if s.Decision.Rationale != "" {
		text += fmt.Sprintf("_%s_\n", escapeMarkdown(s.Decision.Rationale))
	}
	if s.ActionLog.ActionTaken != "" && s.ActionLog.Result.Status != "" {
		text += fmt.Sprintf("*Action:* %s \\(%s\\)\n",
			escapeMarkdown(s.ActionLog.ActionTaken),
			escapeMarkdown(s.ActionLog.Result.Status))
	}
	text += escapeMarkdown("Source: " + string(s.Source))
	return text
}

func formatAlerts(alerts []models.Alert) string {
	text := "*Alerts:*\n\n"
	for _, a := range alerts {
		text += fmt.Sprintf("%s *%s*\n", severityIcon[a.Severity], escapeMarkdown(a.Title))
		text += escapeMarkdown(a.Narrative) + "\n"
		if a.RecommendedPlan != "" {
			text += fmt.Sprintf("_%s_\n", escapeMarkdown("Plan: "+a.RecommendedPlan))
		}
		text += "\n"
	}
	return strings.TrimSuffix(text, "\n")
}

func formatClients(clients []models.ClientProfile) string {
	text := "*Clients:*\n\n"
	for _, c := range clients {
		text += fmt.Sprintf("*%s* %s\n",
			escapeMarkdown(c.Name),
			escapeMarkdown(fmt.Sprintf("(%s, %d/100)", c.RiskLabel, c.RiskScore)))
		text += escapeMarkdown(fmt.Sprintf("Owes %s, overdue %s", money(c.TotalOwed), money(c.OverdueAmount))) + "\n"
		text += fmt.Sprintf("Next: %s\n\n", escapeMarkdown(c.NextMove))
	}
	return strings.TrimSuffix(text, "\n")
}

func formatStats(stats models.MemoryStats) string {
	if stats.TotalRecords == 0 {
		return escapeMarkdown("No decisions recorded yet. Run /analyze first.")
	}

	text := fmt.Sprintf("*Decisions recorded:* %d\n", stats.TotalRecords)
	text += fmt.Sprintf("*Amount attempted:* %s\n", escapeMarkdown(money(stats.TotalAmountAttempted)))
	if len(stats.StrategiesUsed) > 0 {
		text += "\n*Strategies:*\n"
		for _, sc := range sortedCounts(stats.StrategiesUsed) {
			text += escapeMarkdown(fmt.Sprintf("- %s: %d", sc.label, sc.count)) + "\n"
		}
	}
	if len(stats.ClientsInvolved) > 0 {
		text += fmt.Sprintf("\n*Clients:* %s\n", escapeMarkdown(strings.Join(stats.ClientsInvolved, ", ")))
	}
	return strings.TrimSuffix(text, "\n")
}

func formatReply(r *models.AssistantReply) string {
	text := escapeMarkdown(r.Answer) + "\n"
	if len(r.KeyInsights) > 0 {
		text += "\n*Insights:*\n"
		for _, s := range r.KeyInsights {
			text += escapeMarkdown("- "+s) + "\n"
		}
	}
	if len(r.FollowUpSuggestions) > 0 {
		text += "\n*You could ask:*\n"
		for _, s := range r.FollowUpSuggestions {
			text += fmt.Sprintf("_%s_\n", escapeMarkdown(s))
		}
	}
	return strings.TrimSuffix(text, "\n")
}

// formatHistory shows the last limit messages, oldest first
func formatHistory(history []models.ChatMessage, limit int) string {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	text := "*Recent conversation:*\n\n"
	for _, m := range history {
		who := "You"
		if m.Role == models.RoleAssistant {
			who = "Copilot"
		}
		text += fmt.Sprintf("*%s:* %s\n", who, escapeMarkdown(m.Content))
	}
	return strings.TrimSuffix(text, "\n")
}

type labelCount struct {
	label string
	count int
}

func sortedCounts(m map[string]int) []labelCount {
	out := make([]labelCount, 0, len(m))
	for k, v := range m {
		out = append(out, labelCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].label < out[j].label
	})
	return out
}
