package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaenox/cash-copilot/internal/models"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"1200.50", "1200\\.50"},
		{"-5000", "\\-5000"},
		{"a_b*c", "a\\_b\\*c"},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeMarkdown(tt.in), tt.in)
	}
}

func TestFormatStats(t *testing.T) {
	assert.Equal(t, "No decisions recorded yet\\. Run /analyze first\\.", formatStats(models.MemoryStats{}))

	text := formatStats(models.MemoryStats{
		TotalRecords:         3,
		StrategiesUsed:       map[string]int{"NO_ACTION": 1, "COLLECT_RECEIVABLE": 2},
		TotalAmountAttempted: 4000,
		ClientsInvolved:      []string{"Acme", "Globex"},
	})

	assert.Contains(t, text, "*Decisions recorded:* 3")
	assert.Contains(t, text, "*Amount attempted:* 4000\\.00")
	assert.Contains(t, text, "\\- COLLECT\\_RECEIVABLE: 2\n\\- NO\\_ACTION: 1")
	assert.Contains(t, text, "*Clients:* Acme, Globex")
}

func TestFormatClients(t *testing.T) {
	text := formatClients([]models.ClientProfile{{
		Name: "Acme", RiskLabel: "High Risk", RiskScore: 80,
		TotalOwed: 1200, OverdueAmount: 1200, NextMove: "Call today.",
	}})

	assert.Equal(t, "*Clients:*\n\n*Acme* \\(High Risk, 80/100\\)\nOwes 1200\\.00, overdue 1200\\.00\nNext: Call today\\.\n", text)
}

func TestFormatReply(t *testing.T) {
	text := formatReply(&models.AssistantReply{
		Answer:              "Two collections.",
		KeyInsights:         []string{"SENT: 2 of 2"},
		FollowUpSuggestions: []string{"Which client pays slowest?"},
	})

	assert.Equal(t, "Two collections\\.\n\n*Insights:*\n\\- SENT: 2 of 2\n\n*You could ask:*\n_Which client pays slowest?_", text)
}

func TestFormatHistory_Limit(t *testing.T) {
	history := make([]models.ChatMessage, 0, 15)
	for i := 0; i < 15; i++ {
		history = append(history, models.ChatMessage{Role: models.RoleUser, Content: string(rune('a' + i))})
	}

	text := formatHistory(history, historyLimit)

	assert.NotContains(t, text, "*You:* e\n")
	assert.Contains(t, text, "*You:* f\n")
	assert.Contains(t, text, "*You:* o")
}
