package models

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank orders severities, lower is more urgent
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Alert is an actionable, human-facing warning derived from the latest analysis
type Alert struct {
	ID              string   `json:"id"`
	Severity        Severity `json:"severity"`
	Title           string   `json:"title"`
	Narrative       string   `json:"narrative"`
	TimePressure    string   `json:"time_pressure"`
	RecommendedPlan string   `json:"recommended_plan"`
	Category        string   `json:"category"`
}

type ClientHistoryEntry struct {
	Date   time.Time `json:"date"`
	Action string    `json:"action"`
	Status string    `json:"status"`
}

// ClientProfile aggregates every receivable owed by one client
type ClientProfile struct {
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	TotalOwed     float64              `json:"total_owed"`
	OverdueAmount float64              `json:"overdue_amount"`
	ItemCount     int                  `json:"item_count"`
	AvgDueDays    float64              `json:"avg_due_days"`
	RiskScore     int                  `json:"risk_score"`
	RiskLabel     string               `json:"risk_label"`
	Opinion       string               `json:"opinion"`
	NextMove      string               `json:"next_move"`
	RecentHistory []ClientHistoryEntry `json:"recent_history"`
}

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AssistantReply is the structured answer to a chat question
type AssistantReply struct {
	Answer              string   `json:"answer"`
	KeyInsights         []string `json:"key_insights"`
	DataPoints          []string `json:"data_points"`
	FollowUpSuggestions []string `json:"follow_up_suggestions"`
}
