package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Sentence templates. The rule functions pick the template and its values; nothing here
// decides anything.

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func surplusReason(cash, projected float64) string {
	return fmt.Sprintf("Cash %s covers Outflows. Projected Balance: %s.", formatAmount(cash), formatAmount(projected))
}

func deficitReason(projected float64, withRaise bool) string {
	reason := fmt.Sprintf("Cash is insufficient. Projected Balance: %s.", formatAmount(projected))
	if withRaise {
		reason += fmt.Sprintf(" Need to raise %s.", formatAmount(math.Abs(projected)))
	}
	return reason
}

func statusQuoRationale(cash float64) string {
	return fmt.Sprintf("Cash balance of %s adequately covers upcoming obligations. No immediate action needed.", formatAmount(cash))
}

func collectRationale(deficit float64, client string, amount float64, dueInDays int) string {
	return fmt.Sprintf("To cover the deficit of %s, collecting receivable from %s (Amount: %s, Due: %d days) is recommended.",
		formatAmount(deficit), client, formatAmount(amount), dueInDays)
}

func renegotiateRationale(category string, deficit float64) string {
	return fmt.Sprintf("Consider negotiating payment terms with %s to manage the deficit of %s.", category, formatAmount(deficit))
}

const externalFundingRationale = "No immediate financial instruments available. Consider external funding."

func highRiskOpinion(overdue float64) string {
	return fmt.Sprintf("Considered risky because of overdue payments of %s.", formatAmount(overdue))
}

func watchOpinion(avgDueDays float64) string {
	return fmt.Sprintf("Monitor closely. Payments are due very soon (avg %.0f days).", math.Round(avgDueDays))
}

func reliableOpinion(avgDueDays float64) string {
	return fmt.Sprintf("Pays on time mostly. Average due in %.0f days.", math.Round(avgDueDays))
}
