package ledger

import (
	"context"

	"taktsiv/internal/core"
)

// MonthSavings is one point of the savings series.
type MonthSavings struct {
	Month   string     `json:"month"`
	Savings core.Money `json:"savings"`
}

// CategoryShare is one category's slice of lifetime spending.
type CategoryShare struct {
	Category core.Category `json:"category"`
	Spent    core.Money    `json:"spent"`
	Percent  float64       `json:"percent"`
}

// AnalyticsReport aggregates the archive and the lifetime expense log.
type AnalyticsReport struct {
	Savings      []MonthSavings  `json:"savings"`
	TotalSavings core.Money      `json:"totalSavings"`
	Shares       []CategoryShare `json:"shares"`
	TotalSpent   core.Money      `json:"totalSpent"`
}

// Analytics builds the savings series per archived month and the spending
// share per category across the whole expense log.
func (s *Service) Analytics(ctx context.Context) AnalyticsReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := AnalyticsReport{TotalSavings: s.archive.TotalSavings()}
	for _, month := range s.archive.Months() {
		report.Savings = append(report.Savings, MonthSavings{
			Month:   month,
			Savings: s.archive[month].Savings(),
		})
	}

	spent := map[core.Category]core.Money{}
	var total core.Money
	for _, e := range s.ledger.Expenses {
		spent[e.Category] = spent[e.Category].Add(e.Amount)
		total = total.Add(e.Amount)
	}
	report.TotalSpent = total

	for _, c := range core.Categories() {
		amount, ok := spent[c]
		if !ok {
			continue
		}
		share := CategoryShare{Category: c, Spent: amount}
		if total.Agorot > 0 {
			share.Percent = float64(amount.Agorot) / float64(total.Agorot) * 100
		}
		report.Shares = append(report.Shares, share)
	}
	return report
}
