package metabase

import (
	"github.com/letsmultiply/pulse/pkg/models/domain"
)

// FallbackSnapshot is the fixed sample dataset used whenever the live
// dashboard cannot be fetched. It guarantees the report always has a
// renderable dashboard section.
func (c *Client) FallbackSnapshot() domain.DashboardSnapshot {
	now := c.now()

	scalar := func(id, title string, value int) domain.DashboardCard {
		return domain.DashboardCard{
			ID:          id,
			Title:       title,
			DisplayType: "scalar",
			Rows:        [][]any{{value}},
			Columns:     []domain.CardColumn{{Name: "count", DisplayName: "Count"}},
			FetchedAt:   now,
		}
	}

	cards := []domain.DashboardCard{
		scalar("sample-1", "New Users Created Yesterday", 178),
		scalar("sample-2", "QG_User_Count_Yesterday", 178),
		scalar("sample-3", "Quotations_Created_Yesterday", 225),
		scalar("sample-4", "DP's Created Today", 152),
	}

	return domain.DashboardSnapshot{
		DashboardID:         "17",
		Name:                "App Analytics - Yesterday (Fallback)",
		Description:         "Sample data - API connection issue",
		Cards:               cards,
		Source:              domain.SourceFallback,
		FetchedAt:           now,
		TotalCardsAttempted: len(cards),
		SuccessfulCards:     len(cards),
	}
}
