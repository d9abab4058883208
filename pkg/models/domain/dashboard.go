package domain

import "time"

type SnapshotSource string

const (
	SourceDirect   SnapshotSource = "direct"
	SourceFallback SnapshotSource = "fallback"
)

// DashboardCard is one saved query's result within a dashboard snapshot.
type DashboardCard struct {
	ID          string
	Title       string
	DisplayType string
	Rows        [][]any
	Columns     []CardColumn
	FetchedAt   time.Time
}

type CardColumn struct {
	Name        string
	DisplayName string
}

// ScalarValue returns the single cell of a 1x1 card.
func (c DashboardCard) ScalarValue() (any, bool) {
	if len(c.Rows) == 1 && len(c.Rows[0]) == 1 {
		return c.Rows[0][0], true
	}
	return nil, false
}

// DashboardSnapshot is the dashboard state captured for one report run. It is
// built fresh per run and never mutated after construction.
type DashboardSnapshot struct {
	DashboardID         string
	Name                string
	Description         string
	Cards               []DashboardCard
	Source              SnapshotSource
	FetchedAt           time.Time
	TotalCardsAttempted int
	SuccessfulCards     int
}
