package clevertap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const appOpenedEvent = "app_opened"

// FetchDailyMetrics runs the four app-open count queries for ref (normally
// yesterday): single-day unique and total, month-to-date unique and total.
// The queries are independent and run concurrently; a failed query leaves its
// counter at 0 and records the failure instead of aborting the others.
func (c *Client) FetchDailyMetrics(ctx context.Context, ref time.Time) domain.DailyMetrics {
	logger := zerolog.Ctx(ctx)

	yesterday := domain.SingleDayWindow(ref)
	monthToDate := domain.MonthToDateWindow(ref)

	metrics := domain.DailyMetrics{
		Yesterday:             yesterday,
		MonthToDate:           monthToDate,
		InternalUsersExcluded: c.excludeInternal,
	}

	queries := []struct {
		label  string
		window domain.DayWindow
		unique bool
		target *int
	}{
		{"yesterday unique users", yesterday, true, &metrics.YesterdayUniqueUsers},
		{"yesterday total events", yesterday, false, &metrics.YesterdayTotalEvents},
		{"month-to-date unique users", monthToDate, true, &metrics.MonthToDateUniqueUsers},
		{"month-to-date total events", monthToDate, false, &metrics.MonthToDateTotalEvents},
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, q := range queries {
		q := q
		g.Go(func() error {
			result := c.CountEvents(ctx, domain.CountQuery{
				EventName:       appOpenedEvent,
				From:            q.window.FromYMD(),
				To:              q.window.ToYMD(),
				Unique:          q.unique,
				ExcludeInternal: c.excludeInternal,
			})

			mu.Lock()
			defer mu.Unlock()
			if result.Status == domain.CountSuccess {
				*q.target = result.Count
			} else {
				logger.Warn().Str("query", q.label).Str("error", result.Err).Msg("count query failed")
				metrics.Errors = append(metrics.Errors, fmt.Sprintf("%s: %s", q.label, result.Err))
			}
			return nil
		})
	}
	// Goroutines never return errors; failures degrade to zero counters.
	_ = g.Wait()

	metrics.MonthTotalAppOpens = metrics.MonthToDateTotalEvents
	return metrics
}
