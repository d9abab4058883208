package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

// MetricsFetcher produces the four daily app-open counters. Implementations
// degrade per-metric failures to zero counters instead of erroring.
type MetricsFetcher interface {
	FetchDailyMetrics(ctx context.Context, ref time.Time) domain.DailyMetrics
}

// DashboardFetcher captures the BI dashboard state, falling back to sample
// data rather than erroring.
type DashboardFetcher interface {
	FetchDashboardSnapshot(ctx context.Context) domain.DashboardSnapshot
}

// Assembler builds one report: metrics first, then the best-effort dashboard
// section, then derived indicators and the rendered message.
type Assembler struct {
	metrics   MetricsFetcher
	dashboard DashboardFetcher
	now       func() time.Time
}

// NewAssembler wires the assembler. dashboard may be nil when the dashboard
// integration is not configured; the report then has no dashboard section.
func NewAssembler(metrics MetricsFetcher, dashboard DashboardFetcher) *Assembler {
	return &Assembler{
		metrics:   metrics,
		dashboard: dashboard,
		now:       time.Now,
	}
}

// BuildReport assembles the report for yesterday. It fails only when no
// metric could be produced at all; dashboard problems degrade to the
// fallback snapshot inside the fetcher and never surface here.
func (a *Assembler) BuildReport(ctx context.Context) (domain.Report, error) {
	logger := zerolog.Ctx(ctx)

	yesterday := domain.TruncateDay(a.now().AddDate(0, 0, -1))
	metrics := a.metrics.FetchDailyMetrics(ctx, yesterday)
	if metrics.AllFailed() {
		return domain.Report{}, fmt.Errorf("no metrics could be produced: %s", strings.Join(metrics.Errors, "; "))
	}

	var dashboard *domain.DashboardSnapshot
	if a.dashboard != nil {
		snapshot := a.dashboard.FetchDashboardSnapshot(ctx)
		dashboard = &snapshot
		logger.Info().
			Str("dashboard", snapshot.Name).
			Str("source", string(snapshot.Source)).
			Int("cards", len(snapshot.Cards)).
			Msg("dashboard snapshot ready")
	}

	report := domain.Report{
		Metrics:   metrics,
		Dashboard: dashboard,
	}
	report.Message = Render(report)
	return report, nil
}
