package report

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/letsmultiply/pulse/pkg/models/api"
	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Runner triggers one report run.
type Runner interface {
	Run(ctx context.Context) domain.RunResult
}

type Handler struct {
	runner Runner
	debug  api.DebugConfig
}

func NewHandler(runner Runner, debug api.DebugConfig) *Handler {
	return &Handler{runner: runner, debug: debug}
}

// TriggerDailyReport runs the report synchronously and reports the outcome:
// 200 on full or partial success, 500 only when no usable report was made.
func (h *Handler) TriggerDailyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	startedAt := time.Now()
	logger.Info().Msg("manually triggering daily report")

	result := h.runner.Run(ctx)
	outcome := toOutcome(result, startedAt, time.Now())

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(ctx, w, status, outcome)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, api.Health{Status: "ok"})
}

// DebugConfig exposes which credentials are configured, with values masked.
func (h *Handler) DebugConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.debug)
}

func toOutcome(result domain.RunResult, startedAt, finishedAt time.Time) api.RunOutcome {
	outcome := api.RunOutcome{
		Success:    result.Success,
		StartedAt:  startedAt.Format(time.RFC3339),
		FinishedAt: finishedAt.Format(time.RFC3339),
	}

	if !result.Success {
		outcome.Error = result.Err
		return outcome
	}

	m := result.Report.Metrics
	data := &api.ReportData{
		Yesterday: api.PeriodStats{
			UniqueUsers: m.YesterdayUniqueUsers,
			TotalEvents: m.YesterdayTotalEvents,
		},
		MonthToDate: api.PeriodStats{
			UniqueUsers: m.MonthToDateUniqueUsers,
			TotalEvents: m.MonthToDateTotalEvents,
		},
		Delivery: api.DeliveryInfo{
			Successful: result.Dispatch.Successful,
			Failed:     make([]string, 0, len(result.Dispatch.Failed)),
		},
	}
	if rate, ok := m.EngagementRatePct(); ok {
		data.Yesterday.EngagementRate = &rate
	}
	if growth, ok := m.DailyGrowthPct(); ok {
		data.MonthToDate.DailyGrowth = &growth
	}
	for _, f := range result.Dispatch.Failed {
		data.Delivery.Failed = append(data.Delivery.Failed, f.Channel)
	}
	if result.Report.Dashboard != nil {
		data.Dashboard = &api.DashboardInfo{
			Name:   result.Report.Dashboard.Name,
			Source: string(result.Report.Dashboard.Source),
			Cards:  len(result.Report.Dashboard.Cards),
		}
	}

	outcome.Message = "Daily report job completed"
	outcome.Data = data
	return outcome
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	logger := zerolog.Ctx(ctx)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}
