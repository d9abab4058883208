package domain

// CountQuery describes one event-count request against the analytics API.
// From and To are inclusive YYYYMMDD integers with From <= To.
type CountQuery struct {
	EventName       string
	From            int
	To              int
	Unique          bool
	ExcludeInternal bool
}

type CountStatus string

const (
	CountSuccess CountStatus = "success"
	CountPending CountStatus = "pending"
	CountFail    CountStatus = "fail"
)

// CountResult is the terminal outcome of one count query. Count is only
// meaningful when Status is CountSuccess; Err is populated on CountFail.
type CountResult struct {
	Status CountStatus
	Count  int
	Err    string
}

// DailyMetrics holds the app-open counters for one report run. Counters whose
// query failed stay 0; the failure is recorded in Errors.
type DailyMetrics struct {
	Yesterday              DayWindow
	MonthToDate            DayWindow
	YesterdayUniqueUsers   int
	YesterdayTotalEvents   int
	MonthToDateUniqueUsers int
	MonthToDateTotalEvents int
	MonthTotalAppOpens     int
	InternalUsersExcluded  bool
	Errors                 []string
}

// AllFailed reports whether every one of the four count queries failed.
func (m DailyMetrics) AllFailed() bool {
	return len(m.Errors) >= 4
}

// DailyGrowthPct is yesterday's unique users as a percentage of month-to-date
// unique users. ok is false when the denominator is 0.
func (m DailyMetrics) DailyGrowthPct() (pct float64, ok bool) {
	if m.MonthToDateUniqueUsers == 0 {
		return 0, false
	}
	return float64(m.YesterdayUniqueUsers) / float64(m.MonthToDateUniqueUsers) * 100, true
}

// EngagementRatePct is yesterday's total events as a percentage of
// yesterday's unique users. ok is false when the denominator is 0.
func (m DailyMetrics) EngagementRatePct() (pct float64, ok bool) {
	if m.YesterdayUniqueUsers == 0 {
		return 0, false
	}
	return float64(m.YesterdayTotalEvents) / float64(m.YesterdayUniqueUsers) * 100, true
}

// YesterdayVsMonthAvgPct compares yesterday's unique users against the
// average daily unique users over the elapsed days of the month. ok is false
// when no average can be formed.
func (m DailyMetrics) YesterdayVsMonthAvgPct(daysElapsed int) (pct float64, ok bool) {
	if daysElapsed <= 0 || m.MonthToDateUniqueUsers == 0 {
		return 0, false
	}
	avg := float64(m.MonthToDateUniqueUsers) / float64(daysElapsed)
	return (float64(m.YesterdayUniqueUsers)/avg - 1) * 100, true
}

// Message is a rendered notification, transport-agnostic. The dispatcher maps
// it onto the delivery API's block types.
type Message struct {
	FallbackText string
	Blocks       []MessageBlock
}

type BlockType string

const (
	BlockHeader  BlockType = "header"
	BlockSection BlockType = "section"
	BlockDivider BlockType = "divider"
)

type MessageBlock struct {
	Type BlockType
	Text string
}

// Report is the unit handed to the dispatcher. Dashboard is nil when the
// dashboard integration is not configured.
type Report struct {
	Metrics   DailyMetrics
	Dashboard *DashboardSnapshot
	Message   Message
}

// DeliveryFailure records one destination channel that could not be reached.
type DeliveryFailure struct {
	Channel string
	Err     string
}

// DispatchOutcome lists per-channel delivery results. Delivery counts as
// successful overall when at least one channel received the message.
type DispatchOutcome struct {
	Successful []string
	Failed     []DeliveryFailure
}

func (o DispatchOutcome) Success() bool {
	return len(o.Successful) > 0
}

// RunResult is the final outcome of one report run.
type RunResult struct {
	Success  bool
	Report   Report
	Dispatch DispatchOutcome
	Err      string
}
