package api

// RunOutcome is the JSON envelope returned by the report-trigger endpoint and
// the one-shot CLI command.
type RunOutcome struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       *ReportData `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    string      `json:"details,omitempty"`
	StartedAt  string      `json:"startedAt"`
	FinishedAt string      `json:"finishedAt"`
}

type ReportData struct {
	Yesterday   PeriodStats    `json:"yesterday"`
	MonthToDate PeriodStats    `json:"monthToDate"`
	Dashboard   *DashboardInfo `json:"dashboard,omitempty"`
	Delivery    DeliveryInfo   `json:"delivery"`
}

type PeriodStats struct {
	UniqueUsers    int      `json:"uniqueUsers"`
	TotalEvents    int      `json:"totalEvents"`
	EngagementRate *float64 `json:"engagementRate,omitempty"`
	DailyGrowth    *float64 `json:"dailyGrowth,omitempty"`
}

type DashboardInfo struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Cards  int    `json:"cards"`
}

type DeliveryInfo struct {
	Successful []string `json:"successful"`
	Failed     []string `json:"failed"`
}

// Health is the health-check payload.
type Health struct {
	Status string `json:"status"`
}

// DebugConfig reports which credentials are present without exposing them.
type DebugConfig struct {
	AccountID        string `json:"accountId"`
	HasPasscode      bool   `json:"hasPasscode"`
	HasSlackBotToken bool   `json:"hasSlackBotToken"`
	SlackChannels    int    `json:"slackChannels"`
	MetabaseEnabled  bool   `json:"metabaseEnabled"`
}
