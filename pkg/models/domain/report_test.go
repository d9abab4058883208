package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyGrowthPct(t *testing.T) {
	m := DailyMetrics{YesterdayUniqueUsers: 100, MonthToDateUniqueUsers: 2000}
	growth, ok := m.DailyGrowthPct()
	assert.True(t, ok)
	assert.InDelta(t, 5.0, growth, 1e-9)
}

func TestDailyGrowthPct_ZeroDenominator(t *testing.T) {
	m := DailyMetrics{YesterdayUniqueUsers: 100}
	_, ok := m.DailyGrowthPct()
	assert.False(t, ok)
}

func TestEngagementRatePct(t *testing.T) {
	m := DailyMetrics{YesterdayUniqueUsers: 50, YesterdayTotalEvents: 125}
	rate, ok := m.EngagementRatePct()
	assert.True(t, ok)
	assert.InDelta(t, 250.0, rate, 1e-9)

	_, ok = DailyMetrics{YesterdayTotalEvents: 10}.EngagementRatePct()
	assert.False(t, ok)
}

func TestYesterdayVsMonthAvgPct(t *testing.T) {
	tests := []struct {
		name        string
		metrics     DailyMetrics
		daysElapsed int
		expected    float64
		ok          bool
	}{
		{
			name:        "above average",
			metrics:     DailyMetrics{YesterdayUniqueUsers: 150, MonthToDateUniqueUsers: 1000},
			daysElapsed: 10,
			expected:    50.0,
			ok:          true,
		},
		{
			name:        "exactly average",
			metrics:     DailyMetrics{YesterdayUniqueUsers: 100, MonthToDateUniqueUsers: 1000},
			daysElapsed: 10,
			expected:    0.0,
			ok:          true,
		},
		{
			name:        "zero days elapsed",
			metrics:     DailyMetrics{YesterdayUniqueUsers: 100, MonthToDateUniqueUsers: 1000},
			daysElapsed: 0,
			ok:          false,
		},
		{
			name:        "no month data",
			metrics:     DailyMetrics{YesterdayUniqueUsers: 100},
			daysElapsed: 10,
			ok:          false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			delta, ok := tc.metrics.YesterdayVsMonthAvgPct(tc.daysElapsed)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.expected, delta, 1e-9)
			}
		})
	}
}

func TestDispatchOutcomeSuccess(t *testing.T) {
	assert.True(t, DispatchOutcome{Successful: []string{"C1"}}.Success())
	assert.True(t, DispatchOutcome{
		Successful: []string{"C1"},
		Failed:     []DeliveryFailure{{Channel: "C2", Err: "nope"}},
	}.Success())
	assert.False(t, DispatchOutcome{Failed: []DeliveryFailure{{Channel: "C1", Err: "nope"}}}.Success())
	assert.False(t, DispatchOutcome{}.Success())
}

func TestAllFailed(t *testing.T) {
	assert.False(t, DailyMetrics{}.AllFailed())
	assert.False(t, DailyMetrics{Errors: []string{"a", "b", "c"}}.AllFailed())
	assert.True(t, DailyMetrics{Errors: []string{"a", "b", "c", "d"}}.AllFailed())
}
