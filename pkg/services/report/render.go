package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/letsmultiply/pulse/pkg/services/metabase"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	reportTitle = "Daily App Analytics Report"

	// Larger tables render as a capped preview of this many rows.
	tablePreviewRows = 3
	keyValueMaxRows  = 8
	rawTableMaxRows  = 5
)

var numberPrinter = message.NewPrinter(language.English)

func formatInt(n int) string {
	return numberPrinter.Sprintf("%d", n)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "N/A"
	case float64:
		if x == math.Trunc(x) {
			return formatInt(int(x))
		}
		return numberPrinter.Sprintf("%.2f", x)
	case int:
		return formatInt(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Render produces the structured notification message for a report:
// header, yesterday, month-to-date and performance-indicator sections, plus
// one section per non-empty dashboard category when a snapshot exists.
func Render(r domain.Report) domain.Message {
	m := r.Metrics

	blocks := []domain.MessageBlock{
		{Type: domain.BlockHeader, Text: reportTitle},
		{Type: domain.BlockSection, Text: yesterdaySection(m)},
		{Type: domain.BlockSection, Text: monthToDateSection(m)},
		{Type: domain.BlockSection, Text: indicatorsSection(m)},
	}

	if r.Dashboard != nil {
		blocks = append(blocks, domain.MessageBlock{Type: domain.BlockDivider})
		blocks = append(blocks, domain.MessageBlock{Type: domain.BlockSection, Text: dashboardSummary(*r.Dashboard)})
		for _, category := range metabase.Categorize(r.Dashboard.Cards) {
			blocks = append(blocks, domain.MessageBlock{Type: domain.BlockSection, Text: categorySection(category)})
		}
	}

	return domain.Message{
		FallbackText: reportTitle,
		Blocks:       blocks,
	}
}

func filterLine(m domain.DailyMetrics) string {
	if m.InternalUsersExcluded {
		return "\n• Filter: Excluding Internal Users"
	}
	return ""
}

func yesterdaySection(m domain.DailyMetrics) string {
	return fmt.Sprintf(":date: *Yesterday's App Opens (%s)*\n"+
		"• Unique Users: %s\n"+
		"• Total Events: %s\n"+
		"• Event: `app_opened`%s",
		m.Yesterday.To.Format("02 Jan 2006"),
		formatInt(m.YesterdayUniqueUsers),
		formatInt(m.YesterdayTotalEvents),
		filterLine(m),
	)
}

func monthToDateSection(m domain.DailyMetrics) string {
	daysElapsed := m.MonthToDate.To.Day()
	avgUnique := 0
	avgEvents := 0
	if daysElapsed > 0 {
		avgUnique = int(math.Round(float64(m.MonthToDateUniqueUsers) / float64(daysElapsed)))
		avgEvents = int(math.Round(float64(m.MonthToDateTotalEvents) / float64(daysElapsed)))
	}

	return fmt.Sprintf(":chart_with_upwards_trend: *Month-to-Date App Opens (%s to %s)*\n"+
		"• Unique Users: %s\n"+
		"• Total Events: %s\n"+
		"• Total App Opens (All Users): %s\n"+
		"• Days into Month: %d\n"+
		"• Avg Daily Unique Users: %s\n"+
		"• Avg Daily Events: %s\n"+
		"• Event: `app_opened`%s",
		m.MonthToDate.From.Format("02 Jan 2006"),
		m.MonthToDate.To.Format("02 Jan 2006"),
		formatInt(m.MonthToDateUniqueUsers),
		formatInt(m.MonthToDateTotalEvents),
		formatInt(m.MonthTotalAppOpens),
		daysElapsed,
		formatInt(avgUnique),
		formatInt(avgEvents),
		filterLine(m),
	)
}

func indicatorsSection(m domain.DailyMetrics) string {
	var b strings.Builder
	b.WriteString(":bar_chart: *Performance Indicators*\n")

	if growth, ok := m.DailyGrowthPct(); ok {
		fmt.Fprintf(&b, "• Daily Growth: %.2f%%\n", growth)
	} else {
		b.WriteString("• Daily Growth: n/a\n")
	}
	if engagement, ok := m.EngagementRatePct(); ok {
		fmt.Fprintf(&b, "• Engagement Rate: %.2f%%\n", engagement)
	} else {
		b.WriteString("• Engagement Rate: n/a\n")
	}
	if delta, ok := m.YesterdayVsMonthAvgPct(m.MonthToDate.To.Day()); ok {
		fmt.Fprintf(&b, ":large_green_circle: Yesterday vs Avg: %+.1f%%", delta)
	} else {
		b.WriteString(":white_circle: Yesterday vs Avg: n/a")
	}
	return b.String()
}

func dashboardSummary(s domain.DashboardSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":bar_chart: *%s*\n", s.Name)
	fmt.Fprintf(&b, ":white_check_mark: %d metrics loaded (%s)\n", len(s.Cards), s.Source)
	if s.Source == domain.SourceDirect {
		fmt.Fprintf(&b, ":bar_chart: Success rate: %d/%d cards\n", s.SuccessfulCards, s.TotalCardsAttempted)
	}
	fmt.Fprintf(&b, ":clock3: Last updated: %s", s.FetchedAt.Format("15:04:05"))
	return b.String()
}

func categorySection(c metabase.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n", c.Emoji, strings.ToUpper(c.Name))
	for _, card := range c.Cards {
		b.WriteString(formatCard(card))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatCard renders one card as a mrkdwn fragment: scalars as label/value,
// small two-column tables as a key/value list, anything larger as a capped
// preview.
func formatCard(card domain.DashboardCard) string {
	title := metabase.CleanCardTitle(card.Title)

	if len(card.Rows) == 0 {
		return fmt.Sprintf("• *%s:* No data available", title)
	}

	if value, ok := card.ScalarValue(); ok {
		return fmt.Sprintf("• *%s:* %s", title, formatCell(value))
	}
	if card.DisplayType == "scalar" && len(card.Rows[0]) > 0 {
		return fmt.Sprintf("• *%s:* %s", title, formatCell(card.Rows[0][0]))
	}

	if len(card.Columns) == 2 && len(card.Rows) <= keyValueMaxRows {
		var b strings.Builder
		fmt.Fprintf(&b, "• *%s:*", title)
		for _, row := range card.Rows {
			if len(row) < 2 {
				continue
			}
			fmt.Fprintf(&b, "\n  - %s: %s", formatCell(row[0]), formatCell(row[1]))
		}
		return b.String()
	}

	if len(card.Rows) <= rawTableMaxRows {
		var b strings.Builder
		fmt.Fprintf(&b, "• *%s:*", title)
		for _, row := range card.Rows {
			b.WriteString("\n  " + joinRow(row))
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "• *%s:*", title)
	for _, row := range card.Rows[:tablePreviewRows] {
		b.WriteString("\n  " + joinRow(row))
	}
	fmt.Fprintf(&b, "\n  _%d rows, showing first %d_", len(card.Rows), tablePreviewRows)
	return b.String()
}

func joinRow(row []any) string {
	cells := make([]string, 0, len(row))
	for _, cell := range row {
		cells = append(cells, formatCell(cell))
	}
	return strings.Join(cells, " | ")
}
