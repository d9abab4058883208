package metabase

import (
	"regexp"
	"strings"

	"github.com/letsmultiply/pulse/pkg/models/domain"
)

// Card categorization is a presentation concern only: cards are grouped into
// named buckets by case-insensitive keyword matching on their titles, first
// matching bucket wins, unmatched cards land in the catch-all bucket.

const CategoryOther = "Performance/Other Metrics"

type Category struct {
	Name  string
	Emoji string
	Cards []domain.DashboardCard
}

type categoryRule struct {
	name  string
	emoji string
	match func(title string) bool
}

func containsAny(title string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

var categoryRules = []categoryRule{
	{
		name:  "New User Registrations",
		emoji: "👥",
		match: func(t string) bool {
			return strings.Contains(t, "user") && containsAny(t, "registration", "created", "new")
		},
	},
	{
		name:  "Quotation Generator Data",
		emoji: "📝",
		match: func(t string) bool { return containsAny(t, "quotation", "qg", "quote") },
	},
	{
		name:  "Digital Profiles",
		emoji: "🏗️",
		match: func(t string) bool { return containsAny(t, "dp", "digital", "profile", "project") },
	},
	{
		name:  "App Activity",
		emoji: "📱",
		match: func(t string) bool { return containsAny(t, "app", "launch", "session") },
	},
}

// Categorize buckets cards in a fixed order, omitting empty buckets. The
// ordering keeps the rendered report deterministic.
func Categorize(cards []domain.DashboardCard) []Category {
	buckets := make([]Category, len(categoryRules), len(categoryRules)+1)
	for i, rule := range categoryRules {
		buckets[i] = Category{Name: rule.name, Emoji: rule.emoji}
	}
	buckets = append(buckets, Category{Name: CategoryOther, Emoji: "📊"})
	other := len(buckets) - 1

next:
	for _, card := range cards {
		title := strings.ToLower(card.Title)
		for i, rule := range categoryRules {
			if rule.match(title) {
				buckets[i].Cards = append(buckets[i].Cards, card)
				continue next
			}
		}
		buckets[other].Cards = append(buckets[other].Cards, card)
	}

	out := buckets[:0]
	for _, b := range buckets {
		if len(b.Cards) > 0 {
			out = append(out, b)
		}
	}
	return out
}

var camelBoundary = regexp.MustCompile(`([A-Z])`)
var multiSpace = regexp.MustCompile(`\s+`)

// CleanCardTitle turns raw card names ("QG_User_Count_Yesterday") into
// readable labels ("Qg User Count Yesterday").
func CleanCardTitle(title string) string {
	s := strings.ReplaceAll(title, "_", " ")
	s = camelBoundary.ReplaceAllString(s, " $1")
	s = strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))

	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
