package metabase

import (
	"testing"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(title string) domain.DashboardCard {
	return domain.DashboardCard{Title: title}
}

func TestCategorize(t *testing.T) {
	cards := []domain.DashboardCard{
		card("New Users Created Yesterday"),
		card("Quotations_Created_Yesterday"),
		card("DP's Created Today"),
		card("App Opens per Session"),
		card("Revenue Split"),
	}

	categories := Categorize(cards)
	require.Len(t, categories, 5)

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
		require.Len(t, c.Cards, 1)
	}
	assert.Equal(t, []string{
		"New User Registrations",
		"Quotation Generator Data",
		"Digital Profiles",
		"App Activity",
		CategoryOther,
	}, names)
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	// "user" + "created" matches registrations before the QG bucket sees "qg".
	categories := Categorize([]domain.DashboardCard{card("QG_User_Count_Created")})
	require.Len(t, categories, 1)
	assert.Equal(t, "New User Registrations", categories[0].Name)
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	categories := Categorize([]domain.DashboardCard{card("QUOTE VOLUME")})
	require.Len(t, categories, 1)
	assert.Equal(t, "Quotation Generator Data", categories[0].Name)
}

func TestCategorize_EmptyBucketsOmitted(t *testing.T) {
	categories := Categorize([]domain.DashboardCard{card("Revenue Split")})
	require.Len(t, categories, 1)
	assert.Equal(t, CategoryOther, categories[0].Name)

	assert.Empty(t, Categorize(nil))
}

func TestCleanCardTitle(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"QG_User_Count_Yesterday", "Q G User Count Yesterday"},
		{"new users", "New Users"},
		{"appOpens", "App Opens"},
		{"Already Clean", "Already Clean"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanCardTitle(tc.in))
		})
	}
}
