package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		CleverTapBaseURL: "https://api.clevertap.com",
		AccountID:        "123456789012",
		Passcode:         "secret",
		SlackBotToken:    "xoxb-token",
		SlackChannelIDs:  "C1,C2",
		MaxPollAttempts:  10,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.clevertap.com", cfg.CleverTapBaseURL)
	assert.True(t, cfg.ExcludeInternalUsers)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.MaxPollAttempts)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, "0 0 * * *", cfg.ReportSchedule)
	assert.Contains(t, cfg.Origins(), "https://www.letsmultiply.co.in")
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ACCOUNT_ID", "123456789012")
	t.Setenv("PASSCODE", "secret")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-token")
	t.Setenv("SLACK_CHANNEL_IDS", "C1, C2 ,,C3")
	t.Setenv("CLEVERTAP_EXCLUDE_INTERNAL", "false")
	t.Setenv("CLEVERTAP_POLL_INTERVAL", "500ms")
	t.Setenv("SERVER_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123456789012", cfg.AccountID)
	assert.False(t, cfg.ExcludeInternalUsers)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, []string{"C1", "C2", "C3"}, cfg.SlackChannels())
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingVariables(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"ACCOUNT_ID", "PASSCODE", "SLACK_BOT_TOKEN", "SLACK_CHANNEL_IDS"}, verr.Missing)
	assert.Contains(t, err.Error(), "missing required environment variables")
}

func TestValidate_AccountIDFormat(t *testing.T) {
	tests := []struct {
		name      string
		accountID string
		valid     bool
	}{
		{"twelve digits", "123456789012", true},
		{"too short", "12345678901", false},
		{"too long", "1234567890123", false},
		{"non numeric", "12345678901a", false},
		{"token style", "TEST-123-456", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.AccountID = tc.accountID
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "12 digits")
			}
		})
	}
}

func TestValidate_PollAttempts(t *testing.T) {
	cfg := validConfig()
	cfg.MaxPollAttempts = 0
	require.Error(t, cfg.Validate())
}

func TestMetabaseEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.MetabaseEnabled())

	cfg.MetabaseAPIURL = "https://bi.example.com"
	cfg.MetabaseAPIKey = "key"
	assert.False(t, cfg.MetabaseEnabled(), "dashboard URL still missing")

	cfg.MetabaseDashboardURL = "https://bi.example.com/dashboard/17"
	assert.True(t, cfg.MetabaseEnabled())
}

func TestMaskedAccountID(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "1234...9012", cfg.MaskedAccountID())

	cfg.AccountID = "short"
	assert.Equal(t, "not set", cfg.MaskedAccountID())
}
