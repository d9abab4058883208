package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const accountIDLength = 12

// Config is the full configuration surface, read once at startup and passed
// into each client at construction. No component reads the environment.
type Config struct {
	CleverTapBaseURL     string        `mapstructure:"CLEVERTAP_BASE_URL"`
	AccountID            string        `mapstructure:"ACCOUNT_ID"`
	Passcode             string        `mapstructure:"PASSCODE"`
	ExcludeInternalUsers bool          `mapstructure:"CLEVERTAP_EXCLUDE_INTERNAL"`
	PollInterval         time.Duration `mapstructure:"CLEVERTAP_POLL_INTERVAL"`
	MaxPollAttempts      int           `mapstructure:"CLEVERTAP_MAX_POLL_ATTEMPTS"`

	MetabaseAPIURL       string `mapstructure:"METABASE_API_URL"`
	MetabaseAPIKey       string `mapstructure:"METABASE_API_KEY"`
	MetabaseDashboardURL string `mapstructure:"METABASE_DASHBOARD_URL"`

	SlackBotToken   string `mapstructure:"SLACK_BOT_TOKEN"`
	SlackChannelIDs string `mapstructure:"SLACK_CHANNEL_IDS"`

	ServerHost     string `mapstructure:"SERVER_HOST"`
	ServerPort     string `mapstructure:"SERVER_PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	ReportSchedule string `mapstructure:"REPORT_SCHEDULE"`
}

// ValidationError is fatal to a run: it is reported before any network call.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// Load reads configuration from the environment. It does not validate;
// call Validate before using credentials.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("CLEVERTAP_BASE_URL", "https://api.clevertap.com")
	v.SetDefault("CLEVERTAP_EXCLUDE_INTERNAL", true)
	v.SetDefault("CLEVERTAP_POLL_INTERVAL", 2*time.Second)
	v.SetDefault("CLEVERTAP_MAX_POLL_ATTEMPTS", 10)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("REPORT_SCHEDULE", "0 0 * * *")
	v.SetDefault("ALLOWED_ORIGINS", strings.Join([]string{
		"https://www.letsmultiply.co.in",
		"https://stage.letsmultiply.co.in",
		"https://dev.letsmultiply.co.in",
		"http://localhost:3000",
	}, ","))

	// AutomaticEnv alone does not feed Unmarshal; each key needs a binding.
	for _, key := range []string{
		"CLEVERTAP_BASE_URL", "ACCOUNT_ID", "PASSCODE",
		"CLEVERTAP_EXCLUDE_INTERNAL", "CLEVERTAP_POLL_INTERVAL", "CLEVERTAP_MAX_POLL_ATTEMPTS",
		"METABASE_API_URL", "METABASE_API_KEY", "METABASE_DASHBOARD_URL",
		"SLACK_BOT_TOKEN", "SLACK_CHANNEL_IDS",
		"SERVER_HOST", "SERVER_PORT", "ALLOWED_ORIGINS", "REPORT_SCHEDULE",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Validate enforces the required credential set and the account id format.
func (c *Config) Validate() error {
	var missing []string
	if c.AccountID == "" {
		missing = append(missing, "ACCOUNT_ID")
	}
	if c.Passcode == "" {
		missing = append(missing, "PASSCODE")
	}
	if c.SlackBotToken == "" {
		missing = append(missing, "SLACK_BOT_TOKEN")
	}
	if len(c.SlackChannels()) == 0 {
		missing = append(missing, "SLACK_CHANNEL_IDS")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	if len(c.AccountID) != accountIDLength {
		return &ValidationError{Reason: "invalid ACCOUNT_ID: must be 12 digits"}
	}
	for _, r := range c.AccountID {
		if r < '0' || r > '9' {
			return &ValidationError{Reason: "invalid ACCOUNT_ID: must be 12 digits"}
		}
	}

	if c.MaxPollAttempts <= 0 {
		return &ValidationError{Reason: "CLEVERTAP_MAX_POLL_ATTEMPTS must be positive"}
	}
	return nil
}

// MetabaseEnabled reports whether the optional dashboard integration is
// fully configured.
func (c *Config) MetabaseEnabled() bool {
	return c.MetabaseAPIURL != "" && c.MetabaseAPIKey != "" && c.MetabaseDashboardURL != ""
}

// SlackChannels splits the configured channel list, dropping blanks.
func (c *Config) SlackChannels() []string {
	return splitList(c.SlackChannelIDs)
}

// Origins splits the configured CORS allowlist.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// MaskedAccountID keeps the first and last four characters visible.
func (c *Config) MaskedAccountID() string {
	if len(c.AccountID) < 8 {
		return "not set"
	}
	return c.AccountID[:4] + "..." + c.AccountID[len(c.AccountID)-4:]
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
