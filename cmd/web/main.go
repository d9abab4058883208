package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/letsmultiply/pulse/pkg/models/api"
	"github.com/letsmultiply/pulse/pkg/server"
	"github.com/letsmultiply/pulse/pkg/services/clevertap"
	"github.com/letsmultiply/pulse/pkg/services/config"
	"github.com/letsmultiply/pulse/pkg/services/metabase"
	"github.com/letsmultiply/pulse/pkg/services/report"
	"github.com/letsmultiply/pulse/pkg/services/scheduler"
	"github.com/letsmultiply/pulse/pkg/services/slack"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "web",
		Short: "Start the analytics report web server",
		RunE:  runServer,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !cfg.MetabaseEnabled() {
		logger.Warn().Msg("Metabase configuration incomplete, dashboard integration disabled")
	}

	runner := buildRunner(cfg)

	sched := scheduler.New(logger)
	err = sched.ScheduleDaily(cfg.ReportSchedule, func(ctx context.Context) {
		result := runner.Run(ctx)
		logger.Info().Bool("success", result.Success).Msg("scheduled report finished")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule daily report: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	logger.Info().
		Str("account_id", cfg.MaskedAccountID()).
		Int("slack_channels", len(cfg.SlackChannels())).
		Bool("metabase", cfg.MetabaseEnabled()).
		Str("schedule", cfg.ReportSchedule).
		Msg("configuration loaded")

	webAPI := server.NewWebAPI(server.Config{
		Addr:           net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
		AllowedOrigins: cfg.Origins(),
		Dependencies: server.Dependencies{
			Runner:   runner,
			Profiles: buildCleverTap(cfg),
			Debug:    debugConfig(cfg),
			Logger:   logger,
		},
	})

	return webAPI.Start()
}

func buildCleverTap(cfg *config.Config) *clevertap.Client {
	return clevertap.NewClient(clevertap.Config{
		BaseURL:         cfg.CleverTapBaseURL,
		AccountID:       cfg.AccountID,
		Passcode:        cfg.Passcode,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
		ExcludeInternal: cfg.ExcludeInternalUsers,
	})
}

func buildRunner(cfg *config.Config) *report.Runner {
	var dashboard report.DashboardFetcher
	if cfg.MetabaseEnabled() {
		dashboard = metabase.NewClient(metabase.Config{
			APIURL:       cfg.MetabaseAPIURL,
			APIKey:       cfg.MetabaseAPIKey,
			DashboardURL: cfg.MetabaseDashboardURL,
		})
	}

	assembler := report.NewAssembler(buildCleverTap(cfg), dashboard)
	dispatcher := slack.NewDispatcher(cfg.SlackBotToken)
	return report.NewRunner(assembler, dispatcher, cfg.SlackChannels())
}

func debugConfig(cfg *config.Config) api.DebugConfig {
	return api.DebugConfig{
		AccountID:        cfg.MaskedAccountID(),
		HasPasscode:      cfg.Passcode != "",
		HasSlackBotToken: cfg.SlackBotToken != "",
		SlackChannels:    len(cfg.SlackChannels()),
		MetabaseEnabled:  cfg.MetabaseEnabled(),
	}
}
