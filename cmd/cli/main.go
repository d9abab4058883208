package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/letsmultiply/pulse/pkg/services/clevertap"
	"github.com/letsmultiply/pulse/pkg/services/config"
	"github.com/letsmultiply/pulse/pkg/services/metabase"
	"github.com/letsmultiply/pulse/pkg/services/report"
	"github.com/letsmultiply/pulse/pkg/services/slack"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Events pulled for each profile in the CSV batch.
var batchFilterEvents = []string{
	"App Installed",
	"app_opened",
	"store_page_viewed",
	"designs_services_page_viewed",
	"dp_website_client_called",
	"dp_website_client_whatsapp",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Analytics reporting toolbox",
	}
	rootCmd.AddCommand(newReportCmd(), newProfilesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newCleverTap(cfg *config.Config) *clevertap.Client {
	return clevertap.NewClient(clevertap.Config{
		BaseURL:         cfg.CleverTapBaseURL,
		AccountID:       cfg.AccountID,
		Passcode:        cfg.Passcode,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
		ExcludeInternal: cfg.ExcludeInternalUsers,
	})
}

// newReportCmd triggers one report run and prints the run result as JSON.
func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate and deliver the daily report once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			ctx := logger.WithContext(cmd.Context())

			var dashboard report.DashboardFetcher
			if cfg.MetabaseEnabled() {
				dashboard = metabase.NewClient(metabase.Config{
					APIURL:       cfg.MetabaseAPIURL,
					APIKey:       cfg.MetabaseAPIKey,
					DashboardURL: cfg.MetabaseDashboardURL,
				})
			}

			assembler := report.NewAssembler(newCleverTap(cfg), dashboard)
			runner := report.NewRunner(assembler, slack.NewDispatcher(cfg.SlackBotToken), cfg.SlackChannels())

			result := runner.Run(ctx)

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(struct {
				Success    bool                     `json:"success"`
				Error      string                   `json:"error,omitempty"`
				Successful []string                 `json:"successful,omitempty"`
				Failed     []domain.DeliveryFailure `json:"failed,omitempty"`
			}{result.Success, result.Err, result.Dispatch.Successful, result.Dispatch.Failed}); err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("report run failed: %s", result.Err)
			}
			return nil
		},
	}
}

// newProfilesCmd batch-fetches user profiles for identities listed in a CSV
// column and writes an engagement summary CSV.
func newProfilesCmd() *cobra.Command {
	var inPath, outPath, column, prefix string
	var pacing time.Duration

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Batch-fetch user profiles for identities listed in a CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			ctx := logger.WithContext(cmd.Context())

			identities, err := readColumn(inPath, column)
			if err != nil {
				return err
			}
			logger.Info().Int("identities", len(identities)).Msg("starting batch profile fetch")

			return writeProfiles(ctx, newCleverTap(cfg), identities, prefix, outPath, pacing)
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "calling-data-mobile.csv", "input CSV path")
	cmd.Flags().StringVar(&outPath, "out", "clevertap-event-info.csv", "output CSV path")
	cmd.Flags().StringVar(&column, "column", "Mobile Number", "input column holding identities")
	cmd.Flags().StringVar(&prefix, "prefix", "+91", "prefix prepended to each identity")
	cmd.Flags().DurationVar(&pacing, "pacing", time.Second, "delay between profile fetches")
	return cmd
}

func readColumn(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input CSV: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse input CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("input CSV is empty")
	}

	colIdx := -1
	for i, name := range rows[0] {
		if name == column {
			colIdx = i
			break
		}
	}
	if colIdx < 0 {
		return nil, fmt.Errorf("column %q not found in input CSV", column)
	}

	var values []string
	for _, row := range rows[1:] {
		if colIdx < len(row) && row[colIdx] != "" {
			values = append(values, row[colIdx])
		}
	}
	return values, nil
}

func writeProfiles(ctx context.Context, client *clevertap.Client, identities []string, prefix, outPath string, pacing time.Duration) error {
	logger := zerolog.Ctx(ctx)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"Name", "Mobile Number", "App Last Opened Date",
		"Last Store Page Viewed Date", "Store page view count",
		"Design Service Page Viewed Date", "Design Service page view count",
		"App Platform",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, identity := range identities {
		row, err := profileRow(ctx, client, prefix+identity, identity)
		if err != nil {
			logger.Warn().Err(err).Str("identity", identity).Msg("profile fetch failed")
			row = []string{"NA", identity, "NA", "NA", "NA", "NA", "NA", "NA"}
		}
		if err := w.Write(row); err != nil {
			return err
		}

		if i < len(identities)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pacing):
			}
		}
	}

	logger.Info().Str("out", outPath).Msg("batch profile fetch complete")
	return nil
}

func profileRow(ctx context.Context, client *clevertap.Client, identity, rawIdentity string) ([]string, error) {
	p, err := client.FetchProfile(ctx, identity, batchFilterEvents)
	if err != nil {
		return nil, err
	}

	lastSeenDate := func(event string) string {
		if summary, ok := p.Events[event]; ok && summary.LastSeen > 0 {
			return time.Unix(summary.LastSeen, 0).Format("January 2 2006")
		}
		return "NA"
	}
	viewCount := func(event string) string {
		if summary, ok := p.Events[event]; ok {
			return strconv.Itoa(summary.Count)
		}
		return "0"
	}

	return []string{
		p.Name,
		rawIdentity,
		lastSeenDate("app_opened"),
		lastSeenDate("store_page_viewed"),
		viewCount("store_page_viewed"),
		lastSeenDate("designs_services_page_viewed"),
		viewCount("designs_services_page_viewed"),
		p.Platform.Platform,
	}, nil
}
