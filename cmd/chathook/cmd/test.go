package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtewold/chathook/internal/card"
	"github.com/mtewold/chathook/internal/dispatch"
	"github.com/mtewold/chathook/internal/envelope"
	"github.com/mtewold/chathook/internal/ratelimit"
	"github.com/mtewold/chathook/internal/relay"
	"github.com/mtewold/chathook/internal/store/postgres"
)

var testProjectID string

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test card through a project's webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Enabled {
			return fmt.Errorf("integration is disabled in configuration")
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("database_url is not configured")
		}

		ctx := context.Background()
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		dispatcher := dispatch.New(
			cfg.Enabled,
			postgres.NewEndpointConfigStore(db),
			postgres.NewNotificationLogStore(db),
			card.NewFormatter(cfg.AppBaseURL),
			envelope.NewAdapter(cfg.LegacyShapeHosts),
			ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()),
			relay.New(cfg.RelayURL, cfg.Timeout(), cfg.RetryAttempts, cfg.RetryDelay()),
		)

		if !dispatcher.TestEndpoint(ctx, testProjectID) {
			return fmt.Errorf("test send failed; check that the project has an active endpoint and see the delivery log")
		}

		fmt.Println("test card sent, check the channel")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVar(&testProjectID, "project", "", "project id to test")
	testCmd.MarkFlagRequired("project")
}
