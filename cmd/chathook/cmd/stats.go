package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtewold/chathook/internal/domain"
	"github.com/mtewold/chathook/internal/store/postgres"
)

var (
	statsProjectID string
	statsJSON      bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show delivery statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("database_url is not configured")
		}

		ctx := context.Background()
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		records := postgres.NewNotificationLogStore(db)

		var stats domain.DeliveryStats
		if statsProjectID != "" {
			stats, err = records.StatsByProject(ctx, statsProjectID)
		} else {
			stats, err = records.Stats(ctx)
		}
		if err != nil {
			return err
		}

		if statsJSON {
			data, _ := json.MarshalIndent(stats, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("total:   %d\n", stats.Total)
		fmt.Printf("sent:    %d\n", stats.Sent)
		fmt.Printf("failed:  %d\n", stats.Failed)
		fmt.Printf("pending: %d\n", stats.Pending)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsProjectID, "project", "", "limit stats to one project")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}
