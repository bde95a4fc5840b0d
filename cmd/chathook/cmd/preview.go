package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtewold/chathook/internal/card"
	"github.com/mtewold/chathook/internal/domain"
	"github.com/mtewold/chathook/internal/envelope"
)

var (
	previewEvent      string
	previewWebhookURL string
)

// preview renders the relay envelope for a sample work item without sending
// anything, so payload-shape problems can be inspected offline.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the relay envelope for a sample event",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventType := domain.ParseEventType(previewEvent)
		if eventType == domain.EventUnspecified {
			return fmt.Errorf("unknown event type %q", previewEvent)
		}

		due := time.Now().AddDate(0, 0, 7)
		item := domain.WorkItem{
			ID:          "sample-task",
			Title:       "Sample task",
			ProjectID:   "sample-project",
			ProjectName: "Sample Project",
			StatusLabel: "In Progress",
			Description: "A sample work item used to preview the card payload.",
			Priority:    "high",
			Assignee:    "Jordan Example",
			DueDate:     &due,
		}
		actor := &domain.Actor{ID: "sample-user", DisplayName: "Sample User"}

		formatter := card.NewFormatter(cfg.AppBaseURL)
		adapter := envelope.NewAdapter(cfg.LegacyShapeHosts)

		env, err := adapter.Wrap(formatter.BuildCard(eventType, item, actor), previewWebhookURL)
		if err != nil {
			return err
		}

		fmt.Printf("endpoint shape: %s\n", adapter.Profile(previewWebhookURL))
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewEvent, "event", "task_created", "event type to preview")
	previewCmd.Flags().StringVar(&previewWebhookURL, "webhook-url", "https://example.webhook.office.com/workflow", "endpoint URL used for shape classification")
}
