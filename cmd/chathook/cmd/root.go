package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtewold/chathook/internal/config"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chathook",
	Short: "Operational CLI for the chat notification dispatcher",
	Long: `chathook dispatches work-item events to per-project chat workflow
webhooks through the delivery relay.

Run migrations, test a project's webhook, inspect delivery stats, or
preview the card payload for an event type.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
}
