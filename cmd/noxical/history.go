package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noxical/noxical/internal/config"
	"github.com/noxical/noxical/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent builds",
		Long:  "List the most recent builds from the build log, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			store, err := history.NewStore(cfg.HistoryDBPath)
			if err != nil {
				return fmt.Errorf("opening build history: %w", err)
			}
			defer func() { _ = store.Close() }()

			builds, err := store.Recent(limit)
			if err != nil {
				return fmt.Errorf("reading build history: %w", err)
			}

			if len(builds) == 0 {
				fmt.Println("No builds recorded yet.")
				return nil
			}

			for _, b := range builds {
				status := "✓"
				if !b.Success {
					status = "✗"
				}
				summary := ""
				if len(b.Diagnostics) > 0 {
					summary = b.Diagnostics[0]
				}
				fmt.Printf("%s  %s  %-11s  %5dms  %s\n",
					b.StartedAt.Format("2006-01-02 15:04:05"), status, b.Reason, b.DurationMs, summary)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of builds to show")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	return cmd
}
