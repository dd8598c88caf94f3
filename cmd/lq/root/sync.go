package root

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lifequest/internal/engine"
	"lifequest/internal/ui"
)

func newSyncCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sync <source-id>",
		Short: "Sync a batch of fetched external records into tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			userID := resolveUserID()
			if err := ensureCharacter(ctx, svc, cfg, userID); err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read records: %w", err)
			}
			var records []json.RawMessage
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("records file must be a JSON array: %w", err)
			}

			res, err := svc.SyncExternalSource(ctx, userID, args[0], engine.SyncBatch{Records: records})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconLink, "Sync result"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Created", res.TasksCreated))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Updated", res.TasksUpdated))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Errors", res.Errors))
			for _, detail := range res.ErrorDetails {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render("- "+detail))
			}
			for _, t := range res.CreatedTasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d xp)\n", ui.IconSparkle, t.Title, t.EstimatedXP)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with the fetched records (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
