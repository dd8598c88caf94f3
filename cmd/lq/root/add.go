package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lifequest/internal/engine"
	"lifequest/internal/ui"
)

func newAddCmd() *cobra.Command {
	var (
		source      string
		sourceID    string
		description string
		stats       []string
		xp          int
		due         string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
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

			in := engine.CreateTaskInput{
				Title:       args[0],
				Source:      engine.TaskSource(source),
				TargetStats: stats,
				EstimatedXP: xp,
			}
			if description != "" {
				in.Description = &description
			}
			if sourceID != "" {
				in.SourceID = &sourceID
			}
			if due != "" {
				t, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("parse --due: %w", err)
				}
				in.DueDate = &t
			}

			task, err := svc.CreateTask(ctx, userID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %d xp)\n",
				ui.Good.Render("Added"), task.Title, task.ID[:8], task.EstimatedXP)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "todo", "task source (todo|ad-hoc|quest|experiment|ai)")
	cmd.Flags().StringVar(&sourceID, "container", "", "owning quest/experiment id")
	cmd.Flags().StringVar(&description, "desc", "", "description")
	cmd.Flags().StringSliceVar(&stats, "stat", nil, "target stat category (repeatable)")
	cmd.Flags().IntVar(&xp, "xp", 0, "estimated XP")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}
