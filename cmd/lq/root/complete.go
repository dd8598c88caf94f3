package root

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lifequest/internal/engine"
	"lifequest/internal/storage"
	"lifequest/internal/ui"
)

func newCompleteCmd() *cobra.Command {
	var (
		xp       int
		awards   []string
		feedback string
	)

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Complete a task and award XP",
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

			in := engine.CompleteInput{ActualXP: xp}
			if feedback != "" {
				in.Feedback = &feedback
			}

			if len(awards) > 0 {
				in.StatAwards, err = parseAwards(awards)
				if err != nil {
					return err
				}
			} else {
				task, err := svc.TaskRepo().Get(ctx, args[0])
				if err != nil {
					return err
				}
				if task != nil {
					if xp == 0 {
						in.ActualXP = task.EstimatedXP
					}
					in.StatAwards = engine.DefaultStatAwards(task, in.ActualXP)
				}
			}

			res, err := svc.CompleteTask(ctx, userID, args[0], in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (+%d xp)\n",
				ui.IconDone, ui.Good.Render("Completed"), res.Task.Title, res.Completion.ActualXP)
			for _, r := range res.XPResults {
				line := fmt.Sprintf("- %s: %+d xp (lvl %d → %d)", r.Category, r.XPAdded, r.OldLevel, r.NewLevel)
				if r.LeveledUp {
					line += " " + ui.BadgeLevelUp
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&xp, "xp", 0, "actual XP (defaults to the task's estimate)")
	cmd.Flags().StringSliceVar(&awards, "award", nil, "per-stat award as category=xp (repeatable)")
	cmd.Flags().StringVar(&feedback, "feedback", "", "completion feedback")
	return cmd
}

func parseAwards(raw []string) (map[string]int, error) {
	awards := make(map[string]int, len(raw))
	for _, a := range raw {
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --award %q, want category=xp", a)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid --award %q: %w", a, err)
		}
		awards[strings.TrimSpace(parts[0])] = n
	}
	return awards, nil
}

func newSkipCmd() *cobra.Command {
	return newTransitionCmd("skip", "Skip a pending task", (*engine.Service).SkipTask)
}

func newFailCmd() *cobra.Command {
	return newTransitionCmd("fail", "Mark a pending task failed", (*engine.Service).FailTask)
}

func newTransitionCmd(verb string, short string, fn func(*engine.Service, context.Context, string, string) (*storage.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			task, err := fn(svc, ctx, resolveUserID(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.StatusText(task.Status), task.Title)
			return nil
		},
	}
}
