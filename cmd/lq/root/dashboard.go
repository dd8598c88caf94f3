package root

import (
	"context"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lifequest/internal/engine"
	"lifequest/internal/ui"
)

func newDashboardCmd() *cobra.Command {
	var (
		status string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the prioritized task dashboard",
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

			q := engine.DashboardQuery{Limit: limit, Offset: offset}
			if status != "" {
				st := engine.TaskStatus(status)
				q.Status = &st
			}
			view, err := svc.Dashboard(ctx, userID, q)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"", "ID", "Title", "Source", "Status", "XP", "Due"})
			for _, row := range view.Tasks {
				due := ""
				if row.DueDate != nil {
					due = row.DueDate.Format("2006-01-02")
				}
				owner := ""
				switch {
				case row.Quest != nil:
					owner = " (" + row.Quest.Title + ")"
				case row.Experiment != nil:
					owner = " (" + row.Experiment.Title + ")"
				case row.SourceInfo != nil:
					owner = " (" + row.SourceInfo.Name + ")"
				}
				tw.AppendRow(table.Row{
					ui.SourceIcon(row.Source), row.ID[:8], row.Title + owner,
					row.Source, ui.StatusText(row.Status), row.EstimatedXP, due,
				})
			}
			tw.Render()

			s := view.Summary
			fmt.Fprintln(cmd.OutOrStdout(), "")
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Tasks", fmt.Sprintf("%d total, %d pending, %d completed", s.TotalTasks, s.PendingTasks, s.CompletedTasks)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("XP", fmt.Sprintf("%d estimated, %d earned", s.TotalEstimatedXP, s.EarnedXP)))

			if len(s.TasksBySource) > 0 {
				sources := make([]string, 0, len(s.TasksBySource))
				for src := range s.TasksBySource {
					sources = append(sources, src)
				}
				sort.Strings(sources)
				line := ""
				for i, src := range sources {
					if i > 0 {
						line += ", "
					}
					line += fmt.Sprintf("%s %d", src, s.TasksBySource[src])
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("By source", line))
			}
			if view.Pagination.HasMore {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(fmt.Sprintf("…and %d more (use --offset)", view.Pagination.Total-offset-len(view.Tasks))))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending|completed|skipped|failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}
