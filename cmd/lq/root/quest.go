package root

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lifequest/internal/engine"
	"lifequest/internal/storage"
	"lifequest/internal/ui"
)

func newQuestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "Manage quests",
	}
	cmd.AddCommand(
		newContainerCreateCmd("quest", (*engine.Service).CreateQuest),
		newContainerListCmd("quest", ui.IconQuest, (*engine.Service).ListQuests),
		newContainerStatusCmd("quest", (*engine.Service).UpdateQuestStatus),
		newContainerDeleteCmd("quest", (*engine.Service).DeleteQuest),
	)
	return cmd
}

func newExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Manage experiments",
	}
	cmd.AddCommand(
		newContainerCreateCmd("experiment", (*engine.Service).CreateExperiment),
		newContainerListCmd("experiment", ui.IconFlask, (*engine.Service).ListExperiments),
		newContainerStatusCmd("experiment", (*engine.Service).UpdateExperimentStatus),
		newContainerDeleteCmd("experiment", (*engine.Service).DeleteExperiment),
	)
	return cmd
}

func newContainerCreateCmd(kind string, fn func(*engine.Service, context.Context, string, engine.CreateContainerInput) (*storage.Container, error)) *cobra.Command {
	var (
		description string
		end         string
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			in := engine.CreateContainerInput{Title: args[0]}
			if description != "" {
				in.Description = &description
			}
			if end != "" {
				t, err := time.Parse("2006-01-02", end)
				if err != nil {
					return fmt.Errorf("parse --end: %w", err)
				}
				in.EndDate = &t
			}

			c, err := fn(svc, ctx, resolveUserID(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", ui.Good.Render("Created"), c.Title, c.ID[:8])
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "desc", "", "description")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	return cmd
}

func newContainerListCmd(kind string, icon string, fn func(*engine.Service, context.Context, string) ([]engine.ContainerView, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List " + kind + "s with progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := fn(svc, ctx, resolveUserID())
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"", "ID", "Title", "Status", "Tasks", "Done", "Rate", "XP"})
			for _, c := range list {
				tw.AppendRow(table.Row{
					icon, c.ID[:8], c.Title, c.Status,
					c.Progress.TotalTasks, c.Progress.CompletedTasks,
					fmt.Sprintf("%d%%", c.Progress.CompletionRate), c.Progress.EarnedXP,
				})
			}
			tw.Render()
			return nil
		},
	}
}

func newContainerStatusCmd(kind string, fn func(*engine.Service, context.Context, string, string, engine.ContainerStatus) error) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <active|completed|paused|abandoned>",
		Short: "Change a " + kind + "'s status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := fn(svc, ctx, resolveUserID(), args[0], engine.ContainerStatus(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", ui.Good.Render("Updated"), kind, args[1])
			return nil
		},
	}
}

func newContainerDeleteCmd(kind string, fn func(*engine.Service, context.Context, string, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + kind + " (its tasks become ad-hoc)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := fn(svc, ctx, resolveUserID(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s deleted; linked tasks kept as ad-hoc\n", ui.Good.Render("Deleted"), kind)
			return nil
		},
	}
}
