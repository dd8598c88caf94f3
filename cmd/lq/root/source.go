package root

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lifequest/internal/config"
	"lifequest/internal/engine"
	"lifequest/internal/ui"
)

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage external task sources",
	}
	cmd.AddCommand(
		newSourceRegisterCmd(),
		newSourceListCmd(),
		newSourceSetActiveCmd("enable", true),
		newSourceSetActiveCmd("disable", false),
	)
	return cmd
}

func newSourceRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <name>",
		Short: "Register a source declared in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var declared *config.SourceConfig
			for i := range cfg.Sources {
				if cfg.Sources[i].Name == args[0] {
					declared = &cfg.Sources[i]
					break
				}
			}
			if declared == nil {
				return fmt.Errorf("source %q not declared in config", args[0])
			}

			src, err := svc.RegisterSource(ctx, resolveUserID(), engine.RegisterSourceInput{
				Name:         declared.Name,
				SourceType:   declared.Type,
				AuthType:     declared.AuthType,
				Config:       declared.Config,
				SyncSchedule: declared.SyncSchedule,
				MappingRules: engine.MappingRules{
					ExternalIDField:    declared.Mapping.ExternalIDField,
					TitleField:         declared.Mapping.TitleField,
					DescriptionField:   declared.Mapping.DescriptionField,
					DueDateField:       declared.Mapping.DueDateField,
					EstimatedXPFormula: declared.Mapping.EstimatedXPFormula,
					DefaultStats:       declared.Mapping.DefaultStats,
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", ui.Good.Render("Registered"), src.Name, src.ID)
			return nil
		},
	}
}

func newSourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := svc.ListSources(ctx, resolveUserID())
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "Name", "Type", "Active", "Last sync"})
			for _, src := range list {
				lastSync := "never"
				if src.LastSyncAt != nil {
					lastSync = src.LastSyncAt.Format("2006-01-02 15:04")
				}
				tw.AppendRow(table.Row{src.ID[:8], src.Name, src.SourceType, src.IsActive, lastSync})
			}
			tw.Render()
			return nil
		},
	}
}

func newSourceSetActiveCmd(verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <source-id>",
		Short: verb + " a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.SetSourceActive(ctx, resolveUserID(), args[0], active); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s source %s\n", ui.Good.Render(verb+"d"), args[0])
			return nil
		},
	}
}
