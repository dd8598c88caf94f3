package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lifequest/internal/engine"
	"lifequest/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show character stats and leveling",
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

			character, stats, err := svc.CharacterStats(ctx, userID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconSparkle, character.Name))
			fmt.Fprintln(cmd.OutOrStdout(), "")
			for _, st := range stats {
				l := engine.ComputeLeveling(st.TotalXP)
				bar := ui.ProgressBar(l.CurrentLevelXP, l.XPInLevel, 20)
				fmt.Fprintf(cmd.OutOrStdout(), "- %s %s\n", ui.Key.Render(st.Category+":"),
					fmt.Sprintf("lvl %d (%s) %s %d/%d xp, %d to next",
						l.Level, st.LevelTitle, bar, l.CurrentLevelXP, l.XPInLevel, l.XPToNextLevel))
			}
			return nil
		},
	}
	return cmd
}
