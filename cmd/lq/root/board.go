package root

import (
	"context"

	"github.com/spf13/cobra"

	"lifequest/internal/tui"
)

func newBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Interactive dashboard board",
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
			return tui.RunBoard(ctx, svc, userID, cmd.OutOrStdout())
		},
	}
}
