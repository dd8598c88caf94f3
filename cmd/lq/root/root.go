package root

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lifequest/internal/ui"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "lq",
	Short:         "LifeQuest, a gamified task and progression tracker",
	Long:          "LifeQuest turns tasks, quests and experiments into XP and character-stat progression.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.lifequest.yml)")
	rootCmd.PersistentFlags().String("db", "", "database file (default ~/.lifequest.db)")
	rootCmd.PersistentFlags().String("user", "", "user id (UUID)")

	viper.SetEnvPrefix("LIFEQUEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))

	rootCmd.AddCommand(
		newStatusCmd(),
		newDashboardCmd(),
		newAddCmd(),
		newCompleteCmd(),
		newSkipCmd(),
		newFailCmd(),
		newQuestCmd(),
		newExperimentCmd(),
		newSourceCmd(),
		newSyncCmd(),
		newBoardCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
