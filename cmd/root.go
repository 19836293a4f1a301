package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var (
	configDir string
	workDir   string
)

var rootCmd = &cobra.Command{
	Use:   "justrobot",
	Short: "justrobot: an extensible chat-bot runtime",
	Long: "justrobot routes messages from chat platform adapters through translators\n" +
		"and plugins discovered in the adapters/, translators/ and plugins/ directories.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "config directory (default $JUSTROBOT_CONFIG_DIR or ./config)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "root", "r", ".", "directory holding the adapters, translators, plugins and log directories")
}
