package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dayuer/justrobot-go/internal/bot"
	"github.com/dayuer/justrobot-go/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Write the default config tables and component directories",
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dir := config.GetConfigDir(configDir)

	if _, err := os.Stat(filepath.Join(dir, config.BotFile)); err == nil {
		fmt.Fprintf(out, "Config already exists at %s\n", dir)
	} else {
		if err := config.Save(config.DefaultConfig(), dir); err != nil {
			return fmt.Errorf("creating config: %w", err)
		}
		fmt.Fprintf(out, "✓ Created config at %s\n", dir)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	written, err := bot.New(cfg, workDir, nil, nil).Scaffold()
	if err != nil {
		return fmt.Errorf("creating component directories: %w", err)
	}
	for _, d := range written {
		fmt.Fprintf(out, "  Created %s\n", d)
	}

	fmt.Fprintln(out, "\n🤖 justrobot is ready!")
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Set your master ids in %s\n", filepath.Join(dir, config.BotFile))
	fmt.Fprintln(out, "  2. Start: justrobot run")
	return nil
}
