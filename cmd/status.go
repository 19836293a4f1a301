package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dayuer/justrobot-go/internal/bot"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/loader"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and discovered components",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	abs, _ := filepath.Abs(dir)
	fmt.Fprintln(out, "🤖 justrobot Status")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Config: %s\n", abs)
	fmt.Fprintf(out, "Bot: %s (language %s, log level %d)\n", cfg.Bot.Name, cfg.Bot.Language, cfg.Bot.LogLevel)
	if cfg.Bot.Redis.URL != "" {
		fmt.Fprintf(out, "Stats store: %s\n", cfg.Bot.Redis.URL)
	}

	fmt.Fprintln(out, "\nMasters:")
	adapters := make([]string, 0, len(cfg.Bot.Master))
	for a := range cfg.Bot.Master {
		adapters = append(adapters, a)
	}
	sort.Strings(adapters)
	for _, a := range adapters {
		fmt.Fprintf(out, "  %s: %v\n", a, cfg.Bot.Master[a])
	}

	cands, err := bot.Candidates(cfg, workDir)
	if err != nil {
		return fmt.Errorf("scanning component directories: %w", err)
	}

	fmt.Fprintln(out, "\nComponents:")
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Family", "Module", "Version", "Components"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, family := range []component.Family{component.Adapters, component.Translators, component.Plugins} {
		if len(cands[family]) == 0 {
			table.Append([]string{string(family), "(none)", "", ""})
		}
		for _, d := range cands[family] {
			m, err := loader.ReadManifest(d)
			if err != nil {
				table.Append([]string{string(family), filepath.Base(d), "", "✗ " + err.Error()})
				continue
			}
			table.Append([]string{string(family), m.Name, m.Version, strings.Join(m.Components, ", ")})
		}
	}
	table.Render()
	return nil
}
