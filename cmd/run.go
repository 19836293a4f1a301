package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dayuer/justrobot-go/internal/bot"
	"github.com/dayuer/justrobot-go/internal/builtin"
	"github.com/dayuer/justrobot-go/internal/config"
	"github.com/dayuer/justrobot-go/internal/loader"
	"github.com/dayuer/justrobot-go/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load every component and run the adapters until shutdown",
	RunE:  runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// loadConfig reads the tables, applies .env and JUSTROBOT_* overrides and validates.
func loadConfig() (config.Config, string, error) {
	dir := config.GetConfigDir(configDir)
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, dir, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ApplyEnv(&cfg, ".env"); err != nil {
		return cfg, dir, err
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, dir, fmt.Errorf("invalid config in %s: %w", dir, err)
	}
	return cfg, dir, nil
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	logDir := cfg.Bot.LogDir
	if logDir != "" && !filepath.IsAbs(logDir) {
		logDir = filepath.Join(workDir, logDir)
	}
	log, err := logging.New(logging.Config{
		Level: logging.Level(cfg.Bot.LogLevel),
		Lang:  cfg.Bot.Language,
		Dir:   logDir,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Close()

	catalog := loader.NewCatalog()
	builtin.Register(catalog)
	b := bot.New(cfg, workDir, catalog, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			log.Log(logging.Warn, logging.En("[Bot] Interrupted, shutting down...").Zh("[Bot] 收到中断信号, 正在关机..."))
			if c := b.Core(); c != nil {
				c.Shutdown("signal")
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return b.Start(ctx)
}
