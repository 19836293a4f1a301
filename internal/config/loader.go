package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultDir is the config directory used when none is given.
const DefaultDir = "config"

// GetConfigDir returns dir, or the JUSTROBOT_CONFIG_DIR override, or DefaultDir.
func GetConfigDir(dir string) string {
	if dir != "" {
		return dir
	}
	if env := os.Getenv("JUSTROBOT_CONFIG_DIR"); env != "" {
		return env
	}
	return DefaultDir
}

// Load reads the four tables from dir.
// Missing files are written with their defaults first, so a first run leaves a
// complete config directory behind. A malformed file is an error.
func Load(dir string) (Config, error) {
	dir = GetConfigDir(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return DefaultConfig(), fmt.Errorf("create config dir: %w", err)
	}

	cfg := DefaultConfig() // start with defaults so zero-value fields get filled
	def := DefaultConfig()

	// The bot table merges over its defaults, except the master table which is
	// never inherited. Component tables replace theirs.
	cfg.Bot.Master = nil
	found, err := readTableFound(dir, BotFile, &cfg.Bot, def.Bot)
	if err != nil {
		return DefaultConfig(), err
	}
	if !found {
		cfg.Bot.Master = def.Bot.Master
	}
	for _, tb := range []struct {
		file string
		into *Tables
		def  Tables
	}{
		{AdapterFile, &cfg.Adapters, def.Adapters},
		{TranslatorFile, &cfg.Translators, def.Translators},
		{PluginFile, &cfg.Plugins, def.Plugins},
	} {
		var t Tables
		found, err := readTableFound(dir, tb.file, &t, tb.def)
		if err != nil {
			return DefaultConfig(), err
		}
		if found {
			*tb.into = t
		}
	}
	return cfg, nil
}

// readTableFound decodes one table file into into. A missing file is written
// from def and reported as not found.
func readTableFound(dir, file string, into, def any) (bool, error) {
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("read %s: %w", file, err)
		}
		if err := writeJSON(path, def); err != nil {
			return false, fmt.Errorf("initialize %s: %w", file, err)
		}
		return false, nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("parse %s: %w", file, err)
	}
	return true, nil
}

// Save writes all four tables into dir.
func Save(cfg Config, dir string) error {
	dir = GetConfigDir(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for file, v := range map[string]any{
		BotFile:        cfg.Bot,
		AdapterFile:    cfg.Adapters,
		TranslatorFile: cfg.Translators,
		PluginFile:     cfg.Plugins,
	} {
		if err := writeJSON(filepath.Join(dir, file), v); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var validate = validator.New()

// Validate checks the tables against their struct constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EnvOverrides are the JUSTROBOT_* environment variables applied on top of the files.
type EnvOverrides struct {
	LogLevel int    `envconfig:"LOG_LEVEL"`
	Language string `envconfig:"LANGUAGE"`
	RedisURL string `envconfig:"REDIS_URL"`
	Workers  int    `envconfig:"WORKERS"`
}

// ApplyEnv loads an optional .env file and applies JUSTROBOT_* overrides.
func ApplyEnv(cfg *Config, dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	var env EnvOverrides
	if err := envconfig.Process("JUSTROBOT", &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if env.LogLevel != 0 {
		cfg.Bot.LogLevel = env.LogLevel
	}
	if env.Language != "" {
		cfg.Bot.Language = env.Language
	}
	if env.RedisURL != "" {
		cfg.Bot.Redis.URL = env.RedisURL
	}
	if env.Workers != 0 {
		cfg.Bot.Workers = env.Workers
	}
	return nil
}
