package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Schema Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "zh", cfg.Bot.Language)
	assert.Equal(t, 4, cfg.Bot.LogLevel)
	assert.Equal(t, 5, cfg.Bot.ShutdownGrace)
	assert.Equal(t, []string{"stdin"}, cfg.Bot.Master["adapter_stdin"])
	assert.Equal(t, "plugins", cfg.Bot.Dirs.Plugins)
	assert.NoError(t, Validate(cfg))
}

func TestConfig_CamelCaseJSON(t *testing.T) {
	jsonStr := `{
		"name": "bot",
		"language": "en",
		"logLevel": 5,
		"master": {"adapter_ws": ["u1", "u2"]},
		"shutdownGrace": 2,
		"redis": {"url": "redis://localhost:6379/0"}
	}`

	var bot BotConfig
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &bot))
	assert.Equal(t, "en", bot.Language)
	assert.Equal(t, 5, bot.LogLevel)
	assert.Equal(t, []string{"u1", "u2"}, bot.Master["adapter_ws"])
	assert.Equal(t, 2, bot.ShutdownGrace)
	assert.Equal(t, "redis://localhost:6379/0", bot.Redis.URL)
}

func TestTables_Lookup(t *testing.T) {
	tables := Tables{
		{Name: "plugin_ping", UseTree: true, Adapters: []string{"A"}},
		{Name: "plugin_status"},
	}
	got := tables.Lookup("plugin_ping")
	assert.True(t, got.UseTree)
	assert.Equal(t, []string{"A"}, got.Adapters)

	missing := tables.Lookup("nope")
	assert.Equal(t, "nope", missing.Name)
	assert.False(t, missing.UseTree)

	assert.Equal(t, []string{"plugin_ping", "plugin_status"}, tables.Names())
}

func TestComponent_Options(t *testing.T) {
	var c Component
	require.NoError(t, json.Unmarshal([]byte(`{"name":"ws","options":{"url":"ws://x","friends":["a","b"]}}`), &c))
	assert.Equal(t, "ws://x", c.String("url", ""))
	assert.Equal(t, "def", c.String("missing", "def"))
	assert.Equal(t, []string{"a", "b"}, c.Strings("friends"))
	assert.Nil(t, c.Strings("missing"))
}

// --- Validation Tests ---

func TestValidate_RejectsBadLanguage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bot.Language = "fr"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Language")
}

func TestValidate_RejectsLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bot.LogLevel = 9
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsNamelessComponent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Plugins = append(cfg.Plugins, Component{})
	assert.Error(t, Validate(cfg))
}

// --- Loader Tests ---

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	for _, f := range []string{BotFile, AdapterFile, TranslatorFile, PluginFile} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"name": "Klee", "language": "en", "logLevel": 3}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, BotFile), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Klee", cfg.Bot.Name)
	assert.Equal(t, 3, cfg.Bot.LogLevel)
	// Defaults should be preserved for unset fields
	assert.Equal(t, 5, cfg.Bot.ShutdownGrace)
	assert.Equal(t, "adapters", cfg.Bot.Dirs.Adapters)
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PluginFile), []byte("{invalid json}"), 0644))

	cfg, err := Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), PluginFile)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSave_And_Load_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	cfg := DefaultConfig()
	cfg.Bot.Name = "Venti"
	cfg.Plugins = Tables{{Name: "plugin_ping", UseTree: true, Adapters: []string{"adapter_ws"}}}

	require.NoError(t, Save(cfg, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Venti", loaded.Bot.Name)
	assert.Equal(t, cfg.Plugins, loaded.Plugins)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("JUSTROBOT_LOG_LEVEL", "5")
	t.Setenv("JUSTROBOT_LANGUAGE", "en")
	t.Setenv("JUSTROBOT_REDIS_URL", "redis://cache:6379/1")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(&cfg, ""))
	assert.Equal(t, 5, cfg.Bot.LogLevel)
	assert.Equal(t, "en", cfg.Bot.Language)
	assert.Equal(t, "redis://cache:6379/1", cfg.Bot.Redis.URL)
	assert.Equal(t, 8, cfg.Bot.Workers)
}

func TestApplyEnv_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JUSTROBOT_WORKERS=3\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("JUSTROBOT_WORKERS") })

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(&cfg, path))
	assert.Equal(t, 3, cfg.Bot.Workers)
}

func TestApplyEnv_MissingDotEnvIgnored(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, ApplyEnv(&cfg, filepath.Join(t.TempDir(), "absent.env")))
}

func TestGetConfigDir(t *testing.T) {
	assert.Equal(t, "x", GetConfigDir("x"))
	t.Setenv("JUSTROBOT_CONFIG_DIR", "/etc/jr")
	assert.Equal(t, "/etc/jr", GetConfigDir(""))
}
