package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayuer/justrobot-go/internal/builtin"
	"github.com/dayuer/justrobot-go/internal/config"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestOnboardThenStatus(t *testing.T) {
	root := t.TempDir()
	cfgDir := filepath.Join(root, "config")

	out := execute(t, "onboard", "--config", cfgDir, "--root", root)
	assert.Contains(t, out, "Created config")
	assert.FileExists(t, filepath.Join(cfgDir, config.BotFile))
	assert.FileExists(t, filepath.Join(root, "adapters", builtin.StdinAdapter, "manifest.yaml"))
	assert.NoDirExists(t, filepath.Join(root, "adapters", builtin.WSAdapter))

	out = execute(t, "onboard", "--config", cfgDir, "--root", root)
	assert.Contains(t, out, "Config already exists")

	out = execute(t, "status", "--config", cfgDir, "--root", root)
	assert.Contains(t, out, "Bot: Paimon")
	assert.Contains(t, out, "adapter_stdin: [stdin]")
	assert.Contains(t, out, builtin.PingPlugin)
	assert.Contains(t, out, builtin.CommandTranslator)
	assert.NotContains(t, out, builtin.WSAdapter)
}

func TestStatus_InvalidConfig(t *testing.T) {
	root := t.TempDir()
	cfgDir := filepath.Join(root, "config")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, config.BotFile), []byte(`{"name": "x", "language": "fr"}`), 0644))

	rootCmd.SetArgs([]string{"status", "--config", cfgDir, "--root", root})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Error(t, rootCmd.Execute())
}
