package bot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dayuer/justrobot-go/internal/builtin"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/config"
	"github.com/dayuer/justrobot-go/internal/loader"
	"github.com/dayuer/justrobot-go/internal/logging"
)

type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Bot.Language = "en"
	cfg.Bot.ShutdownGrace = 1
	cfg.Bot.Workers = 1
	return cfg
}

func terminalCatalog(input string, out *syncBuffer) *loader.Catalog {
	c := loader.NewCatalog()
	builtin.Register(c)
	c.Register(builtin.StdinAdapter, func() (any, error) {
		return builtin.NewStdin(strings.NewReader(input), out), nil
	})
	return c
}

func TestScaffold_WritesConfiguredModules(t *testing.T) {
	root := t.TempDir()
	b := New(testConfig(), root, nil, nil)

	written, err := b.Scaffold()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "adapters", builtin.StdinAdapter),
		filepath.Join(root, "translators", builtin.CommandTranslator),
		filepath.Join(root, "plugins", builtin.PingPlugin),
		filepath.Join(root, "plugins", builtin.StatusPlugin),
	}, written)

	again, err := b.Scaffold()
	require.NoError(t, err)
	assert.Empty(t, again)

	cands, err := Candidates(testConfig(), root)
	require.NoError(t, err)
	assert.Len(t, cands[component.Adapters], 1)
	assert.Len(t, cands[component.Plugins], 2)
}

func TestLoad_PartialFailure(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig()
	b := New(cfg, root, terminalCatalog("", &syncBuffer{}), logging.Nop())
	_, err := b.Scaffold()
	require.NoError(t, err)
	require.NoError(t, loader.WriteManifest(filepath.Join(root, "plugins", "plugin_missing"),
		loader.Manifest{Components: []string{"plugin_missing"}}))
	// the websocket adapter has no url in the default tables, so Attach fails
	require.NoError(t, loader.WriteManifest(filepath.Join(root, "adapters", builtin.WSAdapter),
		loader.Manifest{Components: []string{builtin.WSAdapter}}))

	rec := logging.NewRecorder()
	b = New(cfg, root, terminalCatalog("", &syncBuffer{}), rec)
	sum, err := b.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Adapters)
	assert.Equal(t, 1, sum.Translators)
	assert.Equal(t, 2, sum.Plugins)
	require.Len(t, sum.Failures, 2)
	kinds := map[loader.Kind]bool{}
	for _, f := range sum.Failures {
		kinds[f.Kind] = true
	}
	assert.Equal(t, map[loader.Kind]bool{loader.NotFound: true, loader.AttachFailure: true}, kinds)

	assert.Equal(t, 1, rec.Count(logging.Info, "Welcome to use JustRobot"))
	assert.Equal(t, 1, rec.Count(logging.Info, "Loaded 1 adapters, 1 translators, 2 plugins"))
	assert.Equal(t, []string{builtin.StdinAdapter}, b.Core().Adapters())
	assert.Equal(t, [][]string{{builtin.StdinAdapter, builtin.StdinUser}}, b.Core().UserList())
}

func TestStart_TerminalRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	out := &syncBuffer{}
	cfg := testConfig()
	b := New(cfg, root, terminalCatalog("/ping\nhello\n/status\n", out), nil)
	_, err := b.Scaffold()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, b.Start(ctx))

	text := out.String()
	assert.Contains(t, text, "pong")
	assert.Contains(t, text, "Paimon status")
	assert.Equal(t, int64(3), b.Core().Received())
	assert.Equal(t, int64(2), b.Core().Sent())
}

func TestStart_MasterShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	cfg := testConfig()
	rec := logging.NewRecorder()
	b := New(cfg, root, terminalCatalog("/shutdown\n", &syncBuffer{}), rec)
	b.Exit = func(int) { t.Error("unexpected forced exit") }
	_, err := b.Scaffold()
	require.NoError(t, err)

	require.NoError(t, b.Start(context.Background()))
	select {
	case <-b.Core().Stopping():
	case <-time.After(time.Second):
		t.Fatal("shutdown was not started")
	}
	<-b.Core().ShutdownSettled()
	assert.Equal(t, 1, rec.Count(logging.Warn, "Shutdown requested by master stdin"))
}

func TestRun_NoAdapters(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	cfg := testConfig()
	cfg.Adapters = nil
	rec := logging.NewRecorder()
	b := New(cfg, root, terminalCatalog("", &syncBuffer{}), rec)
	_, err := b.Scaffold()
	require.NoError(t, err)

	_, err = b.Load(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- b.Run(context.Background()) }()

	require.Eventually(t, func() bool { return rec.Count(logging.Info, "No adapter detected") == 1 }, time.Second, 5*time.Millisecond)
	b.Core().Shutdown("test")
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after shutdown")
	}
}

func TestRun_BeforeLoad(t *testing.T) {
	assert.Error(t, New(testConfig(), t.TempDir(), nil, nil).Run(context.Background()))
}
