// Package bot wires configuration, the component loaders, the core and the
// adapter manager into one running bot.
package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dayuer/justrobot-go/internal/adapter"
	"github.com/dayuer/justrobot-go/internal/client"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/config"
	"github.com/dayuer/justrobot-go/internal/core"
	"github.com/dayuer/justrobot-go/internal/loader"
	"github.com/dayuer/justrobot-go/internal/logging"
	"github.com/dayuer/justrobot-go/internal/redis"
	"github.com/dayuer/justrobot-go/internal/registry"
)

// Summary counts what Load attached and what failed.
type Summary struct {
	Adapters    int
	Translators int
	Plugins     int
	Failures    []*loader.LoadError
}

// Bot is one configured bot instance.
type Bot struct {
	cfg     config.Config
	root    string
	log     logging.Logger
	catalog *loader.Catalog

	store   *redis.Store
	core    *core.Core
	manager *adapter.Manager

	// Exit overrides the forced-exit func handed to the core.
	Exit func(code int)
}

// New creates a bot. Relative component directories resolve against root.
func New(cfg config.Config, root string, catalog *loader.Catalog, log logging.Logger) *Bot {
	if log == nil {
		log = logging.Nop()
	}
	return &Bot{cfg: cfg, root: root, catalog: catalog, log: log}
}

// Core returns the core built by Load.
func (b *Bot) Core() *core.Core { return b.core }

// Manager returns the adapter manager built by Load.
func (b *Bot) Manager() *adapter.Manager { return b.manager }

// Dir resolves a component base directory.
func (b *Bot) Dir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(b.root, dir)
}

// Load connects the optional stats store, loads and attaches every component
// family and records them in the core.
func (b *Bot) Load(ctx context.Context) (Summary, error) {
	bc := b.cfg.Bot
	b.log.Log(logging.Info, logging.En(" ----- Welcome to use JustRobot  ^_< ------").Zh(" -------- 欢迎使用 JustRobot  ^_< ---------"))

	opts := core.Options{
		Name:   bc.Name,
		Lang:   bc.Language,
		Master: bc.Master,
		Grace:  time.Duration(bc.ShutdownGrace) * time.Second,
		Log:    b.log,
		Exit:   b.Exit,
	}
	b.store = redis.New(redis.Config{URL: bc.Redis.URL, Password: bc.Redis.Password, DB: bc.Redis.DB}, b.log)
	if b.store.Enabled() && b.store.Connect(ctx) {
		if err := b.store.Register(ctx, redis.Identity{Name: bc.Name}); err != nil {
			b.log.Log(logging.Warn, logging.En("[Bot] ⚠️ Stats store registration failed: %v", err))
		}
		opts.Stats = b.store
	}
	b.core = core.New(opts)
	b.manager = adapter.NewManager(b.core, adapter.Options{Workers: bc.Workers, QueueSize: bc.QueueSize}, b.log)

	adapters := loader.New[component.Adapter](component.Adapters, b.Dir(bc.Dirs.Adapters), b.catalog, b.log)
	translators := loader.New[component.Translator](component.Translators, b.Dir(bc.Dirs.Translators), b.catalog, b.log)
	plugins := loader.New[component.Plugin](component.Plugins, b.Dir(bc.Dirs.Plugins), b.catalog, b.log)

	var (
		la        []loader.Loaded[component.Adapter]
		lt        []loader.Loaded[component.Translator]
		lp        []loader.Loaded[component.Plugin]
		fa, ft, fp []*loader.LoadError
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { la, fa, err = adapters.Load(gctx); return })
	g.Go(func() (err error) { lt, ft, err = translators.Load(gctx); return })
	g.Go(func() (err error) { lp, fp, err = plugins.Load(gctx); return })
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("load components: %w", err)
	}

	var sum Summary
	sum.Failures = append(sum.Failures, fa...)
	sum.Failures = append(sum.Failures, ft...)
	sum.Failures = append(sum.Failures, fp...)

	la, fails := adapters.Attach(la, func(a component.Adapter) error {
		return a.Attach(b.core, b.cfg.Adapters.Lookup(a.Name()))
	})
	sum.Failures = append(sum.Failures, fails...)
	for _, item := range la {
		b.addAdapter(ctx, item.Value)
	}

	treg := registry.New[component.Translator](component.Translators, b.log)
	lt, fails = translators.Attach(lt, func(t component.Translator) error {
		return t.Attach(b.core, b.cfg.Translators.Lookup(t.Name()))
	})
	sum.Failures = append(sum.Failures, fails...)
	for _, item := range lt {
		t := item.Value
		treg.Register(registry.Entry[component.Translator]{
			Name: t.Name(), Priority: t.Priority(), Scope: component.ScopeOf(b.cfg.Translators.Lookup(t.Name())), Value: t,
		})
	}

	preg := registry.New[component.Plugin](component.Plugins, b.log)
	lp, fails = plugins.Attach(lp, func(p component.Plugin) error {
		return p.Attach(b.core, b.cfg.Plugins.Lookup(p.Name()))
	})
	sum.Failures = append(sum.Failures, fails...)
	for _, item := range lp {
		p := item.Value
		preg.Register(registry.Entry[component.Plugin]{
			Name: p.Name(), Priority: p.Priority(), Scope: component.ScopeOf(b.cfg.Plugins.Lookup(p.Name())), Value: p,
		})
	}

	b.core.Use(treg, preg)

	sum.Adapters, sum.Translators, sum.Plugins = len(b.core.Adapters()), treg.Len(), preg.Len()
	b.log.Log(logging.Info, logging.En("[Bot] Loaded %d adapters, %d translators, %d plugins", sum.Adapters, sum.Translators, sum.Plugins).
		Zh("[Bot] 加载完成, 共有%d个适配器, %d个转译器, %d个插件", sum.Adapters, sum.Translators, sum.Plugins))
	return sum, nil
}

func (b *Bot) addAdapter(ctx context.Context, a component.Adapter) {
	cl := client.New(client.Info{Name: a.Name(), ID: a.ID(), Version: a.Version()}, a, b.log)
	if err := cl.Refresh(ctx); err != nil {
		b.log.Log(logging.Warn, logging.En("[Bot] ⚠️ Roster refresh of %s incomplete: %s", a.Name(), logging.FirstLine(err)).
			Zh("[Bot] ⚠️ %s 的名单刷新不完整: %s", a.Name(), logging.FirstLine(err)))
	}
	b.core.Register(cl)
	b.manager.Register(adapter.NewRunner(a, cl, b.core, b.log))
}

// Run runs every adapter loop until they end or a shutdown cancels them.
// Without adapters it waits for ctx or a shutdown.
func (b *Bot) Run(ctx context.Context) error {
	if b.core == nil {
		return fmt.Errorf("bot not loaded")
	}
	defer b.store.Close()

	if len(b.manager.Names()) == 0 {
		b.log.Log(logging.Info, logging.En("[Bot] No adapter detected").Zh("[Bot] 未检测到可用适配器"))
		select {
		case <-ctx.Done():
		case <-b.core.Stopping():
		}
		return nil
	}
	return b.manager.Run(ctx)
}

// Start loads and runs the bot.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.Load(ctx); err != nil {
		return err
	}
	return b.Run(ctx)
}

var _ core.Stats = (*redis.Store)(nil)
