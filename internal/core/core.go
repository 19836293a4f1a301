// Package core is the shared routing context: it owns the component name
// tables, the per-adapter clients, the global entity lists, the master
// permission table and the traffic counters, and runs the shutdown sequence.
//
// All mutation goes through Core's methods under one RWMutex.
package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/dayuer/justrobot-go/internal/client"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/logging"
	"github.com/dayuer/justrobot-go/internal/pipeline"
	"github.com/dayuer/justrobot-go/internal/registry"
)

// statsTimeout bounds one call to the external stats store.
const statsTimeout = 2 * time.Second

// Options configures a Core.
type Options struct {
	Name   string
	Lang   string
	Master map[string][]string
	Grace  time.Duration
	Log    logging.Logger
	Stats  Stats

	// Exit terminates the process after the shutdown grace period. Defaults to os.Exit.
	Exit func(code int)
}

// Core is the shared registry every component is attached to.
type Core struct {
	name   string
	lang   string
	master map[string][]string
	grace  time.Duration
	log    logging.Logger
	stats  Stats
	exit   func(int)

	mu          sync.RWMutex
	adapters    []string
	clients     map[string]*client.Client
	translators []string
	plugins     []string
	pipe        *pipeline.Pipeline
	lists       map[listKind]*entityList

	recv atomic.Int64
	sent atomic.Int64

	noMaster sync.Map // adapters already reported without a master table

	lifecycle
}

// New creates a Core with empty tables.
func New(opts Options) *Core {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.Exit == nil {
		opts.Exit = osExit
	}
	c := &Core{
		name:    opts.Name,
		lang:    opts.Lang,
		master:  opts.Master,
		grace:   opts.Grace,
		log:     opts.Log,
		stats:   opts.Stats,
		exit:    opts.Exit,
		clients: make(map[string]*client.Client),
		lists: map[listKind]*entityList{
			userList:    newEntityList(),
			groupList:   newEntityList(),
			guildList:   newEntityList(),
			channelList: newEntityList(),
		},
		pipe: pipeline.New(
			registry.New[component.Translator](component.Translators, opts.Log),
			registry.New[component.Plugin](component.Plugins, opts.Log),
			opts.Log,
		),
	}
	c.lifecycle.init()
	return c
}

// Logger returns the shared logger.
func (c *Core) Logger() logging.Logger { return c.log }

// Lang returns the bot language.
func (c *Core) Lang() string { return c.lang }

// Name returns the bot name.
func (c *Core) Name() string { return c.name }

// Register records an adapter's client and imports its cached rosters into
// the global lists. A second client with the same name replaces the first.
func (c *Core) Register(cl *client.Client) {
	name := cl.Name()
	c.mu.Lock()
	if _, exists := c.clients[name]; exists {
		c.log.Log(logging.Warn, logging.En("[Core] ⚠️ Adapter %s registered twice, the later one replaces the earlier", name).
			Zh("[Core] ⚠️ 适配器 %s 重复注册, 后者覆盖前者", name))
	} else {
		c.adapters = append(c.adapters, name)
	}
	c.clients[name] = cl
	c.mu.Unlock()

	cl.OnSend(c.countSend)

	for _, id := range cl.Users() {
		c.SetUserList(id, name)
	}
	for _, id := range cl.Groups() {
		c.SetGroupList(id, name)
	}
	for _, id := range cl.Guilds() {
		c.SetGuildList(id, name)
	}
	for _, ref := range cl.Channels() {
		c.SetChannelList(ref, name)
	}
}

// Use installs the translator and plugin tables the pipeline dispatches to.
func (c *Core) Use(translators *registry.Registry[component.Translator], plugins *registry.Registry[component.Plugin]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.translators = translators.Names()
	c.plugins = plugins.Names()
	c.pipe = pipeline.New(translators, plugins, c.log)
}

// Client returns the client of adapter.
func (c *Core) Client(adapter string) (*client.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cl, ok := c.clients[adapter]
	return cl, ok
}

// Adapters returns the registered adapter names in registration order.
func (c *Core) Adapters() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.adapters...)
}

// Pipeline returns the active dispatch pipeline.
func (c *Core) Pipeline() *pipeline.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pipe
}

// IsMaster reports whether userID is a configured master of adapter.
// An adapter without a master table has no masters; that is logged once.
func (c *Core) IsMaster(adapter, userID string) bool {
	masters, ok := c.master[adapter]
	if !ok {
		if _, seen := c.noMaster.LoadOrStore(adapter, struct{}{}); seen {
			return false
		}
		c.log.Log(logging.Error, logging.En("[Core] No master table for adapter %s", adapter).
			Zh("[Core] 适配器 %s 未配置主人列表", adapter))
		return false
	}
	return userID != "" && lo.Contains(masters, userID)
}

// CountRecv records one inbound event.
func (c *Core) CountRecv(ctx context.Context) {
	c.recv.Add(1)
	if c.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()
	if err := c.stats.IncrRecv(ctx); err != nil {
		c.log.Log(logging.Debug, logging.En("[Core] stats store rejected recv count: %v", err))
	}
}

func (c *Core) countSend(string) {
	c.sent.Add(1)
	if c.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()
	if err := c.stats.IncrSend(ctx); err != nil {
		c.log.Log(logging.Debug, logging.En("[Core] stats store rejected send count: %v", err))
	}
}

// Received returns the total inbound event count.
func (c *Core) Received() int64 { return c.recv.Load() }

// Sent returns the total delivered reply count.
func (c *Core) Sent() int64 { return c.sent.Load() }

// Snapshot implements component.Host.
func (c *Core) Snapshot() component.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return component.Snapshot{
		Name:        c.name,
		Adapters:    append([]string(nil), c.adapters...),
		Translators: append([]string(nil), c.translators...),
		Plugins:     append([]string(nil), c.plugins...),
		Received:    c.recv.Load(),
		Sent:        c.sent.Load(),
		Users:       c.lists[userList].len(),
		Groups:      c.lists[groupList].len(),
		Channels:    c.lists[channelList].len(),
		Guilds:      c.lists[guildList].len(),
	}
}

var (
	_ component.Host        = (*Core)(nil)
	_ component.AdapterHost = (*Core)(nil)
)
