// Package client is the per-adapter capability registry: it hands out entity
// handles bound to the adapter's send capability, caches the adapter's rosters
// and counts traffic.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// Wire is the part of an adapter the client needs.
type Wire interface {
	Send(ctx context.Context, to bus.Target, r *bus.Reply) error
	IsFriend(userID string) bool
}

// Optional roster capabilities. An adapter implements any subset.
type (
	UserLister interface {
		UserList(ctx context.Context) ([]string, error)
	}
	GroupLister interface {
		GroupList(ctx context.Context) ([]string, error)
	}
	ChannelLister interface {
		ChannelList(ctx context.Context) ([]bus.ChannelRef, error)
	}
	GuildLister interface {
		GuildList(ctx context.Context) ([]string, error)
	}

	UserUpdater interface {
		UpdateUserList(ctx context.Context) error
	}
	GroupUpdater interface {
		UpdateGroupList(ctx context.Context) error
	}
	ChannelUpdater interface {
		UpdateChannelList(ctx context.Context) error
	}
	GuildUpdater interface {
		UpdateGuildList(ctx context.Context) error
	}
)

// Info identifies the adapter behind a client.
type Info struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Client is one adapter's capability registry.
type Client struct {
	info   Info
	wire   Wire
	log    logging.Logger
	sender *bus.Sender
	shell  *bus.Shell

	mu       sync.RWMutex
	users    []string
	groups   []string
	channels []bus.ChannelRef
	guilds   []string
	onSend   func(adapter string)

	recv atomic.Int64
	sent atomic.Int64
}

// New creates a client for an adapter.
func New(info Info, w Wire, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	c := &Client{info: info, wire: w, log: log}
	c.sender = bus.NewSender(info.Name, c.send, log)
	c.shell = bus.NewShell(info.Name, c.send, log)
	return c
}

func (c *Client) send(ctx context.Context, to bus.Target, r *bus.Reply) error {
	if err := c.wire.Send(ctx, to, r); err != nil {
		return err
	}
	c.sent.Add(1)
	c.mu.RLock()
	hook := c.onSend
	c.mu.RUnlock()
	if hook != nil {
		hook(c.info.Name)
	}
	return nil
}

// OnSend installs a callback run after every successful send.
func (c *Client) OnSend(fn func(adapter string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSend = fn
}

func (c *Client) Name() string    { return c.info.Name }
func (c *Client) ID() string      { return c.info.ID }
func (c *Client) Version() string { return c.info.Version }
func (c *Client) Info() Info      { return c.info }

// Sender returns the counted send capability of the adapter.
func (c *Client) Sender() *bus.Sender { return c.sender }

// Shell returns the message shell shared by every message from the adapter.
func (c *Client) Shell() *bus.Shell { return c.shell }

// IsFriend asks the adapter whether userID is a friend.
func (c *Client) IsFriend(userID string) bool { return c.wire.IsFriend(userID) }

// PickUser returns a fresh user handle.
func (c *Client) PickUser(id string) *bus.User { return bus.NewUser(c.sender, id) }

// PickGroup returns a fresh group handle.
func (c *Client) PickGroup(id string) *bus.Group { return bus.NewGroup(c.sender, id) }

// PickGuild returns a fresh guild handle.
func (c *Client) PickGuild(id string) *bus.Guild { return bus.NewGuild(c.sender, id) }

// PickChannel returns a fresh channel handle. See bus.NewChannel for the id rules.
func (c *Client) PickChannel(id, guild string) (*bus.Channel, error) {
	return bus.NewChannel(c.sender, id, guild)
}

// CountRecv records one received event and returns the new total.
func (c *Client) CountRecv() int64 { return c.recv.Add(1) }

// Received returns the number of events received by the adapter.
func (c *Client) Received() int64 { return c.recv.Load() }

// Sent returns the number of replies the adapter delivered.
func (c *Client) Sent() int64 { return c.sent.Load() }

// Refresh asks the adapter to update its rosters and caches what it reports.
// Missing capabilities are logged and skipped.
func (c *Client) Refresh(ctx context.Context) error {
	var errs []error

	if u, ok := c.wire.(UserUpdater); ok {
		errs = append(errs, u.UpdateUserList(ctx))
	}
	if u, ok := c.wire.(GroupUpdater); ok {
		errs = append(errs, u.UpdateGroupList(ctx))
	}
	if u, ok := c.wire.(GuildUpdater); ok {
		errs = append(errs, u.UpdateGuildList(ctx))
	}
	if u, ok := c.wire.(ChannelUpdater); ok {
		errs = append(errs, u.UpdateChannelList(ctx))
	}

	var userList, groupList, guildList listFunc
	if l, ok := c.wire.(UserLister); ok {
		userList = l.UserList
	}
	if l, ok := c.wire.(GroupLister); ok {
		groupList = l.GroupList
	}
	if l, ok := c.wire.(GuildLister); ok {
		guildList = l.GuildList
	}

	users, err := c.fetch(ctx, "user", userList)
	errs = append(errs, err)
	groups, err := c.fetch(ctx, "group", groupList)
	errs = append(errs, err)
	guilds, err := c.fetch(ctx, "guild", guildList)
	errs = append(errs, err)

	var channels []bus.ChannelRef
	if l, ok := c.wire.(ChannelLister); ok {
		refs, err := l.ChannelList(ctx)
		errs = append(errs, err)
		channels = lo.Uniq(lo.Filter(refs, func(r bus.ChannelRef, _ int) bool {
			return r.ID != "" && r.Guild != ""
		}))
	} else {
		c.missing("channel")
	}

	c.mu.Lock()
	c.users, c.groups, c.guilds, c.channels = users, groups, guilds, channels
	c.mu.Unlock()

	return errors.Join(errs...)
}

type listFunc func(context.Context) ([]string, error)

func (c *Client) fetch(ctx context.Context, kind string, list listFunc) ([]string, error) {
	if list == nil {
		c.missing(kind)
		return nil, nil
	}
	ids, err := list(ctx)
	return lo.Uniq(lo.Compact(ids)), err
}

func (c *Client) missing(kind string) {
	c.log.Log(logging.Debug, logging.En("[Client] %s does not report a %s list", c.info.Name, kind).
		Zh("[Client] %s 未提供%s列表", c.info.Name, kind))
}

// Users returns the cached user roster.
func (c *Client) Users() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.users...)
}

// Groups returns the cached group roster.
func (c *Client) Groups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.groups...)
}

// Guilds returns the cached guild roster.
func (c *Client) Guilds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.guilds...)
}

// Channels returns the cached channel roster.
func (c *Client) Channels() []bus.ChannelRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]bus.ChannelRef(nil), c.channels...)
}

// HasUser reports whether id is in the cached user roster.
func (c *Client) HasUser(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Contains(c.users, id)
}

// HasGroup reports whether id is in the cached group roster.
func (c *Client) HasGroup(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Contains(c.groups, id)
}

// HasGuild reports whether id is in the cached guild roster.
func (c *Client) HasGuild(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Contains(c.guilds, id)
}

// ChannelGuild returns the guild of channel id from the cached roster.
func (c *Client) ChannelGuild(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := lo.Find(c.channels, func(r bus.ChannelRef) bool { return r.ID == id })
	return ref.Guild, ok
}
