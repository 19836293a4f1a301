package core

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/client"
	"github.com/dayuer/justrobot-go/internal/logging"
)

type listKind string

const (
	userList    listKind = "user"
	groupList   listKind = "group"
	guildList   listKind = "guild"
	channelList listKind = "channel"
)

// parts is the number of composite key parts for a kind.
func (k listKind) parts() int {
	if k == channelList {
		return 3
	}
	return 2
}

// entityList is an append-only list of composite keys [adapter, id...].
// Guarded by Core.mu.
type entityList struct {
	keys [][]string
	seen map[string]struct{}
}

func newEntityList() *entityList {
	return &entityList{seen: make(map[string]struct{})}
}

func joinKey(key []string) string { return strings.Join(key, "\x00") }

func (l *entityList) has(key []string) bool {
	_, ok := l.seen[joinKey(key)]
	return ok
}

func (l *entityList) add(key []string) {
	l.keys = append(l.keys, key)
	l.seen[joinKey(key)] = struct{}{}
}

func (l *entityList) len() int { return len(l.keys) }

func (l *entityList) snapshot() [][]string {
	out := make([][]string, len(l.keys))
	for i, k := range l.keys {
		out[i] = append([]string(nil), k...)
	}
	return out
}

// normalize turns ref into a composite key. With an adapter, ref is a bare id
// (a bus.ChannelRef or [guild, channel] for channels); without, ref is the full key.
func normalize(ref any, adapter []string) []any {
	var parts []any
	switch v := ref.(type) {
	case []any:
		parts = append(parts, v...)
	case []string:
		for _, s := range v {
			parts = append(parts, s)
		}
	case bus.ChannelRef:
		parts = []any{v.Guild, v.ID}
	default:
		parts = []any{v}
	}
	if len(adapter) > 0 && adapter[0] != "" {
		parts = append([]any{adapter[0]}, parts...)
	}
	return parts
}

// SetUserList appends a user key. It returns false and logs when the key is invalid.
func (c *Core) SetUserList(ref any, adapter ...string) bool {
	return c.appendKey(userList, normalize(ref, adapter))
}

// SetGroupList appends a group key.
func (c *Core) SetGroupList(ref any, adapter ...string) bool {
	return c.appendKey(groupList, normalize(ref, adapter))
}

// SetGuildList appends a guild key.
func (c *Core) SetGuildList(ref any, adapter ...string) bool {
	return c.appendKey(guildList, normalize(ref, adapter))
}

// SetChannelList appends a channel key [adapter, guild, channel]. The guild
// [adapter, guild] must already be listed.
func (c *Core) SetChannelList(ref any, adapter ...string) bool {
	return c.appendKey(channelList, normalize(ref, adapter))
}

func (c *Core) appendKey(kind listKind, parts []any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(parts) != kind.parts() {
		c.rejectKey(logging.Error, kind, parts, fmt.Sprintf("want %d parts, got %d", kind.parts(), len(parts)))
		return false
	}

	adapter, ok := parts[0].(string)
	if _, registered := c.clients[adapter]; !ok || !registered {
		c.rejectKey(logging.Error, kind, parts, fmt.Sprintf("adapter %v is not loaded", parts[0]))
		return false
	}

	key := []string{adapter}
	for _, p := range parts[1:] {
		id, ok := p.(string)
		if !ok || id == "" {
			c.rejectKey(logging.Error, kind, parts, fmt.Sprintf("id %v (%T) is not a non-empty string", p, p))
			return false
		}
		key = append(key, id)
	}

	if kind == channelList && !c.lists[guildList].has(key[:2]) {
		c.rejectKey(logging.Error, kind, parts, fmt.Sprintf("guild %s of adapter %s is not listed", key[1], adapter))
		return false
	}

	list := c.lists[kind]
	if list.has(key) {
		c.rejectKey(logging.Debug, kind, parts, "already listed")
		return false
	}
	list.add(key)
	return true
}

func (c *Core) rejectKey(level logging.Level, kind listKind, parts []any, reason string) {
	c.log.Log(level, logging.En("[Core] %s key %v rejected: %s", kind, parts, reason).
		Zh("[Core] %s 键 %v 被拒绝: %s", kind, parts, reason))
}

// UserList returns a copy of the user keys.
func (c *Core) UserList() [][]string { return c.listSnapshot(userList) }

// GroupList returns a copy of the group keys.
func (c *Core) GroupList() [][]string { return c.listSnapshot(groupList) }

// GuildList returns a copy of the guild keys.
func (c *Core) GuildList() [][]string { return c.listSnapshot(guildList) }

// ChannelList returns a copy of the channel keys.
func (c *Core) ChannelList() [][]string { return c.listSnapshot(channelList) }

func (c *Core) listSnapshot(kind listKind) [][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lists[kind].snapshot()
}

// match is one (client, key) hit of a lookup.
type match struct {
	cl  *client.Client
	key []string
}

// find resolves id of kind. With an adapter, the id must be in that adapter's
// roster or the global list; without, every listed adapter holding id matches.
func (c *Core) find(kind listKind, id string, adapter []string, inRoster func(*client.Client) (string, bool)) []match {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idOf := func(k []string) string { return k[len(k)-1] }
	keys := lo.Filter(c.lists[kind].keys, func(k []string, _ int) bool { return idOf(k) == id })

	if len(adapter) > 0 && adapter[0] != "" {
		cl, ok := c.clients[adapter[0]]
		if !ok {
			return nil
		}
		if key, ok := lo.Find(keys, func(k []string) bool { return k[0] == cl.Name() }); ok {
			return []match{{cl: cl, key: key}}
		}
		if guild, ok := inRoster(cl); ok {
			key := []string{cl.Name(), id}
			if kind == channelList {
				key = []string{cl.Name(), guild, id}
			}
			return []match{{cl: cl, key: key}}
		}
		return nil
	}

	var out []match
	for _, k := range keys {
		if cl, ok := c.clients[k[0]]; ok {
			out = append(out, match{cl: cl, key: k})
		}
	}
	return out
}

func (c *Core) notFound(kind listKind, id string, adapter []string) {
	scope := "any adapter"
	if len(adapter) > 0 && adapter[0] != "" {
		scope = adapter[0]
	}
	c.log.Log(logging.Warn, logging.En("[Core] ⚠️ %s %s not found in %s", kind, id, scope).
		Zh("[Core] ⚠️ 在 %s 中未找到%s %s", scope, kind, id))
}

// PickUser returns a handle per adapter that knows user id.
func (c *Core) PickUser(id string, adapter ...string) []*bus.User {
	hits := c.find(userList, id, adapter, func(cl *client.Client) (string, bool) { return "", cl.HasUser(id) })
	if len(hits) == 0 {
		c.notFound(userList, id, adapter)
		return nil
	}
	return lo.Map(hits, func(h match, _ int) *bus.User { return h.cl.PickUser(id) })
}

// PickGroup returns a handle per adapter that knows group id.
func (c *Core) PickGroup(id string, adapter ...string) []*bus.Group {
	hits := c.find(groupList, id, adapter, func(cl *client.Client) (string, bool) { return "", cl.HasGroup(id) })
	if len(hits) == 0 {
		c.notFound(groupList, id, adapter)
		return nil
	}
	return lo.Map(hits, func(h match, _ int) *bus.Group { return h.cl.PickGroup(id) })
}

// PickGuild returns a handle per adapter that knows guild id.
func (c *Core) PickGuild(id string, adapter ...string) []*bus.Guild {
	hits := c.find(guildList, id, adapter, func(cl *client.Client) (string, bool) { return "", cl.HasGuild(id) })
	if len(hits) == 0 {
		c.notFound(guildList, id, adapter)
		return nil
	}
	return lo.Map(hits, func(h match, _ int) *bus.Guild { return h.cl.PickGuild(id) })
}

// PickChannel returns a handle per adapter that knows channel id.
func (c *Core) PickChannel(id string, adapter ...string) []*bus.Channel {
	hits := c.find(channelList, id, adapter, func(cl *client.Client) (string, bool) { return cl.ChannelGuild(id) })
	var out []*bus.Channel
	for _, h := range hits {
		ch, err := h.cl.PickChannel(id, h.key[1])
		if err == nil && ch != nil {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		c.notFound(channelList, id, adapter)
		return nil
	}
	return out
}
