package bus

import (
	"context"
	"errors"
)

// Kind names an entity kind.
type Kind string

const (
	KindUser    Kind = "user"
	KindGroup   Kind = "group"
	KindChannel Kind = "channel"
	KindGuild   Kind = "guild"
)

// ErrChannelGuild is returned when a channel is built with only one of its
// channel id and guild id.
var ErrChannelGuild = errors.New("channel requires both a channel id and a guild id")

// Target addresses an outbound reply to one entity of one adapter.
type Target struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id"`
	Guild string `json:"guild,omitempty"`
}

// User is an adapter-scoped user handle.
type User struct {
	ID      string
	Adapter string
	Name    string
	Info    map[string]any

	sender *Sender
}

// NewUser builds a user handle bound to s.
func NewUser(s *Sender, id string) *User {
	return &User{ID: id, Adapter: s.Adapter(), Name: id, sender: s}
}

// Send delivers a reply to the user directly.
func (u *User) Send(ctx context.Context, in Intent) error {
	return u.sender.Deliver(ctx, Target{Kind: KindUser, ID: u.ID}, in, 0)
}

// Group is an adapter-scoped group chat handle.
type Group struct {
	ID      string
	Adapter string
	Name    string
	Owner   string
	Admins  []string
	Info    map[string]any

	sender *Sender
}

// NewGroup builds a group handle bound to s.
func NewGroup(s *Sender, id string) *Group {
	return &Group{ID: id, Adapter: s.Adapter(), Name: id, sender: s}
}

// Send delivers a reply to the group.
func (g *Group) Send(ctx context.Context, in Intent) error {
	return g.sender.Deliver(ctx, Target{Kind: KindGroup, ID: g.ID}, in, 0)
}

// PickMember returns a user handle for a member of the group.
func (g *Group) PickMember(id string) *User {
	return NewUser(g.sender, id)
}

// IsAdmin reports whether id owns or administers the group.
func (g *Group) IsAdmin(id string) bool {
	if id != "" && id == g.Owner {
		return true
	}
	for _, a := range g.Admins {
		if a == id {
			return true
		}
	}
	return false
}

// Channel is a channel inside a guild.
type Channel struct {
	ID      string
	Guild   string
	Adapter string
	Name    string
	Info    map[string]any

	sender *Sender
}

// NewChannel builds a channel handle. Both ids empty yields (nil, nil);
// exactly one empty is ErrChannelGuild.
func NewChannel(s *Sender, id, guild string) (*Channel, error) {
	switch {
	case id == "" && guild == "":
		return nil, nil
	case id == "" || guild == "":
		return nil, ErrChannelGuild
	}
	return &Channel{ID: id, Guild: guild, Adapter: s.Adapter(), Name: id, sender: s}, nil
}

// Send delivers a reply to the channel.
func (c *Channel) Send(ctx context.Context, in Intent) error {
	return c.sender.Deliver(ctx, Target{Kind: KindChannel, ID: c.ID, Guild: c.Guild}, in, 0)
}

// PickMember returns a user handle for a member of the channel.
func (c *Channel) PickMember(id string) *User {
	return NewUser(c.sender, id)
}

// Guild is a server hosting channels.
type Guild struct {
	ID      string
	Adapter string
	Name    string
	Owner   string
	Info    map[string]any

	sender *Sender
}

// NewGuild builds a guild handle bound to s.
func NewGuild(s *Sender, id string) *Guild {
	return &Guild{ID: id, Adapter: s.Adapter(), Name: id, sender: s}
}

// Send delivers a reply to the guild's default surface.
func (g *Guild) Send(ctx context.Context, in Intent) error {
	return g.sender.Deliver(ctx, Target{Kind: KindGuild, ID: g.ID}, in, 0)
}

// PickChannel returns a handle for one of the guild's channels.
func (g *Guild) PickChannel(id string) (*Channel, error) {
	if id == "" {
		return nil, ErrChannelGuild
	}
	return NewChannel(g.sender, id, g.ID)
}

// PickMember returns a user handle for a member of the guild.
func (g *Guild) PickMember(id string) *User {
	return NewUser(g.sender, id)
}

// ChannelRef identifies a channel by guild and channel id, as reported by rosters.
type ChannelRef struct {
	Guild string `json:"guild"`
	ID    string `json:"id"`
}
