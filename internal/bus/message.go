// Package bus holds the message envelope that flows through the routing
// pipeline, the entity handles it references, the reply builder and the
// work queue feeding dispatch workers.
package bus

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dayuer/justrobot-go/internal/logging"
)

// ErrBothScenes is returned when an event names both a group and a guild.
var ErrBothScenes = errors.New("message cannot belong to both a group and a guild")

// ErrFatal marks an error that must stop the process instead of being
// isolated by the dispatcher. Wrap it with fmt.Errorf("...: %w", ErrFatal).
var ErrFatal = errors.New("fatal")

// RawEvent is the minimum an adapter reports for one inbound event.
type RawEvent struct {
	Sequence  int64     `json:"sequence"`
	Notice    string    `json:"notice"`
	Text      string    `json:"text"`
	Files     [][]byte  `json:"files,omitempty"`
	UserID    string    `json:"userId"`
	GroupID   string    `json:"groupId,omitempty"`
	ChannelID string    `json:"channelId,omitempty"`
	GuildID   string    `json:"guildId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Fields are the per-event parts of a Message.
type Fields struct {
	Sequence  int64
	Notice    string
	Text      string
	Files     [][]byte
	User      *User
	Group     *Group
	Channel   *Channel
	Guild     *Guild
	IsFriend  bool
	IsMaster  bool
	Timestamp time.Time
}

// Shell carries the adapter-level parts of every message from one adapter.
type Shell struct {
	sender *Sender
}

// NewShell creates the per-adapter message shell.
func NewShell(adapter string, send SendFunc, log logging.Logger) *Shell {
	return &Shell{sender: NewSender(adapter, send, log)}
}

// Adapter returns the adapter name stamped on every filled message.
func (s *Shell) Adapter() string { return s.sender.Adapter() }

// Sender returns the send capability shared by the shell's messages.
func (s *Shell) Sender() *Sender { return s.sender }

// Fill builds one message from the shell. A channel without a guild handle
// gets one derived from the channel.
func (s *Shell) Fill(f Fields) (*Message, error) {
	if f.Channel != nil && f.Guild == nil {
		f.Guild = NewGuild(s.sender, f.Channel.Guild)
	}
	if f.Group != nil && f.Guild != nil {
		return nil, ErrBothScenes
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	return &Message{
		ID:        uuid.NewString(),
		Adapter:   s.sender.Adapter(),
		Sequence:  f.Sequence,
		Notice:    f.Notice,
		Text:      f.Text,
		Files:     f.Files,
		User:      f.User,
		Group:     f.Group,
		Channel:   f.Channel,
		Guild:     f.Guild,
		IsFriend:  f.IsFriend,
		IsMaster:  f.IsMaster,
		Timestamp: f.Timestamp,
		sender:    s.sender,
	}, nil
}

// Message is the canonical envelope routed through translators and plugins.
type Message struct {
	ID        string
	Adapter   string
	Sequence  int64
	Notice    string
	Text      string
	Files     [][]byte
	User      *User
	Group     *Group
	Channel   *Channel
	Guild     *Guild
	IsFriend  bool
	IsMaster  bool
	Timestamp time.Time

	translator string
	sender     *Sender
}

// Translator returns the name of the translator that claimed the message.
func (m *Message) Translator() string { return m.translator }

// Claim annotates the message with a translator name. Only the first claim sticks.
func (m *Message) Claim(translator string) bool {
	if m.translator != "" || translator == "" {
		return false
	}
	m.translator = translator
	return true
}

// IsGroup reports a group-chat message.
func (m *Message) IsGroup() bool { return m.Group != nil && m.Guild == nil }

// IsGuild reports a guild message.
func (m *Message) IsGuild() bool { return m.Group == nil && m.Guild != nil }

// IsPrivate reports a direct message.
func (m *Message) IsPrivate() bool { return m.Group == nil && m.Guild == nil }

// UserID returns the sender id, or "" when the adapter did not report one.
func (m *Message) UserID() string {
	if m.User == nil {
		return ""
	}
	return m.User.ID
}

// Target is where a reply to this message goes.
func (m *Message) Target() Target {
	switch {
	case m.IsGroup():
		return Target{Kind: KindGroup, ID: m.Group.ID}
	case m.IsGuild() && m.Channel != nil:
		return Target{Kind: KindChannel, ID: m.Channel.ID, Guild: m.Channel.Guild}
	case m.IsGuild():
		return Target{Kind: KindGuild, ID: m.Guild.ID}
	default:
		return Target{Kind: KindUser, ID: m.UserID()}
	}
}

// Respond sends a reply back to where the message came from.
func (m *Message) Respond(ctx context.Context, in Intent) error {
	return m.sender.Deliver(ctx, m.Target(), in, m.Sequence)
}
