// Package component defines the contracts implemented by adapters,
// translators and plugins, and the host surface they are attached to.
package component

import (
	"context"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/client"
	"github.com/dayuer/justrobot-go/internal/config"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// Family names a component family.
type Family string

const (
	Adapters    Family = "adapter"
	Translators Family = "translator"
	Plugins     Family = "plugin"
)

// Snapshot is a point-in-time view of the running core.
type Snapshot struct {
	Name        string   `json:"name"`
	Adapters    []string `json:"adapters"`
	Translators []string `json:"translators"`
	Plugins     []string `json:"plugins"`
	Received    int64    `json:"received"`
	Sent        int64    `json:"sent"`
	Users       int      `json:"users"`
	Groups      int      `json:"groups"`
	Channels    int      `json:"channels"`
	Guilds      int      `json:"guilds"`
}

// Host is the shared context every component is attached to.
type Host interface {
	Logger() logging.Logger
	Lang() string
	IsMaster(adapter, userID string) bool
	PickUser(id string, adapter ...string) []*bus.User
	PickGroup(id string, adapter ...string) []*bus.Group
	PickChannel(id string, adapter ...string) []*bus.Channel
	PickGuild(id string, adapter ...string) []*bus.Guild
	Snapshot() Snapshot
}

// AdapterHost is the host surface handed to adapters, which may report
// entities they learn about after start-up.
type AdapterHost interface {
	Host
	SetUserList(ref any, adapter ...string) bool
	SetGroupList(ref any, adapter ...string) bool
	SetChannelList(ref any, adapter ...string) bool
	SetGuildList(ref any, adapter ...string) bool
}

// Adapter bridges one chat platform to the pipeline.
// Rosters are optional: see the client.*Lister and client.*Updater interfaces.
type Adapter interface {
	client.Wire
	Name() string
	ID() string
	Version() string
	Attach(host AdapterHost, cfg config.Component) error

	// Receive blocks until the next event. io.EOF ends the adapter's loop.
	Receive(ctx context.Context) (bus.RawEvent, error)
}

// Translator annotates or pre-processes messages before plugins see them.
type Translator interface {
	Name() string
	Priority() int
	Attach(host Host, cfg config.Component) error
	Match(msg *bus.Message) bool
	Deal(ctx context.Context, msg *bus.Message) error
}

// HandlerFunc handles a message matched by a plugin rule.
type HandlerFunc func(ctx context.Context, msg *bus.Message) error

// Plugin implements user-facing commands selected by pattern rules.
type Plugin interface {
	Name() string
	Priority() int
	Attach(host Host, cfg config.Component) error

	// Matching returns the handler name of the first rule matching msg.
	Matching(msg *bus.Message) (string, bool)
	Handler(name string) (HandlerFunc, bool)
}
