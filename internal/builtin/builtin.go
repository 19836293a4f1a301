// Package builtin holds the reference components shipped with the bot: a
// terminal adapter, a websocket bridge adapter, a command translator and the
// ping and status plugins.
package builtin

import (
	"os"

	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/loader"
)

// Catalog keys. Each doubles as the component name and its module directory.
const (
	StdinAdapter      = "adapter_stdin"
	WSAdapter         = "adapter_ws"
	CommandTranslator = "translator_command"
	PingPlugin        = "plugin_ping"
	StatusPlugin      = "plugin_status"
)

// Register adds every bundled constructor to c.
func Register(c *loader.Catalog) {
	c.Register(StdinAdapter, func() (any, error) { return NewStdin(os.Stdin, os.Stdout), nil })
	c.Register(WSAdapter, func() (any, error) { return NewWS(), nil })
	c.Register(CommandTranslator, func() (any, error) { return NewCommand(), nil })
	c.Register(PingPlugin, func() (any, error) { return NewPing() })
	c.Register(StatusPlugin, func() (any, error) { return NewStatus() })
}

// Manifests returns the default module manifests per family.
func Manifests() map[component.Family][]loader.Manifest {
	return map[component.Family][]loader.Manifest{
		component.Adapters: {
			{Name: StdinAdapter, Version: "1.0", Description: "terminal input and output", Components: []string{StdinAdapter}},
			{Name: WSAdapter, Version: "1.0", Description: "websocket bridge client", Components: []string{WSAdapter}},
		},
		component.Translators: {
			{Name: CommandTranslator, Version: "1.0", Description: "claims prefixed commands", Components: []string{CommandTranslator}},
		},
		component.Plugins: {
			{Name: PingPlugin, Version: "1.0", Description: "replies pong to /ping", Components: []string{PingPlugin}},
			{Name: StatusPlugin, Version: "1.0", Description: "reports counters on /status", Components: []string{StatusPlugin}},
		},
	}
}
