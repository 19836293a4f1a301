package builtin

import (
	"context"
	"strings"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/config"
)

// Command claims messages that start with a command prefix, so plugins scoped
// to it only see commands.
type Command struct {
	prefix string
}

// NewCommand creates the translator with the default "/" prefix.
func NewCommand() *Command { return &Command{prefix: "/"} }

func (c *Command) Name() string  { return CommandTranslator }
func (c *Command) Priority() int { return 10 }

// Attach reads the prefix option.
func (c *Command) Attach(_ component.Host, cfg config.Component) error {
	c.prefix = cfg.String("prefix", c.prefix)
	return nil
}

// Match is true for text longer than the bare prefix.
func (c *Command) Match(msg *bus.Message) bool {
	return len(msg.Text) > len(c.prefix) && strings.HasPrefix(msg.Text, c.prefix)
}

// Deal claims the message.
func (c *Command) Deal(_ context.Context, msg *bus.Message) error {
	msg.Claim(c.Name())
	return nil
}

var _ component.Translator = (*Command)(nil)
