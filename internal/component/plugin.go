package component

import (
	"fmt"
	"regexp"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/config"
)

// Rule maps a text pattern to a handler name.
type Rule struct {
	Pattern string
	Handler string
}

type compiledRule struct {
	re      *regexp.Regexp
	handler string
}

// PluginBase carries the name, priority, rules and handlers of a plugin.
// Embed it and override Attach when the plugin needs its own setup.
type PluginBase struct {
	Host   Host
	Config config.Component

	name     string
	priority int
	rules    []compiledRule
	handlers map[string]HandlerFunc
}

// NewPluginBase compiles rules in declared order. Patterns match at the start
// of the message text.
func NewPluginBase(name string, priority int, rules ...Rule) (*PluginBase, error) {
	b := &PluginBase{name: name, priority: priority, handlers: make(map[string]HandlerFunc)}
	for _, r := range rules {
		re, err := regexp.Compile(`^(?:` + r.Pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: rule %q: %w", name, r.Pattern, err)
		}
		b.rules = append(b.rules, compiledRule{re: re, handler: r.Handler})
	}
	return b, nil
}

func (b *PluginBase) Name() string  { return b.name }
func (b *PluginBase) Priority() int { return b.priority }

// Attach stores the host and config.
func (b *PluginBase) Attach(host Host, cfg config.Component) error {
	b.Host = host
	b.Config = cfg
	return nil
}

// Handle registers fn under name.
func (b *PluginBase) Handle(name string, fn HandlerFunc) {
	b.handlers[name] = fn
}

// Matching scans the rules in order and returns the first match.
func (b *PluginBase) Matching(msg *bus.Message) (string, bool) {
	for _, r := range b.rules {
		if r.re.MatchString(msg.Text) {
			return r.handler, true
		}
	}
	return "", false
}

// Handler resolves a handler by name.
func (b *PluginBase) Handler(name string) (HandlerFunc, bool) {
	fn, ok := b.handlers[name]
	return fn, ok
}
