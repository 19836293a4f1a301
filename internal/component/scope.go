package component

import (
	"github.com/samber/lo"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/config"
)

// Scope limits a translator or plugin to some adapters, and a plugin
// additionally to some translators. A nil Scope allows everything.
type Scope struct {
	Adapters    []string
	Translators []string
}

// ScopeOf returns the scope configured for a component, or nil when the
// component does not use the tree.
func ScopeOf(cfg config.Component) *Scope {
	if !cfg.UseTree {
		return nil
	}
	return &Scope{Adapters: cfg.Adapters, Translators: cfg.Translators}
}

// AllowsTranslator applies the translator-stage rule.
func (s *Scope) AllowsTranslator(msg *bus.Message) bool {
	if s == nil {
		return true
	}
	return lo.Contains(s.Adapters, msg.Adapter)
}

// AllowsPlugin applies the plugin-stage rule. The translator set only counts
// once a translator has claimed the message.
func (s *Scope) AllowsPlugin(msg *bus.Message) bool {
	if s == nil {
		return true
	}
	if !lo.Contains(s.Adapters, msg.Adapter) {
		return false
	}
	if t := msg.Translator(); t != "" {
		return lo.Contains(s.Translators, t)
	}
	return true
}
