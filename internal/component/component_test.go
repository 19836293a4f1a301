package component

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/config"
)

func msgFrom(t *testing.T, adapter, text, translator string) *bus.Message {
	t.Helper()
	msg, err := bus.NewShell(adapter, nil, nil).Fill(bus.Fields{Text: text})
	require.NoError(t, err)
	if translator != "" {
		msg.Claim(translator)
	}
	return msg
}

func TestScopeOf(t *testing.T) {
	assert.Nil(t, ScopeOf(config.Component{Name: "p", Adapters: []string{"A"}}))

	s := ScopeOf(config.Component{Name: "p", UseTree: true, Adapters: []string{"A"}, Translators: []string{"T"}})
	require.NotNil(t, s)
	assert.Equal(t, []string{"A"}, s.Adapters)
}

func TestScope_NilAllowsAll(t *testing.T) {
	var s *Scope
	msg := msgFrom(t, "B", "", "T")
	assert.True(t, s.AllowsTranslator(msg))
	assert.True(t, s.AllowsPlugin(msg))
}

func TestScope_TranslatorRule(t *testing.T) {
	s := &Scope{Adapters: []string{"A"}}
	assert.True(t, s.AllowsTranslator(msgFrom(t, "A", "", "")))
	assert.False(t, s.AllowsTranslator(msgFrom(t, "B", "", "")))
}

func TestScope_PluginRule(t *testing.T) {
	s := &Scope{Adapters: []string{"A"}, Translators: []string{"T"}}

	assert.True(t, s.AllowsPlugin(msgFrom(t, "A", "", "")), "no translator: adapter set only")
	assert.True(t, s.AllowsPlugin(msgFrom(t, "A", "", "T")))
	assert.False(t, s.AllowsPlugin(msgFrom(t, "A", "", "U")))
	assert.False(t, s.AllowsPlugin(msgFrom(t, "B", "", "T")))
	assert.False(t, s.AllowsPlugin(msgFrom(t, "B", "", "")))
}

func TestPluginBase_FirstRuleWins(t *testing.T) {
	p, err := NewPluginBase("plugin_x", 10,
		Rule{Pattern: `/ping`, Handler: "ping"},
		Rule{Pattern: `/p`, Handler: "short"},
		Rule{Pattern: `.*`, Handler: "any"},
	)
	require.NoError(t, err)
	assert.Equal(t, "plugin_x", p.Name())
	assert.Equal(t, 10, p.Priority())

	name, ok := p.Matching(msgFrom(t, "A", "/ping now", ""))
	assert.True(t, ok)
	assert.Equal(t, "ping", name)

	name, _ = p.Matching(msgFrom(t, "A", "/pong", ""))
	assert.Equal(t, "short", name)

	name, _ = p.Matching(msgFrom(t, "A", "hello", ""))
	assert.Equal(t, "any", name)
}

func TestPluginBase_AnchoredAtStart(t *testing.T) {
	p, err := NewPluginBase("p", 0, Rule{Pattern: `/ping`, Handler: "ping"})
	require.NoError(t, err)

	_, ok := p.Matching(msgFrom(t, "A", "say /ping", ""))
	assert.False(t, ok)
}

func TestPluginBase_AlternationStaysAnchored(t *testing.T) {
	p, err := NewPluginBase("p", 0, Rule{Pattern: `a|b`, Handler: "ab"})
	require.NoError(t, err)

	_, ok := p.Matching(msgFrom(t, "A", "xb", ""))
	assert.False(t, ok)
	_, ok = p.Matching(msgFrom(t, "A", "b", ""))
	assert.True(t, ok)
}

func TestPluginBase_BadPattern(t *testing.T) {
	_, err := NewPluginBase("p", 0, Rule{Pattern: `(`, Handler: "x"})
	assert.Error(t, err)
}

func TestPluginBase_Handlers(t *testing.T) {
	p, err := NewPluginBase("p", 0, Rule{Pattern: `x`, Handler: "x"})
	require.NoError(t, err)

	_, ok := p.Handler("x")
	assert.False(t, ok)

	called := false
	p.Handle("x", func(context.Context, *bus.Message) error {
		called = true
		return nil
	})
	fn, ok := p.Handler("x")
	require.True(t, ok)
	require.NoError(t, fn(context.Background(), nil))
	assert.True(t, called)
}

func TestPluginBase_Attach(t *testing.T) {
	p, err := NewPluginBase("p", 0)
	require.NoError(t, err)
	cfg := config.Component{Name: "p", Options: map[string]any{"k": "v"}}
	require.NoError(t, p.Attach(nil, cfg))
	assert.Equal(t, "v", p.Config.String("k", ""))
}
