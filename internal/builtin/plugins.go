package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/component"
)

// Ping answers /ping.
type Ping struct {
	*component.PluginBase
}

// NewPing creates the ping plugin.
func NewPing() (*Ping, error) {
	base, err := component.NewPluginBase(PingPlugin, 50, component.Rule{Pattern: `/ping(?:\s|$)`, Handler: "pong"})
	if err != nil {
		return nil, err
	}
	p := &Ping{PluginBase: base}
	p.Handle("pong", func(ctx context.Context, msg *bus.Message) error {
		return msg.Respond(ctx, bus.Intent{Text: "pong", Quote: true})
	})
	return p, nil
}

// Status reports the core counters on /status.
type Status struct {
	*component.PluginBase
}

// NewStatus creates the status plugin.
func NewStatus() (*Status, error) {
	base, err := component.NewPluginBase(StatusPlugin, 50, component.Rule{Pattern: `/status(?:\s|$)`, Handler: "report"})
	if err != nil {
		return nil, err
	}
	p := &Status{PluginBase: base}
	p.Handle("report", p.report)
	return p, nil
}

func (p *Status) report(ctx context.Context, msg *bus.Message) error {
	if p.Host == nil {
		return fmt.Errorf("%s is not attached", StatusPlugin)
	}
	return msg.Respond(ctx, bus.Intent{Text: FormatSnapshot(p.Host.Snapshot(), p.Host.Lang())})
}

// FormatSnapshot renders s for a chat reply in lang ("zh" or "en").
func FormatSnapshot(s component.Snapshot, lang string) string {
	var b strings.Builder
	if lang == "zh" {
		fmt.Fprintf(&b, "%s 运行状态\n", s.Name)
		fmt.Fprintf(&b, "适配器 %d, 翻译器 %d, 插件 %d\n", len(s.Adapters), len(s.Translators), len(s.Plugins))
		fmt.Fprintf(&b, "收到 %d, 发送 %d\n", s.Received, s.Sent)
		fmt.Fprintf(&b, "用户 %d, 群组 %d, 频道 %d, 服务器 %d", s.Users, s.Groups, s.Channels, s.Guilds)
		return b.String()
	}
	fmt.Fprintf(&b, "%s status\n", s.Name)
	fmt.Fprintf(&b, "adapters %d, translators %d, plugins %d\n", len(s.Adapters), len(s.Translators), len(s.Plugins))
	fmt.Fprintf(&b, "received %d, sent %d\n", s.Received, s.Sent)
	fmt.Fprintf(&b, "users %d, groups %d, channels %d, guilds %d", s.Users, s.Groups, s.Channels, s.Guilds)
	return b.String()
}

var (
	_ component.Plugin = (*Ping)(nil)
	_ component.Plugin = (*Status)(nil)
)
