// Package adapter runs the receive loops of loaded adapters and feeds their
// events into the dispatch queue.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/client"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// DefaultRetryDelay is the pause after a failed Receive before trying again.
const DefaultRetryDelay = time.Second

// Host is what a Runner needs from the core.
type Host interface {
	CountRecv(ctx context.Context)
	IsMaster(adapter, userID string) bool
}

// Runner owns one adapter's receive loop.
type Runner struct {
	adapter component.Adapter
	client  *client.Client
	host    Host
	log     logging.Logger

	// RetryDelay overrides DefaultRetryDelay when set.
	RetryDelay time.Duration

	running atomic.Bool
}

// NewRunner creates a runner for a loaded adapter and its client.
func NewRunner(a component.Adapter, cl *client.Client, host Host, log logging.Logger) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{adapter: a, client: cl, host: host, log: log, RetryDelay: DefaultRetryDelay}
}

// Name returns the adapter name.
func (r *Runner) Name() string { return r.adapter.Name() }

// IsRunning reports whether the loop is active.
func (r *Runner) IsRunning() bool { return r.running.Load() }

// Run receives events until ctx is cancelled or the adapter reports io.EOF,
// submitting each normalized message to q.
func (r *Runner) Run(ctx context.Context, q *bus.Queue) error {
	r.running.Store(true)
	defer r.running.Store(false)

	name := r.adapter.Name()
	r.log.Log(logging.Info, logging.En("[Adapter] Starting %s...", name).Zh("[Adapter] 正在启动 %s...", name))

	for {
		if ctx.Err() != nil {
			return nil
		}
		ev, err := r.adapter.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.log.Log(logging.Info, logging.En("[Adapter] %s closed its stream", name).Zh("[Adapter] %s 的消息流已关闭", name))
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			r.log.Log(logging.Error, logging.En("[Adapter] %s receive error: %s", name, logging.FirstLine(err)).
				Zh("[Adapter] %s 接收消息出错: %s", name, logging.FirstLine(err)))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.RetryDelay):
			}
			continue
		}

		r.client.CountRecv()
		r.host.CountRecv(ctx)

		msg, err := r.Normalize(ev)
		if err != nil {
			r.log.Log(logging.Warn, logging.En("[Adapter] %s dropped event %d: %v", name, ev.Sequence, err).
				Zh("[Adapter] %s 丢弃事件 %d: %v", name, ev.Sequence, err))
			continue
		}
		if err := q.Submit(ctx, msg); err != nil {
			if ctx.Err() != nil || errors.Is(err, bus.ErrQueueClosed) {
				return nil
			}
			return fmt.Errorf("submit from %s: %w", name, err)
		}
	}
}

// Normalize turns a raw event into a message bound to the adapter's client.
func (r *Runner) Normalize(ev bus.RawEvent) (*bus.Message, error) {
	f := bus.Fields{
		Sequence:  ev.Sequence,
		Notice:    ev.Notice,
		Text:      ev.Text,
		Files:     ev.Files,
		Timestamp: ev.Timestamp,
	}
	if ev.UserID != "" {
		f.User = r.client.PickUser(ev.UserID)
		f.IsFriend = r.client.IsFriend(ev.UserID)
		f.IsMaster = r.host.IsMaster(r.client.Name(), ev.UserID)
	}
	if ev.GroupID != "" {
		f.Group = r.client.PickGroup(ev.GroupID)
	}
	switch {
	case ev.ChannelID != "":
		ch, err := r.client.PickChannel(ev.ChannelID, ev.GuildID)
		if err != nil {
			return nil, err
		}
		f.Channel = ch
	case ev.GuildID != "":
		f.Guild = r.client.PickGuild(ev.GuildID)
	}
	return r.client.Shell().Fill(f)
}
