package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/config"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// Bridge frame types.
//
//	bridge → bot:  {"type": "event",  "event": {...RawEvent}}
//	bridge → bot:  {"type": "roster", "users": [...], "groups": [...], "guilds": [...], "channels": [...]}
//	bot → bridge:  {"type": "reply",  "target": {...}, "reply": {...}}
const (
	FrameEvent  = "event"
	FrameRoster = "roster"
	FrameReply  = "reply"
)

// Frame is one JSON message on the bridge connection.
type Frame struct {
	Type     string           `json:"type"`
	Event    *bus.RawEvent    `json:"event,omitempty"`
	Users    []string         `json:"users,omitempty"`
	Groups   []string         `json:"groups,omitempty"`
	Guilds   []string         `json:"guilds,omitempty"`
	Channels []bus.ChannelRef `json:"channels,omitempty"`
	Target   *bus.Target      `json:"target,omitempty"`
	Reply    *bus.Reply       `json:"reply,omitempty"`
}

var errNotConnected = errors.New("websocket bridge not connected")

// WS connects to a platform bridge over a websocket.
type WS struct {
	host    component.AdapterHost
	url     string
	id      string
	friends []string
	dialer  *websocket.Dialer

	mu   sync.Mutex // guards conn and serializes writes
	conn *websocket.Conn
}

// NewWS creates an unattached bridge adapter.
func NewWS() *WS {
	return &WS{id: "ws", dialer: websocket.DefaultDialer}
}

func (w *WS) Name() string    { return WSAdapter }
func (w *WS) ID() string      { return w.id }
func (w *WS) Version() string { return "1.0" }

// Attach reads the url, id and friends options. url is required.
func (w *WS) Attach(host component.AdapterHost, cfg config.Component) error {
	w.url = cfg.String("url", "")
	if w.url == "" {
		return fmt.Errorf("%s: option url is required", WSAdapter)
	}
	w.host = host
	w.id = cfg.String("id", w.id)
	w.friends = cfg.Strings("friends")
	return nil
}

// IsFriend reports whether id is in the friends option.
func (w *WS) IsFriend(id string) bool { return lo.Contains(w.friends, id) }

func (w *WS) connect(ctx context.Context) (*websocket.Conn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		return w.conn, nil
	}
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", w.url, err)
	}
	w.log(logging.Info, logging.En("[WS] 🔗 Connected to %s ✅", w.url).Zh("[WS] 🔗 已连接 %s ✅", w.url))
	w.conn = conn
	return conn, nil
}

func (w *WS) drop(conn *websocket.Conn) {
	w.mu.Lock()
	if w.conn == conn {
		w.conn = nil
	}
	w.mu.Unlock()
	_ = conn.Close()
}

// Receive returns the next event frame, applying roster frames on the way.
// A normal close from the bridge ends the loop with io.EOF.
func (w *WS) Receive(ctx context.Context) (bus.RawEvent, error) {
	conn, err := w.connect(ctx)
	if err != nil {
		return bus.RawEvent{}, err
	}
	stop := context.AfterFunc(ctx, func() { w.drop(conn) })
	defer stop()

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			w.drop(conn)
			if ctx.Err() != nil {
				return bus.RawEvent{}, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.log(logging.Info, logging.En("[WS] 🔌 Bridge closed the connection").Zh("[WS] 🔌 桥接端关闭了连接"))
				return bus.RawEvent{}, io.EOF
			}
			return bus.RawEvent{}, fmt.Errorf("read frame: %w", err)
		}

		switch f.Type {
		case FrameEvent:
			if f.Event != nil {
				return *f.Event, nil
			}
		case FrameRoster:
			w.applyRoster(f)
		default:
			w.log(logging.Debug, logging.En("[WS] ignoring frame type %q", f.Type))
		}
	}
}

func (w *WS) applyRoster(f Frame) {
	if w.host == nil {
		return
	}
	for _, id := range f.Users {
		w.host.SetUserList(id, WSAdapter)
	}
	for _, id := range f.Groups {
		w.host.SetGroupList(id, WSAdapter)
	}
	for _, id := range f.Guilds {
		w.host.SetGuildList(id, WSAdapter)
	}
	for _, ref := range f.Channels {
		w.host.SetChannelList(ref, WSAdapter)
	}
}

// Send writes a reply frame.
func (w *WS) Send(_ context.Context, to bus.Target, r *bus.Reply) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return errNotConnected
	}
	return w.conn.WriteJSON(Frame{Type: FrameReply, Target: &to, Reply: r})
}

func (w *WS) log(level logging.Level, msg logging.Text) {
	if w.host != nil {
		w.host.Logger().Log(level, msg)
	}
}

var _ component.Adapter = (*WS)(nil)
