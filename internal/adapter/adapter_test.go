package adapter

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/client"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/config"
	"github.com/dayuer/justrobot-go/internal/core"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// scripted replays events from a channel. A closed channel reports io.EOF.
type scripted struct {
	name   string
	events chan bus.RawEvent

	mu   sync.Mutex
	errs []error
}

func newScripted(name string, evs ...bus.RawEvent) *scripted {
	s := &scripted{name: name, events: make(chan bus.RawEvent, len(evs)+8)}
	for _, ev := range evs {
		s.events <- ev
	}
	return s
}

func (s *scripted) Name() string    { return s.name }
func (s *scripted) ID() string      { return "bot-" + s.name }
func (s *scripted) Version() string { return "test" }

func (s *scripted) Attach(component.AdapterHost, config.Component) error { return nil }

func (s *scripted) Send(context.Context, bus.Target, *bus.Reply) error { return nil }
func (s *scripted) IsFriend(id string) bool                           { return id == "friend" }

func (s *scripted) Receive(ctx context.Context) (bus.RawEvent, error) {
	s.mu.Lock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return bus.RawEvent{}, err
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return bus.RawEvent{}, ctx.Err()
	case ev, ok := <-s.events:
		if !ok {
			return bus.RawEvent{}, io.EOF
		}
		return ev, nil
	}
}

type recordingDealer struct {
	mu      sync.Mutex
	dealt   []*bus.Message
	recv    int
	masters map[string]bool
}

func (d *recordingDealer) CountRecv(context.Context) {
	d.mu.Lock()
	d.recv++
	d.mu.Unlock()
}

func (d *recordingDealer) IsMaster(_, userID string) bool { return d.masters[userID] }

func (d *recordingDealer) Deal(_ context.Context, msg *bus.Message) error {
	d.mu.Lock()
	d.dealt = append(d.dealt, msg)
	d.mu.Unlock()
	return nil
}

func (d *recordingDealer) BindLoops(context.CancelFunc, <-chan struct{}) {}

func (d *recordingDealer) texts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.dealt))
	for _, m := range d.dealt {
		out = append(out, m.Text)
	}
	return out
}

func newRunner(a *scripted, host Host, log logging.Logger) *Runner {
	cl := client.New(client.Info{Name: a.Name(), ID: a.ID(), Version: a.Version()}, a, log)
	r := NewRunner(a, cl, host, log)
	r.RetryDelay = time.Millisecond
	return r
}

func TestNormalize_Scenes(t *testing.T) {
	d := &recordingDealer{masters: map[string]bool{"boss": true}}
	r := newRunner(newScripted("fake"), d, nil)

	tests := []struct {
		name    string
		ev      bus.RawEvent
		group   bool
		guild   bool
		private bool
	}{
		{"private", bus.RawEvent{UserID: "u1", Text: "hi"}, false, false, true},
		{"group", bus.RawEvent{UserID: "u1", GroupID: "g1"}, true, false, false},
		{"channel", bus.RawEvent{UserID: "u1", ChannelID: "c1", GuildID: "s1"}, false, true, false},
		{"guild only", bus.RawEvent{UserID: "u1", GuildID: "s1"}, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := r.Normalize(tt.ev)
			require.NoError(t, err)
			assert.Equal(t, "fake", msg.Adapter)
			assert.Equal(t, tt.group, msg.IsGroup())
			assert.Equal(t, tt.guild, msg.IsGuild())
			assert.Equal(t, tt.private, msg.IsPrivate())
			assert.Equal(t, "u1", msg.UserID())
			assert.NotEmpty(t, msg.ID)
		})
	}
}

func TestNormalize_ChannelDerivesGuild(t *testing.T) {
	r := newRunner(newScripted("fake"), &recordingDealer{}, nil)

	msg, err := r.Normalize(bus.RawEvent{UserID: "u1", ChannelID: "c1", GuildID: "s1"})
	require.NoError(t, err)
	require.NotNil(t, msg.Guild)
	assert.Equal(t, "s1", msg.Guild.ID)
	assert.Equal(t, bus.Target{Kind: bus.KindChannel, ID: "c1", Guild: "s1"}, msg.Target())
}

func TestNormalize_Flags(t *testing.T) {
	d := &recordingDealer{masters: map[string]bool{"boss": true}}
	r := newRunner(newScripted("fake"), d, nil)

	boss, err := r.Normalize(bus.RawEvent{UserID: "boss"})
	require.NoError(t, err)
	assert.True(t, boss.IsMaster)
	assert.False(t, boss.IsFriend)

	friend, err := r.Normalize(bus.RawEvent{UserID: "friend"})
	require.NoError(t, err)
	assert.False(t, friend.IsMaster)
	assert.True(t, friend.IsFriend)
}

func TestNormalize_Rejects(t *testing.T) {
	r := newRunner(newScripted("fake"), &recordingDealer{}, nil)

	_, err := r.Normalize(bus.RawEvent{UserID: "u1", ChannelID: "c1"})
	assert.ErrorIs(t, err, bus.ErrChannelGuild)

	_, err = r.Normalize(bus.RawEvent{UserID: "u1", GroupID: "g1", GuildID: "s1"})
	assert.ErrorIs(t, err, bus.ErrBothScenes)
}

func TestManager_DrainsOnEOF(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := newScripted("fake",
		bus.RawEvent{Sequence: 1, UserID: "u1", Text: "one"},
		bus.RawEvent{Sequence: 2, UserID: "u1", ChannelID: "c1"}, // no guild, dropped
		bus.RawEvent{Sequence: 3, UserID: "u1", Text: "three"},
	)
	close(a.events)

	rec := logging.NewRecorder()
	d := &recordingDealer{}
	m := NewManager(d, Options{Workers: 1, QueueSize: 4}, rec)
	m.Register(newRunner(a, d, rec))

	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, []string{"one", "three"}, d.texts())
	assert.Equal(t, 3, d.recv)
	assert.Equal(t, 1, rec.Count(logging.Warn, "dropped event 2"))
	assert.Equal(t, 1, rec.Count(logging.Info, "closed its stream"))
	assert.Equal(t, map[string]bool{"fake": false}, m.Status())
}

func TestManager_RetriesAfterReceiveError(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := newScripted("fake", bus.RawEvent{UserID: "u1", Text: "after"})
	a.errs = []error{errors.New("socket reset\nstack trace")}
	close(a.events)

	rec := logging.NewRecorder()
	d := &recordingDealer{}
	m := NewManager(d, Options{}, rec)
	m.Register(newRunner(a, d, rec))

	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, []string{"after"}, d.texts())
	assert.Equal(t, 1, rec.Count(logging.Error, "receive error: socket reset"))
	assert.Zero(t, rec.Count(logging.Error, "stack trace"))
}

func TestManager_StopCancelsLoops(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := newScripted("fake")
	b := newScripted("other")
	d := &recordingDealer{}
	m := NewManager(d, Options{Workers: 2}, nil)
	m.Register(newRunner(a, d, nil))
	m.Register(newRunner(b, d, nil))
	assert.Equal(t, []string{"fake", "other"}, m.Names())

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		s := m.Status()
		return s["fake"] && s["other"]
	}, time.Second, 5*time.Millisecond)

	m.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestManager_MasterShutdownThroughCore(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := logging.NewRecorder()
	c := core.New(core.Options{
		Name:   "Paimon",
		Master: map[string][]string{"fake": {"boss"}},
		Grace:  time.Second,
		Log:    rec,
		Exit:   func(int) { t.Error("unexpected forced exit") },
	})

	a := newScripted("fake",
		bus.RawEvent{UserID: "guest", Text: "/shutdown"},
		bus.RawEvent{UserID: "boss", Text: "/shutdown"},
	)
	r := newRunner(a, c, rec)
	c.Register(r.client)

	m := NewManager(c, Options{Workers: 1, QueueSize: 1}, rec)
	m.Register(r)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(context.Background()) }()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after a master shutdown")
	}
	select {
	case <-c.ShutdownSettled():
	case <-time.After(time.Second):
		t.Fatal("shutdown did not settle")
	}

	assert.Equal(t, int64(2), c.Received())
	assert.Equal(t, 1, rec.Count(logging.Warn, "not a master, shutdown ignored"))
	assert.Equal(t, 1, rec.Count(logging.Warn, "Shutdown requested by master boss"))
	assert.Equal(t, 1, rec.Count(logging.Info, "All adapters stopped"))
}
