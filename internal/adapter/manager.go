package adapter

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/core"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// Dealer is the core surface the manager drives.
type Dealer interface {
	Host
	Deal(ctx context.Context, msg *bus.Message) error
	BindLoops(cancel context.CancelFunc, done <-chan struct{})
}

// Options sizes the dispatch queue.
type Options struct {
	Workers   int
	QueueSize int
}

// Manager runs every registered adapter loop and the worker pool that
// dispatches their messages.
type Manager struct {
	core Dealer
	opts Options
	log  logging.Logger

	mu      sync.RWMutex
	runners map[string]*Runner
	order   []string
	cancel  context.CancelFunc
	queue   *bus.Queue
}

// NewManager creates a manager dispatching into core.
func NewManager(core Dealer, opts Options, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		core:    core,
		opts:    opts,
		log:     log,
		runners: make(map[string]*Runner),
	}
}

// Register adds a runner. A runner with the same name replaces the earlier one.
func (m *Manager) Register(r *Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runners[r.Name()]; !ok {
		m.order = append(m.order, r.Name())
	}
	m.runners[r.Name()] = r
}

// Get returns a runner by name.
func (m *Manager) Get(name string) *Runner {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runners[name]
}

// Names returns the registered adapter names in registration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Run starts every loop and the workers, and blocks until all loops have
// returned and every queued message has been handled.
func (m *Manager) Run(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := bus.NewQueue(m.opts.QueueSize, m.opts.Workers, m.handle)
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.queue = q
	runners := make([]*Runner, 0, len(m.order))
	for _, name := range m.order {
		runners = append(runners, m.runners[name])
	}
	m.mu.Unlock()

	m.core.BindLoops(cancel, done)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		q.Run(ctx)
	}()

	g, gctx := errgroup.WithContext(loopCtx)
	for _, r := range runners {
		r := r
		g.Go(func() error { return r.Run(gctx, q) })
	}
	err := g.Wait()

	q.Close()
	<-drained
	close(done)

	m.log.Log(logging.Info, logging.En("[Adapter] Receive loops finished, %d messages handled", q.Processed()).
		Zh("[Adapter] 接收循环已结束, 共处理 %d 条消息", q.Processed()))
	return err
}

func (m *Manager) handle(ctx context.Context, msg *bus.Message) {
	err := m.core.Deal(ctx, msg)
	if err == nil || errors.Is(err, core.ErrShutdown) {
		return
	}
	m.log.Log(logging.Debug, logging.En("[Adapter] message %s from %s ended with: %v", msg.ID, msg.Adapter, err))
}

// Stop cancels every loop. Run returns once they and the workers are done.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	m.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Pending returns the number of queued messages waiting for a worker.
func (m *Manager) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.queue == nil {
		return 0
	}
	return m.queue.Pending()
}

// Status returns whether each adapter loop is running.
func (m *Manager) Status() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := make(map[string]bool, len(m.runners))
	for name, r := range m.runners {
		status[name] = r.IsRunning()
	}
	return status
}
