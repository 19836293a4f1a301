package core

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// ErrShutdown is returned by Deal when the message triggered a shutdown.
var ErrShutdown = errors.New("shutdown requested")

// ShutdownCommands are the texts that request a shutdown when sent by a master.
var ShutdownCommands = []string{"/shutdown", "/关机"}

var osExit = os.Exit

type lifecycle struct {
	lmu      sync.Mutex
	cancel   context.CancelFunc
	loops    <-chan struct{}
	once     sync.Once
	stopping chan struct{}
	forced   chan struct{}
}

func (l *lifecycle) init() {
	l.stopping = make(chan struct{})
	l.forced = make(chan struct{})
}

// BindLoops hands Core the cancel func of the adapter loops and a channel
// closed once they have all returned.
func (c *Core) BindLoops(cancel context.CancelFunc, done <-chan struct{}) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	c.cancel = cancel
	c.loops = done
}

// Stopping is closed when a shutdown starts.
func (c *Core) Stopping() <-chan struct{} { return c.stopping }

func isShutdownCommand(text string) bool {
	for _, cmd := range ShutdownCommands {
		if text == cmd {
			return true
		}
	}
	return false
}

// Deal routes one message: shutdown interception first, then the translator
// stage and the plugin stage. A fatal error from a stage starts a shutdown.
func (c *Core) Deal(ctx context.Context, msg *bus.Message) error {
	if isShutdownCommand(msg.Text) {
		user := msg.UserID()
		if c.IsMaster(msg.Adapter, user) {
			c.log.Log(logging.Warn, logging.En("[Core] Shutdown requested by master %s on %s", user, msg.Adapter).
				Zh("[Core] 主人 %s 在 %s 上请求关机", user, msg.Adapter))
			c.Shutdown("master command")
			return ErrShutdown
		}
		c.log.Log(logging.Warn, logging.En("[Core] %s on %s is not a master, shutdown ignored", user, msg.Adapter).
			Zh("[Core] %s 在 %s 上不是主人, 忽略关机指令", user, msg.Adapter))
	}

	err := c.Pipeline().Dispatch(ctx, msg)
	if errors.Is(err, bus.ErrFatal) {
		c.log.Log(logging.Fatal, logging.En("[Core] Fatal error while handling message %s: %s", msg.ID, logging.FirstLine(err)).
			Zh("[Core] 处理消息 %s 时发生致命错误: %s", msg.ID, logging.FirstLine(err)))
		c.Shutdown("fatal error")
	}
	return err
}

// Shutdown cancels every adapter loop and, if they have not all returned
// within the grace period, terminates the process. Only the first call acts.
func (c *Core) Shutdown(reason string) {
	c.once.Do(func() {
		c.lmu.Lock()
		cancel, loops := c.cancel, c.loops
		c.lmu.Unlock()

		c.log.Log(logging.Warn, logging.En("[Core] Shutting down (%s), waiting up to %s for adapters", reason, c.grace).
			Zh("[Core] 正在关机 (%s), 最多等待适配器 %s", reason, c.grace))
		close(c.stopping)
		if cancel != nil {
			cancel()
		}
		if loops == nil {
			close(c.forced)
			return
		}
		go c.awaitLoops(loops)
	})
}

func (c *Core) awaitLoops(loops <-chan struct{}) {
	defer close(c.forced)
	timer := time.NewTimer(c.grace)
	defer timer.Stop()
	select {
	case <-loops:
		c.log.Log(logging.Info, logging.En("[Core] ✅ All adapters stopped").Zh("[Core] ✅ 所有适配器已停止"))
	case <-timer.C:
		c.log.Log(logging.Fatal, logging.En("[Core] Adapters still running after %s, forcing exit", c.grace).
			Zh("[Core] 适配器在 %s 后仍未停止, 强制退出", c.grace))
		c.exit(1)
	}
}

// ShutdownSettled is closed once the grace wait has finished, either because
// the loops returned or because the exit func was called.
func (c *Core) ShutdownSettled() <-chan struct{} { return c.forced }
