// Package redis provides the optional stats store: the bot identity and its
// received/sent counters.
//
// Graceful fallback: a store without a URL is a silent no-op, and a store that
// cannot be reached reports errors without blocking message handling.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dayuer/justrobot-go/internal/logging"
)

// KeyBot holds the JSON identity of the running bot.
const KeyBot = "bot"

// ErrUnavailable is returned when the store cannot be reached.
var ErrUnavailable = errors.New("redis unavailable")

// Config holds Redis connection settings.
type Config struct {
	URL         string // redis://host:port
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Identity is the bot record written on Register.
type Identity struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Adapter string `json:"adapter,omitempty"`
}

// Store is a connection to the stats store.
type Store struct {
	cfg Config
	log logging.Logger

	mu     sync.RWMutex
	client *redis.Client
	name   string
}

// New creates a store. Call Connect before use.
func New(cfg Config, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	return &Store{cfg: cfg, log: log}
}

// Enabled reports whether a URL is configured.
func (s *Store) Enabled() bool { return s.cfg.URL != "" }

// Connect opens the connection. Returns true if connected.
func (s *Store) Connect(ctx context.Context) bool {
	if !s.Enabled() {
		s.log.Log(logging.Debug, logging.En("[Redis] URL not configured, skipping init"))
		return false
	}

	opts, err := redis.ParseURL(s.cfg.URL)
	if err != nil {
		s.log.Log(logging.Error, logging.En("[Redis] ❌ Invalid URL: %v", err).Zh("[Redis] ❌ 无效的地址: %v", err))
		return false
	}
	if s.cfg.Password != "" {
		opts.Password = s.cfg.Password
	}
	opts.DB = s.cfg.DB
	opts.DialTimeout = s.cfg.DialTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.MaxRetries = 1

	c := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		s.log.Log(logging.Error, logging.En("[Redis] ❌ Connection failed, check the redis settings: %v", err).
			Zh("[Redis] ❌ 连接失败, 请检查数据库配置是否正确或是否开启: %v", err))
		return false
	}

	s.mu.Lock()
	old := s.client
	s.client = c
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	s.log.Log(logging.Info, logging.En("[Redis] ✅ Connected").Zh("[Redis] ✅ 数据库连接建立成功"))
	return true
}

// IsAvailable checks if the store is connected.
func (s *Store) IsAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil
}

// Close closes the connection.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
		s.log.Log(logging.Info, logging.En("[Redis] Connection closed").Zh("[Redis] 连接已关闭"))
	}
}

// Register stores the bot identity and resets its counters.
func (s *Store) Register(ctx context.Context, id Identity) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	s.name = id.Name
	s.mu.Unlock()

	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	return s.retry(ctx, func(c *redis.Client) error {
		_, err := c.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, KeyBot, data, 0)
			p.Set(ctx, RecvKey(id.Name), 0, 0)
			p.Set(ctx, SendKey(id.Name), 0, 0)
			return nil
		})
		return err
	})
}

// IncrRecv increments the received counter.
func (s *Store) IncrRecv(ctx context.Context) error {
	return s.incr(ctx, RecvKey)
}

// IncrSend increments the sent counter.
func (s *Store) IncrSend(ctx context.Context) error {
	return s.incr(ctx, SendKey)
}

func (s *Store) incr(ctx context.Context, key func(string) string) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.RLock()
	name := s.name
	s.mu.RUnlock()
	return s.retry(ctx, func(c *redis.Client) error {
		return c.Incr(ctx, key(name)).Err()
	})
}

// retry runs op, reconnecting once and running it again if it fails.
func (s *Store) retry(ctx context.Context, op func(*redis.Client) error) error {
	s.mu.RLock()
	c := s.client
	s.mu.RUnlock()

	if c != nil {
		err := op(c)
		if err == nil {
			return nil
		}
		s.log.Log(logging.Warn, logging.En("[Redis] ⚠️ Operation failed, reconnecting: %v", err).
			Zh("[Redis] ⚠️ 操作失败, 正在重连: %v", err))
	}

	if !s.Connect(ctx) {
		return ErrUnavailable
	}
	s.mu.RLock()
	c = s.client
	s.mu.RUnlock()
	return op(c)
}

// RecvKey returns the received counter key of bot name.
func RecvKey(name string) string { return name + "_recv" }

// SendKey returns the sent counter key of bot name.
func SendKey(name string) string { return name + "_send" }
