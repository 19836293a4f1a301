package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dayuer/justrobot-go/internal/logging"
)

func TestDisabledStoreIsNoop(t *testing.T) {
	rec := logging.NewRecorder()
	s := New(Config{}, rec)
	ctx := context.Background()

	assert.False(t, s.Enabled())
	assert.False(t, s.Connect(ctx))
	assert.NoError(t, s.Register(ctx, Identity{Name: "Paimon"}))
	assert.NoError(t, s.IncrRecv(ctx))
	assert.NoError(t, s.IncrSend(ctx))
	assert.False(t, s.IsAvailable())
	assert.Empty(t, rec.AtLevel(logging.Error))
	s.Close()
}

func TestConnect_InvalidURL(t *testing.T) {
	rec := logging.NewRecorder()
	s := New(Config{URL: "http://not-redis"}, rec)

	assert.False(t, s.Connect(context.Background()))
	assert.Equal(t, 1, rec.Count(logging.Error, "Invalid URL"))
	assert.False(t, s.IsAvailable())
}

func TestUnreachableStoreReportsUnavailable(t *testing.T) {
	rec := logging.NewRecorder()
	s := New(Config{URL: "redis://127.0.0.1:1/0", DialTimeout: 200 * time.Millisecond}, rec)
	ctx := context.Background()

	assert.False(t, s.Connect(ctx))
	assert.ErrorIs(t, s.Register(ctx, Identity{Name: "Paimon"}), ErrUnavailable)
	assert.ErrorIs(t, s.IncrRecv(ctx), ErrUnavailable)
	assert.False(t, s.IsAvailable())
	assert.GreaterOrEqual(t, rec.Count(logging.Error, "Connection failed"), 3)
}

func TestCounterKeys(t *testing.T) {
	assert.Equal(t, "Paimon_recv", RecvKey("Paimon"))
	assert.Equal(t, "Paimon_send", SendKey("Paimon"))
}
