//go:generate go run go.uber.org/mock/mockgen -source=stats.go -destination=../mocks/mock_stats.go -package=mocks
package core

import "context"

// Stats mirrors the traffic counters to an external store.
type Stats interface {
	IncrRecv(ctx context.Context) error
	IncrSend(ctx context.Context) error
}
