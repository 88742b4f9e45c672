// Package broadcast publishes board state changes for other viewers.
//
// The core never publishes directly: handlers call Publish after a service
// operation returns its updated entities. Delivery is best-effort fan-out;
// a failed publish is logged, never surfaced to the mutating caller.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	id "retroboard/pkg/domain"
)

// Event is the wire shape pushed to board subscribers.
type Event struct {
	Type    string `json:"type"`
	BoardID string `json:"board_id"`
	Payload any    `json:"payload,omitempty"`
}

// Broadcaster publishes an event to everyone viewing a board.
//
//go:generate mockgen -source=broadcast.go -destination=mocks/broadcast-mocks.go -package=mocks Broadcaster
type Broadcaster interface {
	Publish(ctx context.Context, boardID id.BoardID, event Event) error
}

// RedisPublisher fans events out over one Redis pub/sub channel per board.
type RedisPublisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisPublisher constructs a Redis-backed broadcaster.
func NewRedisPublisher(client *redis.Client, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

// Channel returns the pub/sub channel name for a board.
func Channel(boardID id.BoardID) string {
	return "board:" + boardID.String()
}

func (p *RedisPublisher) Publish(ctx context.Context, boardID id.BoardID, event Event) error {
	event.BoardID = boardID.String()
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal broadcast event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(boardID), payload).Err(); err != nil {
		return fmt.Errorf("publish broadcast event: %w", err)
	}
	return nil
}

// Noop discards events; used when Redis is not configured and in tests.
type Noop struct{}

func (Noop) Publish(context.Context, id.BoardID, Event) error { return nil }
