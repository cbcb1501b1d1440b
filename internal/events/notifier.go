package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "mentor_review_ready:"

// ReviewReady is published when a mentor review has been stored.
type ReviewReady struct {
	InterviewID string    `json:"interviewId"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notifier fans out review-ready events to stream consumers.
type Notifier interface {
	Publish(ctx context.Context, event ReviewReady) error
	// Subscribe delivers events for userID until ctx is cancelled or the
	// returned close func is called.
	Subscribe(ctx context.Context, userID string) (<-chan ReviewReady, func(), error)
}

func channelFor(userID string) string {
	return channelPrefix + userID
}

type RedisNotifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(rdb *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, logger: logger}
}

func (n *RedisNotifier) Publish(ctx context.Context, event ReviewReady) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, channelFor(event.UserID), payload).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, userID string) (<-chan ReviewReady, func(), error) {
	sub := n.rdb.Subscribe(ctx, channelFor(userID))
	// wait for the subscription to be confirmed before handing it out
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, func() {}, err
	}

	out := make(chan ReviewReady, 1)
	ch := sub.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event ReviewReady
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					n.logger.Warn("dropping malformed review event", zap.Error(err))
					continue
				}
				select {
				case out <- event:
				default:
					// consumer only needs a wake-up; one pending event is enough
				}
			}
		}
	}()

	return out, func() { sub.Close() }, nil
}

// NoopNotifier is used when redis is not configured; streams fall back to polling.
type NoopNotifier struct{}

func (NoopNotifier) Publish(context.Context, ReviewReady) error {
	return nil
}

func (NoopNotifier) Subscribe(context.Context, string) (<-chan ReviewReady, func(), error) {
	return nil, func() {}, nil
}
