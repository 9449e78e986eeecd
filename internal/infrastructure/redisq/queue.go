package redisq

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Queue is a Redis-list-backed message queue. Enqueued message IDs survive a
// process restart, unlike the in-memory queue the dispatcher defaults to.
type Queue struct {
	client *redis.Client
	key    string
}

func New(addr, password, key string) *Queue {
	return &Queue{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		key:    key,
	}
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

func (q *Queue) Enqueue(ctx context.Context, messageID string) error {
	return q.client.LPush(ctx, q.key, messageID).Err()
}

// DequeueBatch pops up to n message IDs from the tail of the list, preserving
// FIFO order relative to Enqueue.
func (q *Queue) DequeueBatch(ctx context.Context, n int) ([]string, error) {
	var ids []string
	for i := 0; i < n; i++ {
		id, err := q.client.RPop(ctx, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	return int(n), err
}

func (q *Queue) Close() error { return q.client.Close() }
