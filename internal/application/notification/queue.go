package notification

import (
	"context"
	"sync"
)

// MessageQueue holds message IDs waiting for the processor. The in-memory
// implementation below is the default; redisq.Queue provides a durable one.
type MessageQueue interface {
	Enqueue(ctx context.Context, messageID string) error
	DequeueBatch(ctx context.Context, n int) ([]string, error)
}

// MemoryQueue is a mutex-guarded FIFO. Contents are lost on process exit.
type MemoryQueue struct {
	mu  sync.Mutex
	ids []string
}

func NewMemoryQueue() *MemoryQueue { return &MemoryQueue{} }

func (q *MemoryQueue) Enqueue(_ context.Context, messageID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, messageID)
	return nil
}

func (q *MemoryQueue) DequeueBatch(_ context.Context, n int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.ids) {
		n = len(q.ids)
	}
	batch := append([]string(nil), q.ids[:n]...)
	q.ids = q.ids[n:]
	return batch, nil
}

// Len reports the number of queued IDs.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}
