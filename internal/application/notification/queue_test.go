package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFOOrder(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, id))
	}

	batch, err := q.DequeueBatch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, batch)
	assert.Equal(t, 1, q.Len())

	batch, err = q.DequeueBatch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, batch)
	assert.Equal(t, 0, q.Len())
}

func TestMemoryQueue_DequeueEmpty(t *testing.T) {
	q := NewMemoryQueue()
	batch, err := q.DequeueBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, batch)
}
