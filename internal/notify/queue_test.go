package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	q := NewQueueWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = q.Close() })
	return q, srv
}

func TestQueueRoundTrip(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	err := q.Enqueue(ctx, Job{
		Kind:      KindOrderCreated,
		Recipient: "+2348012345678",
		Message:   "your order has been received",
		Reference: "trk-1",
	})
	require.NoError(t, err)

	job, err := q.dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, KindOrderCreated, job.Kind)
	assert.Equal(t, "+2348012345678", job.Recipient)
	assert.Equal(t, "trk-1", job.Reference)
	assert.NotEmpty(t, job.ID, "enqueue should assign an id")
	assert.False(t, job.CreatedAt.IsZero(), "enqueue should stamp creation time")
}

func TestQueueDequeueEmptyReturnsNil(t *testing.T) {
	q, _ := newTestQueue(t)

	job, err := q.dequeue(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestQueueDeadLetter(t *testing.T) {
	q, srv := newTestQueue(t)

	err := q.deadLetter(context.Background(), Job{ID: "j1", Kind: KindOrderCreated, Attempts: 5})
	require.NoError(t, err)

	vals, err := srv.List(KeyDead)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Contains(t, vals[0], "j1")

	assert.False(t, srv.Exists(KeyOutbox), "dead-lettered job must not go back on the outbox")
}
