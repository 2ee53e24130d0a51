// Package notify is the outbound notification pipeline. Handlers enqueue
// jobs onto a Redis list and a background worker delivers them with retries,
// so a slow or failing messaging provider can never affect request handling.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Job kinds.
const (
	KindOrderCreated = "order_created"
)

// Queue keys.
const (
	KeyOutbox = "notify:outbox"
	KeyDead   = "notify:dead"
)

// Job is one outbound message.
type Job struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	Reference string    `json:"reference,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// Enqueuer is what handlers see; the worker side stays out of their reach.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Queue is a Redis-list backed outbox.
type Queue struct {
	rdb *redis.Client
}

func NewQueue(addr string) *Queue {
	return &Queue{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewQueueWithClient wires an existing client, used by tests.
func NewQueueWithClient(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, KeyOutbox, payload).Err()
}

// dequeue blocks until a job is available or the timeout elapses. A nil job
// with nil error means the timeout hit.
func (q *Queue) dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, KeyOutbox).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// deadLetter parks a job that exhausted its attempts.
func (q *Queue) deadLetter(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, KeyDead, payload).Err()
}

func (q *Queue) Close() error {
	return q.rdb.Close()
}
