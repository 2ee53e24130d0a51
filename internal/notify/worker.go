package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sender delivers one message to a recipient.
type Sender interface {
	Send(ctx context.Context, recipient, message string) error
}

// Retry policy.
const (
	maxAttempts    = 5
	baseBackoff    = 2 * time.Second
	maxBackoff     = time.Minute
	dequeueTimeout = 5 * time.Second
)

// backoffFor doubles the delay per attempt, capped. Attempt counting starts
// at 1 for the first retry.
func backoffFor(attempt int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Worker drains the outbox.
type Worker struct {
	queue  *Queue
	sender Sender
}

func NewWorker(queue *Queue, sender Sender) *Worker {
	return &Worker{queue: queue, sender: sender}
}

// Run consumes jobs until the context is cancelled. A failed send is retried
// with exponential backoff; after maxAttempts the job is dead-lettered.
func (w *Worker) Run(ctx context.Context) {
	log.Info().Msg("notification worker started")
	for {
		if ctx.Err() != nil {
			log.Info().Msg("notification worker stopped")
			return
		}

		job, err := w.queue.dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("notify: dequeue failed")
			select {
			case <-ctx.Done():
			case <-time.After(baseBackoff):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.process(ctx, *job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	err := w.sender.Send(ctx, job.Recipient, job.Message)
	if err == nil {
		log.Info().
			Str("jobId", job.ID).
			Str("kind", job.Kind).
			Str("reference", job.Reference).
			Msg("notification sent")
		return
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		log.Error().
			Err(err).
			Str("jobId", job.ID).
			Int("attempts", job.Attempts).
			Msg("notification dead-lettered")
		if dlErr := w.queue.deadLetter(ctx, job); dlErr != nil {
			log.Error().Err(dlErr).Str("jobId", job.ID).Msg("dead-letter failed, job dropped")
		}
		return
	}

	delay := backoffFor(job.Attempts)
	log.Warn().
		Err(err).
		Str("jobId", job.ID).
		Int("attempt", job.Attempts).
		Dur("retryIn", delay).
		Msg("notification send failed, will retry")

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	if err := w.queue.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("jobId", job.ID).Msg("requeue failed, job dropped")
	}
}
