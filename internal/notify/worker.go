package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// maxAttempts bounds delivery retries before a message is dead-lettered.
const maxAttempts = 3

// Sender delivers one message over a single channel (email, slack).
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Worker drains the queue and dispatches messages to per-method senders.
type Worker struct {
	queue   Queue
	senders map[string]Sender
	backoff time.Duration
}

func NewWorker(queue Queue, senders map[string]Sender) *Worker {
	return &Worker{queue: queue, senders: senders, backoff: 2 * time.Second}
}

// Run processes messages until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := w.queue.Dequeue(ctx)
		if errors.Is(err, ErrQueueEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("notify worker: dequeue failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.backoff):
			}
			continue
		}
		w.process(ctx, m)
	}
}

// process attempts one delivery, re-queueing on failure until the attempt
// budget runs out, then dead-letters the message.
func (w *Worker) process(ctx context.Context, m Message) {
	sender, ok := w.senders[m.Method]
	if !ok {
		slog.Error("notify worker: no sender for method", "method", m.Method, "message_id", m.ID)
		_ = w.queue.DeadLetter(ctx, m)
		return
	}

	m.Attempts++
	if err := sender.Send(ctx, m); err != nil {
		if m.Attempts >= maxAttempts {
			slog.Error("notify worker: delivery failed permanently",
				"message_id", m.ID, "event", string(m.Event), "attempts", m.Attempts, "err", err)
			if dlErr := w.queue.DeadLetter(ctx, m); dlErr != nil {
				slog.Error("notify worker: dead-letter failed", "message_id", m.ID, "err", dlErr)
			}
			return
		}
		slog.Warn("notify worker: delivery failed, requeueing",
			"message_id", m.ID, "attempt", m.Attempts, "err", err)
		if qErr := w.queue.Enqueue(ctx, m); qErr != nil {
			slog.Error("notify worker: requeue failed", "message_id", m.ID, "err", qErr)
		}
		return
	}
	slog.Info("notification delivered",
		"message_id", m.ID, "event", string(m.Event), "method", m.Method)
}

// Drain processes everything currently queued and returns. Used by tests and
// one-shot tooling.
func (w *Worker) Drain(ctx context.Context) {
	for {
		m, err := w.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		w.process(ctx, m)
	}
}
