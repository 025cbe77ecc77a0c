package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty reports that no message was available within the wait window.
var ErrQueueEmpty = errors.New("notify: queue empty")

// Queue is the delivery buffer between alert producers and the worker.
type Queue interface {
	Enqueue(ctx context.Context, m Message) error
	// Dequeue blocks up to the implementation's wait window and returns
	// ErrQueueEmpty when nothing arrived.
	Dequeue(ctx context.Context) (Message, error)
	// DeadLetter parks a message that exhausted its delivery attempts.
	DeadLetter(ctx context.Context, m Message) error
}

const (
	redisQueueKey      = "notify:queue"
	redisDeadLetterKey = "notify:dead"
)

// RedisQueue is a Redis-list backed Queue shared by all API instances.
type RedisQueue struct {
	rdb  *redis.Client
	wait time.Duration
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, wait: 5 * time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, m Message) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, redisQueueKey, raw).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Message, error) {
	res, err := q.rdb.BRPop(ctx, q.wait, redisQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return Message{}, ErrQueueEmpty
	}
	if err != nil {
		return Message{}, err
	}
	// BRPOP returns [key, value].
	var m Message
	if err := json.Unmarshal([]byte(res[1]), &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (q *RedisQueue) DeadLetter(ctx context.Context, m Message) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, redisDeadLetterKey, raw).Err()
}

// MemoryQueue is an in-process Queue for tests.
type MemoryQueue struct {
	mu     sync.Mutex
	Items  []Message
	Failed []Message
}

func NewMemoryQueue() *MemoryQueue { return &MemoryQueue{} }

func (q *MemoryQueue) Enqueue(ctx context.Context, m Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Items = append(q.Items, m)
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.Items) == 0 {
		return Message{}, ErrQueueEmpty
	}
	m := q.Items[0]
	q.Items = q.Items[1:]
	return m, nil
}

func (q *MemoryQueue) DeadLetter(ctx context.Context, m Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Failed = append(q.Failed, m)
	return nil
}
