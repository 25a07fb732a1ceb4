package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voice_motto/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// popTimeout bounds each BRPOP so cancellation is noticed promptly.
const popTimeout = 5 * time.Second

// RedisQueue is a FIFO list: producers LPUSH, consumers BRPOP.
type RedisQueue struct {
	rdb  *redis.Client
	name string
}

func NewRedisQueue(rdb *redis.Client, name string) *RedisQueue {
	return &RedisQueue{rdb: rdb, name: name}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task model.TranscriptionTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("push job %s to redis queue %s: %w", task.JobID, q.name, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (model.TranscriptionTask, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.TranscriptionTask{}, err
		}
		res, err := q.rdb.BRPop(ctx, popTimeout, q.name).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // timed out with nothing queued
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.TranscriptionTask{}, ctxErr
			}
			return model.TranscriptionTask{}, fmt.Errorf("brpop %s: %w", q.name, err)
		}
		// res is [queueName, value]
		if len(res) < 2 {
			return model.TranscriptionTask{}, fmt.Errorf("brpop %s returned %d elements: %w", q.name, len(res), ErrMalformedTask)
		}
		return decodeTask(res[1])
	}
}

func decodeTask(raw string) (model.TranscriptionTask, error) {
	var task model.TranscriptionTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return model.TranscriptionTask{}, fmt.Errorf("decode %q: %v: %w", raw, err, ErrMalformedTask)
	}
	if task.JobID == "" {
		return model.TranscriptionTask{}, fmt.Errorf("empty job id: %w", ErrMalformedTask)
	}
	return task, nil
}
