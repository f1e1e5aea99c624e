package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueKey  = "thumbnail:queue"
	DefaultFailedKey = "thumbnail:failed"

	// failedKeep bounds the failure list.
	failedKeep = 1000
)

// Queue is the durable transport between producers and workers.
type Queue interface {
	// Push appends a job.
	Push(ctx context.Context, j Job) error
	// Pop waits briefly for the next job. ok is false when nothing arrived
	// before the poll timeout.
	Pop(ctx context.Context) (j Job, ok bool, err error)
	// Fail records a job that could not be processed.
	Fail(ctx context.Context, j Job, cause error) error
}

// FailedJob is the record appended to the failure list.
type FailedJob struct {
	Job      Job    `json:"job"`
	Error    string `json:"error"`
	FailedAt int64  `json:"failedAt"`
	Raw      string `json:"raw,omitempty"`
}

// RedisQueue implements Queue on two redis lists. Jobs are LPUSHed and
// BRPOPed, so consumption is FIFO per list.
type RedisQueue struct {
	rdb       redis.Cmdable
	key       string
	failedKey string
	poll      time.Duration
}

func NewRedisQueue(rdb redis.Cmdable) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: DefaultQueueKey, failedKey: DefaultFailedKey, poll: time.Second}
}

func (q *RedisQueue) Push(ctx context.Context, j Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context) (Job, bool, error) {
	res, err := q.rdb.BRPop(ctx, q.poll, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, fmt.Errorf("pop job: %w", err)
	}
	if len(res) != 2 {
		return Job{}, false, fmt.Errorf("pop job: unexpected reply %v", res)
	}
	var j Job
	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		_ = q.record(ctx, FailedJob{Error: err.Error(), FailedAt: time.Now().Unix(), Raw: res[1]})
		return Job{}, false, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return j, true, nil
}

func (q *RedisQueue) Fail(ctx context.Context, j Job, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return q.record(ctx, FailedJob{Job: j, Error: msg, FailedAt: time.Now().Unix()})
}

func (q *RedisQueue) record(ctx context.Context, f FailedJob) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, q.failedKey, b)
	pipe.LTrim(ctx, q.failedKey, 0, failedKeep-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Failed returns up to n most recent failure records.
func (q *RedisQueue) Failed(ctx context.Context, n int64) ([]FailedJob, error) {
	if n <= 0 {
		return nil, nil
	}
	vals, err := q.rdb.LRange(ctx, q.failedKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]FailedJob, 0, len(vals))
	for _, v := range vals {
		var f FailedJob
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Len returns the number of pending jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
