package daemon

import (
	"context"
	"fmt"
	"io"
	"time"

	"filesmanager/internal/config"
	"filesmanager/internal/thumbnail"
	"github.com/redis/go-redis/v9"
)

// InspectQueue prints the pending job count and the n most recent failures.
// It needs redis only, so it works while the server and worker are running.
func InspectQueue(ctx context.Context, c config.Config, n int64, out io.Writer) error {
	rdb := redis.NewClient(&redis.Options{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB})
	defer rdb.Close()

	q := thumbnail.NewRedisQueue(rdb)
	pending, err := q.Len(ctx)
	if err != nil {
		return fmt.Errorf("connect redis %s: %w", c.Redis.Addr, err)
	}
	failed, err := q.Failed(ctx, n)
	if err != nil {
		return fmt.Errorf("read failures: %w", err)
	}
	fmt.Fprintf(out, "pending: %d\nfailed (latest %d):\n", pending, len(failed))
	for _, f := range failed {
		at := time.Unix(f.FailedAt, 0).UTC().Format(time.RFC3339)
		if f.Raw != "" {
			fmt.Fprintf(out, "  %s  raw=%q  %s\n", at, f.Raw, f.Error)
			continue
		}
		fmt.Fprintf(out, "  %s  file=%d user=%d  %s\n", at, f.Job.FileID, f.Job.UserID, f.Error)
	}
	return nil
}
