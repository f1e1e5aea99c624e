package daemon

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"filesmanager/internal/thumbnail"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// TestInspectQueueListsFailures reports the backlog and the failure records.
func TestInspectQueueListsFailures(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	q := thumbnail.NewRedisQueue(rdb)
	if err := q.Push(ctx, thumbnail.Job{UserID: 1, FileID: 2}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := q.Fail(ctx, thumbnail.Job{UserID: 1, FileID: 7}, errors.New("decode image: bad")); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	var out bytes.Buffer
	if err := InspectQueue(ctx, testConfig(t, mr.Addr()), 10, &out); err != nil {
		t.Fatalf("InspectQueue: %v", err)
	}
	got := out.String()
	for _, want := range []string{"pending: 1", "file=7 user=1", "decode image: bad"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output %q lacks %q", got, want)
		}
	}
}
