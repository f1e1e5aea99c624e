package daemon

import (
	"context"
	"strings"
	"testing"
	"time"

	"filesmanager/internal/config"
	"github.com/alicebob/miniredis/v2"
)

func testConfig(t *testing.T, redisAddr string) config.Config {
	t.Helper()
	c := config.Default()
	dir := t.TempDir()
	c.DB.Path = dir + "/fm.db"
	c.Storage.FolderPath = dir + "/blobs"
	c.Redis.Addr = redisAddr
	c.HTTP.Port = 0
	return c
}

// TestRunFailsWithoutRedis refuses to start when redis is unreachable.
func TestRunFailsWithoutRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	err = Run(context.Background(), Options{Config: testConfig(t, addr)})
	if err == nil || !strings.Contains(err.Error(), "connect redis") {
		t.Fatalf("expected redis connect error, got %v", err)
	}
}

// TestRunStopsOnCancel serves until the context ends, then shuts down cleanly.
func TestRunStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	c := testConfig(t, mr.Addr())
	c.Worker.Embedded = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, Options{Config: c}) }()

	time.Sleep(300 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

// TestRunWorkerStopsOnCancel exits once its loops see the cancellation.
func TestRunWorkerStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := RunWorker(ctx, Options{Config: testConfig(t, mr.Addr())}); err != nil {
		t.Fatalf("RunWorker: %v", err)
	}
}
