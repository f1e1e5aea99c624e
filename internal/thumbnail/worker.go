package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"filesmanager/internal/blobstore"
	"filesmanager/internal/db"
	"filesmanager/internal/logging"
)

// popBackoff is the pause after a transport error before polling again.
const popBackoff = time.Second

// FileLookup finds a catalog row owned by a given user.
type FileLookup interface {
	GetFileForUser(ctx context.Context, id, userID int64) (*db.File, bool, error)
}

// Blobs reads originals and writes derived variants.
type Blobs interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte) error
}

// Worker consumes thumbnail jobs. Failed jobs are logged and handed to
// Queue.Fail; they are not retried.
type Worker struct {
	Queue       Queue
	Files       FileLookup
	Blobs       Blobs
	Concurrency int
	Logger      *slog.Logger
}

// Run starts Concurrency consumer loops and blocks until ctx is done and
// every loop has finished its current job.
func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Files == nil || w.Blobs == nil {
		return errors.New("worker requires queue, files and blobs")
	}
	if w.Logger == nil {
		w.Logger = logging.Discard()
	}
	n := w.Concurrency
	if n < 1 {
		n = 1
	}
	w.Logger.Info("thumbnail worker ready", "concurrency", n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
	return nil
}

func (w *Worker) loop(ctx context.Context, id int) {
	lg := w.Logger.With("loop", id)
	for ctx.Err() == nil {
		j, ok, err := w.Queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			lg.Error("pop thumbnail job", "err", err)
			if !errors.Is(err, ErrBadPayload) {
				sleep(ctx, popBackoff)
			}
			continue
		}
		if !ok {
			continue
		}
		w.handle(ctx, lg, j)
	}
}

func (w *Worker) handle(ctx context.Context, lg *slog.Logger, j Job) {
	start := time.Now()
	// A started job runs to completion even if the worker is shutting down.
	jctx := context.WithoutCancel(ctx)
	if err := w.Process(jctx, j); err != nil {
		lg.Error("thumbnail job failed", "user_id", j.UserID, "file_id", j.FileID, "err", err)
		fctx, cancel := context.WithTimeout(jctx, 2*time.Second)
		defer cancel()
		if ferr := w.Queue.Fail(fctx, j, err); ferr != nil {
			lg.Error("record failed thumbnail job", "file_id", j.FileID, "err", ferr)
		}
		return
	}
	lg.Info("thumbnail job done", "user_id", j.UserID, "file_id", j.FileID, "duration_ms", time.Since(start).Milliseconds())
}

// Process derives every width for one job. Non-image entries complete
// without doing anything. The first failing width fails the job.
func (w *Worker) Process(ctx context.Context, j Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	f, ok, err := w.Files.GetFileForUser(ctx, j.FileID, j.UserID)
	if err != nil {
		return fmt.Errorf("lookup file %d: %w", j.FileID, err)
	}
	if !ok {
		return ErrEntryNotFound
	}
	if f.Type != "image" {
		return nil
	}
	src, err := w.Blobs.Read(ctx, f.LocalPath)
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}
	for _, width := range Widths {
		out, err := Resize(src, width)
		if err != nil {
			return fmt.Errorf("width %d: %w", width, err)
		}
		if err := w.Blobs.Put(ctx, blobstore.VariantPath(f.LocalPath, strconv.Itoa(width)), out); err != nil {
			return fmt.Errorf("width %d: %w", width, err)
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
