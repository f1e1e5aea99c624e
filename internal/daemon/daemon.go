// Package daemon wires the long-running processes. It owns every external
// handle (SQLite, redis, blob root) for the lifetime of one Run call.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"filesmanager/internal/auth"
	"filesmanager/internal/blobstore"
	"filesmanager/internal/config"
	"filesmanager/internal/db"
	"filesmanager/internal/files"
	"filesmanager/internal/httpapi"
	"filesmanager/internal/logging"
	"filesmanager/internal/thumbnail"
	"filesmanager/internal/validate"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	redisDialWait   = 5 * time.Second
)

type Options struct {
	Config config.Config
	Logger *slog.Logger
}

// backends are the handles shared by the server and the worker.
type backends struct {
	db    *db.DB
	rdb   *redis.Client
	blobs *blobstore.Store
}

func open(ctx context.Context, c config.Config, lg *slog.Logger) (*backends, error) {
	if err := os.MkdirAll(filepath.Dir(c.DB.Path), 0o700); err != nil {
		return nil, fmt.Errorf("db dir: %w", err)
	}
	d, err := db.Open(ctx, c.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, redisDialWait)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		_ = d.Close()
		return nil, fmt.Errorf("connect redis %s: %w", c.Redis.Addr, err)
	}
	blobs, err := openBlobs(c.Storage.FolderPath)
	if err != nil {
		_ = rdb.Close()
		_ = d.Close()
		return nil, fmt.Errorf("blob store: %w", err)
	}
	lg.Info("backends ready", "db", d.Path(), "redis", c.Redis.Addr, "storage", blobs.Root())
	return &backends{db: d, rdb: rdb, blobs: blobs}, nil
}

func openBlobs(folder string) (*blobstore.Store, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, err
	}
	root, err := validate.RootPath(abs)
	if err != nil {
		return nil, err
	}
	return blobstore.New(root)
}

func (b *backends) close() error {
	return errors.Join(b.rdb.Close(), b.db.Close())
}

// Run serves the HTTP API until ctx is done. The thumbnail producer always
// runs; the worker runs in-process only when Config.Worker.Embedded is set.
func Run(ctx context.Context, opt Options) error {
	lg := opt.Logger
	if lg == nil {
		lg = logging.Discard()
	}
	c := opt.Config
	b, err := open(ctx, c, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(); err != nil {
			lg.Error("close backends", "err", err)
		}
	}()

	queue := thumbnail.NewRedisQueue(b.rdb)
	producer := thumbnail.NewProducer(queue, c.Worker.QueueBuffer, lg.With("component", "producer"))
	api := &httpapi.Server{
		Users:          auth.NewDirectory(b.db),
		Sessions:       auth.NewSessions(b.rdb),
		Files:          files.NewService(b.db, b.blobs, producer, lg.With("component", "files")),
		Stats:          b.db,
		DBPing:         b.db.Ping,
		RedisPing:      func(ctx context.Context) error { return b.rdb.Ping(ctx).Err() },
		Logger:         lg.With("component", "http"),
		MaxUploadBytes: int64(c.HTTP.MaxUploadMB) << 20,
		LoginPerMinute: c.HTTP.LoginPerMin,
	}
	h, err := api.Handler()
	if err != nil {
		return err
	}
	defer api.Close()

	addr := net.JoinHostPort(c.HTTP.Bind, strconv.Itoa(c.HTTP.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Background work outlives the listener so jobs accepted by the last
	// requests are still forwarded.
	bgCtx, stopBackground := context.WithCancel(context.WithoutCancel(ctx))
	defer stopBackground()
	bg, bgCtx := errgroup.WithContext(bgCtx)
	bg.Go(func() error { return producer.Run(bgCtx) })
	if c.Worker.Embedded {
		w := &thumbnail.Worker{
			Queue:       queue,
			Files:       b.db,
			Blobs:       b.blobs,
			Concurrency: c.Worker.Concurrency,
			Logger:      lg.With("component", "worker"),
		}
		bg.Go(func() error { return w.Run(bgCtx) })
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("http listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		lg.Info("shutting down http server")
		return srv.Shutdown(sctx)
	})
	err = g.Wait()

	stopBackground()
	if berr := bg.Wait(); berr != nil {
		err = errors.Join(err, berr)
	}
	lg.Info("server stopped")
	return err
}

// RunWorker consumes thumbnail jobs until ctx is done.
func RunWorker(ctx context.Context, opt Options) error {
	lg := opt.Logger
	if lg == nil {
		lg = logging.Discard()
	}
	b, err := open(ctx, opt.Config, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(); err != nil {
			lg.Error("close backends", "err", err)
		}
	}()
	w := &thumbnail.Worker{
		Queue:       thumbnail.NewRedisQueue(b.rdb),
		Files:       b.db,
		Blobs:       b.blobs,
		Concurrency: opt.Config.Worker.Concurrency,
		Logger:      lg,
	}
	return w.Run(ctx)
}
