// Package worker implements the "filesmanager worker" subcommand, which
// consumes thumbnail jobs in a process of its own.
package worker

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"filesmanager/internal/cmd/server"
	"filesmanager/internal/config"
	"filesmanager/internal/daemon"
	"filesmanager/internal/logging"
	"filesmanager/internal/version"
)

func Run(args []string) error {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	var configPath, level, redisAddr string
	var concurrency int
	var failed int64
	fs.StringVar(&configPath, "config", "", "path to filesmanager.yaml")
	fs.StringVar(&level, "log-level", "", "log level: debug|info|warning|error (overrides config)")
	fs.StringVar(&redisAddr, "redis", "", "redis address host:port (overrides config)")
	fs.IntVar(&concurrency, "concurrency", 0, "parallel jobs (overrides config)")
	fs.Int64Var(&failed, "failed", 0, "print the queue backlog and the N latest failed jobs, then exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if level != "" {
		c.Log.Level = level
	}
	if redisAddr != "" {
		c.Redis.Addr = redisAddr
	}
	if concurrency > 0 {
		c.Worker.Concurrency = concurrency
	}
	if err := config.Validate(&c); err != nil {
		return err
	}
	if failed > 0 {
		return daemon.InspectQueue(context.Background(), c, failed, os.Stdout)
	}
	lg, _, err := logging.New(logging.Options{Level: c.Log.Level, JSON: c.Log.JSON, DefaultSlog: true, Component: "worker"})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	lg.Info("starting thumbnail worker", "version", version.Version, "concurrency", c.Worker.Concurrency)
	return daemon.RunWorker(ctx, daemon.Options{Config: c, Logger: lg})
}
