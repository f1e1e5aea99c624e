// Package status implements the "filesmanager status" subcommand, which
// asks a running server for its health and totals.
package status

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"filesmanager/internal/apiclient"
)

type Options struct {
	Addr     string
	Insecure bool
	Timeout  time.Duration
}

func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	var opt Options
	fs.StringVar(&opt.Addr, "addr", "http://127.0.0.1:5000", "server address")
	fs.BoolVar(&opt.Insecure, "insecure", false, "skip TLS verification")
	fs.DurationVar(&opt.Timeout, "timeout", 5*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := apiclient.NewClient(apiclient.ClientOptions{Addr: opt.Addr, Insecure: opt.Insecure, Timeout: opt.Timeout})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
	defer cancel()

	st, err := c.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	stats, err := c.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Fprintf(out, "redis: %s\ndb:    %s\nusers: %d\nfiles: %d\n", upDown(st.Redis), upDown(st.DB), stats.Users, stats.Files)
	if !st.Redis || !st.DB {
		return fmt.Errorf("server at %s is degraded", opt.Addr)
	}
	return nil
}

func upDown(ok bool) string {
	if ok {
		return "up"
	}
	return "down"
}
