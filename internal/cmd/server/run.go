// Package server implements the "filesmanager server" subcommand.
package server

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"filesmanager/internal/config"
	"filesmanager/internal/daemon"
	"filesmanager/internal/logging"
	"filesmanager/internal/version"
)

type Options struct {
	ConfigPath string
	LogLevel   string
	LogJSON    bool

	DBPath     string
	FolderPath string
	RedisAddr  string
	BindAddr   string
	Port       int
	Embedded   bool
}

func Run(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var opt Options
	var showVersion bool
	fs.StringVar(&opt.ConfigPath, "config", "", "path to filesmanager.yaml")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&opt.LogLevel, "log-level", "", "log level: debug|info|warning|error (overrides config)")
	fs.BoolVar(&opt.LogJSON, "log-json", false, "emit JSON logs")
	fs.StringVar(&opt.DBPath, "db", "", "sqlite database path (overrides config)")
	fs.StringVar(&opt.FolderPath, "folder", "", "blob storage directory (overrides config)")
	fs.StringVar(&opt.RedisAddr, "redis", "", "redis address host:port (overrides config)")
	fs.StringVar(&opt.BindAddr, "bind", "", "bind address (overrides config)")
	fs.IntVar(&opt.Port, "port", 0, "HTTP port (overrides config)")
	fs.BoolVar(&opt.Embedded, "embedded-worker", false, "also run the thumbnail worker in this process")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("filesmanager server %s\n", version.Version)
		return nil
	}

	c, err := LoadConfig(opt.ConfigPath)
	if err != nil {
		return err
	}
	// CLI overrides config.
	if opt.LogLevel != "" {
		c.Log.Level = opt.LogLevel
	}
	if opt.LogJSON {
		c.Log.JSON = true
	}
	if opt.DBPath != "" {
		c.DB.Path = opt.DBPath
	}
	if opt.FolderPath != "" {
		c.Storage.FolderPath = opt.FolderPath
	}
	if opt.RedisAddr != "" {
		c.Redis.Addr = opt.RedisAddr
	}
	if opt.BindAddr != "" {
		c.HTTP.Bind = opt.BindAddr
	}
	if opt.Port != 0 {
		c.HTTP.Port = opt.Port
	}
	if opt.Embedded {
		c.Worker.Embedded = true
	}
	if err := config.Validate(&c); err != nil {
		return err
	}

	lg, _, err := logging.New(logging.Options{Level: c.Log.Level, JSON: c.Log.JSON, DefaultSlog: true})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	lg.Info("starting filesmanager", "version", version.Version, "embedded_worker", c.Worker.Embedded)
	return daemon.Run(ctx, daemon.Options{Config: c, Logger: lg})
}

// LoadConfig reads path when set, otherwise starts from defaults, and applies
// environment overrides either way. Relative paths in a file resolve against
// the file's directory.
func LoadConfig(path string) (config.Config, error) {
	if path == "" {
		c := config.Default()
		if err := config.ApplyEnv(&c, os.LookupEnv); err != nil {
			return config.Config{}, err
		}
		return c, nil
	}
	c, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	base := filepath.Dir(path)
	c.DB.Path = resolvePath(base, c.DB.Path)
	c.Storage.FolderPath = resolvePath(base, c.Storage.FolderPath)
	return c, nil
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
