// Command filesmanager runs the files API, the thumbnail worker and the
// operator tools from one binary.
package main

import (
	"fmt"
	"io"
	"os"

	"filesmanager/internal/cmd/adduser"
	"filesmanager/internal/cmd/server"
	"filesmanager/internal/cmd/status"
	"filesmanager/internal/cmd/worker"
	"filesmanager/internal/version"
)

type command struct {
	name string
	help string
	run  func(args []string) error
}

var commands = []command{
	{"server", "serve the HTTP API", server.Run},
	{"worker", "consume thumbnail jobs", worker.Run},
	{"adduser", "create a user account", adduser.Run},
	{"status", "query a running server's health", status.Run},
}

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	if len(argv) < 2 {
		usage(os.Stderr)
		return fmt.Errorf("missing subcommand")
	}
	name := argv[1]
	if name == "help" || name == "-h" || name == "--help" {
		usage(os.Stdout)
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(argv[2:])
		}
	}
	usage(os.Stderr)
	return fmt.Errorf("unknown subcommand %q", name)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "filesmanager %s\n\nusage: filesmanager <command> [flags]\n\ncommands:\n", version.Version)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.help)
	}
}
