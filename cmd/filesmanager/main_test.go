package main

import "testing"

func TestRunRejectsUnknownSubcommand(t *testing.T) {
	if err := run([]string{"filesmanager"}); err == nil {
		t.Fatalf("expected missing subcommand error")
	}
	if err := run([]string{"filesmanager", "setup"}); err == nil {
		t.Fatalf("expected unknown subcommand error")
	}
	if err := run([]string{"filesmanager", "help"}); err != nil {
		t.Fatalf("help: %v", err)
	}
}
