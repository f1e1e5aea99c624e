package db

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	if err := Migrate(ctx, d.sql); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var n int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	steps, err := readSteps(migrationsFS)
	if err != nil {
		t.Fatalf("readSteps: %v", err)
	}
	if n != len(steps) {
		t.Fatalf("recorded %d versions, have %d files", n, len(steps))
	}
}

func TestMigrateDetectsEditedStep(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	if _, err := d.sql.ExecContext(ctx, "UPDATE schema_version SET sum = 'stale' WHERE version = 1"); err != nil {
		t.Fatalf("update: %v", err)
	}
	err := Migrate(ctx, d.sql)
	if err == nil || !strings.Contains(err.Error(), "changed after it was applied") {
		t.Fatalf("expected checksum error, got %v", err)
	}
}

func TestReadStepsRejectsBadNames(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/init.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := readSteps(fsys); err == nil {
		t.Fatalf("expected error for unnumbered file")
	}
	fsys = fstest.MapFS{
		"migrations/0002_b.sql": {Data: []byte("SELECT 2;")},
		"migrations/0001_a.sql": {Data: []byte("SELECT 1;")},
	}
	steps, err := readSteps(fsys)
	if err != nil {
		t.Fatalf("readSteps: %v", err)
	}
	if len(steps) != 2 || steps[0].file != "0001_a.sql" || steps[1].version != 2 {
		t.Fatalf("unexpected order: %+v", steps)
	}
}
