package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// step is one numbered schema file, e.g. 0001_init.sql.
type step struct {
	version int
	file    string
	sql     string
	sum     string
}

const versionTable = `CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  file TEXT NOT NULL,
  sum TEXT NOT NULL,
  applied_at INTEGER NOT NULL
)`

// Migrate brings the schema to the newest embedded version. Each step runs
// in its own transaction. A step already applied whose file has since
// changed is an error, not a re-run.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, versionTable); err != nil {
		return err
	}
	steps, err := readSteps(migrationsFS)
	if err != nil {
		return err
	}
	applied, err := appliedSums(ctx, db)
	if err != nil {
		return err
	}
	for _, s := range steps {
		if sum, ok := applied[s.version]; ok {
			if sum != s.sum {
				return fmt.Errorf("migration %s changed after it was applied", s.file)
			}
			continue
		}
		if err := s.apply(ctx, db); err != nil {
			return fmt.Errorf("migration %s: %w", s.file, err)
		}
	}
	return nil
}

func readSteps(fsys fs.FS) ([]step, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	steps := make([]step, 0, len(names))
	for _, name := range names {
		file := path.Base(name)
		prefix, _, ok := strings.Cut(file, "_")
		v, err := strconv.Atoi(prefix)
		if !ok || err != nil || v <= 0 {
			return nil, fmt.Errorf("migration %s: name must start with a version number", file)
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		h := sha256.Sum256(body)
		steps = append(steps, step{version: v, file: file, sql: string(body), sum: hex.EncodeToString(h[:])})
	}
	slices.SortFunc(steps, func(a, b step) int { return a.version - b.version })
	for i := 1; i < len(steps); i++ {
		if steps[i].version == steps[i-1].version {
			return nil, fmt.Errorf("migrations %s and %s share version %d", steps[i-1].file, steps[i].file, steps[i].version)
		}
	}
	return steps, nil
}

func appliedSums(ctx context.Context, db *sql.DB) (map[int]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT version, sum FROM schema_version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int]string)
	for rows.Next() {
		var v int
		var sum string
		if err := rows.Scan(&v, &sum); err != nil {
			return nil, err
		}
		out[v] = sum
	}
	return out, rows.Err()
}

func (s step) apply(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, s.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version(version, file, sum, applied_at) VALUES(?, ?, ?, ?)",
		s.version, s.file, s.sum, nowUnix()); err != nil {
		return err
	}
	return tx.Commit()
}
