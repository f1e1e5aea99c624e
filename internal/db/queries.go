package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// nowUnix returns the current Unix timestamp in seconds.
func nowUnix() int64 { return time.Now().Unix() }

// CreateUser inserts a new user and returns its database ID.
func (d *DB) CreateUser(ctx context.Context, email, passHash string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" || passHash == "" {
		return 0, errors.New("email and password hash are required")
	}
	res, err := d.sql.ExecContext(ctx, `INSERT INTO users(email, password, created_at) VALUES(?, ?, ?)`, email, passHash, nowUnix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByEmail looks up a user by exact email.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*User, bool, error) {
	var u User
	err := d.sql.QueryRowContext(ctx, `SELECT id, email, password, created_at FROM users WHERE email=?`, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt)
	if err == nil {
		return &u, true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	return nil, false, err
}

// GetUserByID looks up a user by ID.
func (d *DB) GetUserByID(ctx context.Context, id int64) (*User, bool, error) {
	var u User
	err := d.sql.QueryRowContext(ctx, `SELECT id, email, password, created_at FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt)
	if err == nil {
		return &u, true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	return nil, false, err
}

// CountUsers returns the number of stored users.
func (d *DB) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// InsertFile stores a catalog row and returns its ID. CreatedAt is filled in
// when zero.
func (d *DB) InsertFile(ctx context.Context, f *File) (int64, error) {
	if f == nil || f.UserID <= 0 || f.Name == "" || f.Type == "" {
		return 0, errors.New("invalid file row")
	}
	if f.CreatedAt == 0 {
		f.CreatedAt = nowUnix()
	}
	res, err := d.sql.ExecContext(ctx, `
INSERT INTO files(user_id, name, type, parent_id, is_public, local_path, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, f.UserID, f.Name, f.Type, f.ParentID, boolToInt(f.IsPublic), nullString(f.LocalPath), f.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	f.ID = id
	return id, nil
}

const fileColumns = `id, user_id, name, type, parent_id, is_public, COALESCE(local_path, ''), created_at`

// GetFile looks up a catalog row by ID regardless of owner.
func (d *DB) GetFile(ctx context.Context, id int64) (*File, bool, error) {
	return scanFile(d.sql.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id=?`, id))
}

// GetFileForUser looks up a catalog row by ID that belongs to userID.
func (d *DB) GetFileForUser(ctx context.Context, id, userID int64) (*File, bool, error) {
	return scanFile(d.sql.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id=? AND user_id=?`, id, userID))
}

// ListFiles returns a page of a user's catalog rows in insertion order.
func (d *DB) ListFiles(ctx context.Context, f FileFilter) ([]File, error) {
	if f.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	q := `SELECT ` + fileColumns + ` FROM files WHERE user_id=?`
	args := []any{f.UserID}
	if f.ParentID != nil {
		q += ` AND parent_id=?`
		args = append(args, *f.ParentID)
	}
	q += ` ORDER BY id ASC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []File{}
	for rows.Next() {
		var r File
		var public int
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Type, &r.ParentID, &public, &r.LocalPath, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.IsPublic = public != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetFilePublic updates the visibility flag of a row.
func (d *DB) SetFilePublic(ctx context.Context, id int64, public bool) error {
	if id <= 0 {
		return errors.New("invalid file id")
	}
	_, err := d.sql.ExecContext(ctx, `UPDATE files SET is_public=? WHERE id=?`, boolToInt(public), id)
	return err
}

// CountFiles returns the number of catalog rows.
func (d *DB) CountFiles(ctx context.Context) (int64, error) {
	var n int64
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n)
	return n, err
}

func scanFile(row *sql.Row) (*File, bool, error) {
	var f File
	var public int
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Type, &f.ParentID, &public, &f.LocalPath, &f.CreatedAt)
	if err == nil {
		f.IsPublic = public != 0
		return &f, true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	return nil, false, err
}

// boolToInt maps booleans to SQLite-friendly integer flags.
func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
