package db

// User is a stored account. Password holds the digest, never plaintext.
type User struct {
	ID        int64
	Email     string
	Password  string
	CreatedAt int64
}

// File is a catalog row. LocalPath is empty for folders.
type File struct {
	ID        int64
	UserID    int64
	Name      string
	Type      string
	ParentID  int64
	IsPublic  bool
	LocalPath string
	CreatedAt int64
}

// FileFilter narrows ListFiles. A nil ParentID lists every parent.
type FileFilter struct {
	UserID   int64
	ParentID *int64
	Limit    int
	Offset   int
}
