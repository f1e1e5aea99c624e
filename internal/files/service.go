package files

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"filesmanager/internal/access"
	"filesmanager/internal/blobstore"
	"filesmanager/internal/db"
	"filesmanager/internal/logging"
	"filesmanager/internal/thumbnail"
	"filesmanager/internal/validate"
)

// Catalog is the persistence the service needs.
type Catalog interface {
	InsertFile(ctx context.Context, f *db.File) (int64, error)
	GetFile(ctx context.Context, id int64) (*db.File, bool, error)
	ListFiles(ctx context.Context, f db.FileFilter) ([]db.File, error)
	SetFilePublic(ctx context.Context, id int64, public bool) error
}

// Blobs is the content storage the service needs.
type Blobs interface {
	Write(ctx context.Context, data []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, path string) error
}

// Enqueuer accepts thumbnail jobs without blocking.
type Enqueuer interface {
	Enqueue(j thumbnail.Job)
}

type Service struct {
	catalog Catalog
	blobs   Blobs
	jobs    Enqueuer
	log     *slog.Logger
}

func NewService(catalog Catalog, blobs Blobs, jobs Enqueuer, lg *slog.Logger) *Service {
	if lg == nil {
		lg = logging.Discard()
	}
	return &Service{catalog: catalog, blobs: blobs, jobs: jobs, log: lg}
}

// CreateRequest is the decoded upload body.
type CreateRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID FlexID `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data"`
}

// Create validates and stores a new entry for owner. Content is written to
// the blob store before the row is inserted, so a failed write never leaves
// a row pointing at nothing.
func (s *Service) Create(ctx context.Context, owner int64, req CreateRequest) (Entry, error) {
	if req.Name == "" {
		return Entry{}, missing("Missing name")
	}
	if err := validate.EntryName(req.Name); err != nil {
		return Entry{}, missing("Invalid name")
	}
	kind, ok := ParseKind(req.Type)
	if !ok {
		return Entry{}, missing("Missing type")
	}
	var content []byte
	if kind != KindFolder {
		if req.Data == "" {
			return Entry{}, missing("Missing data")
		}
		b, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return Entry{}, missing("Missing data")
		}
		content = b
	}
	if req.ParentID.Invalid {
		return Entry{}, badParent("Parent not found")
	}
	if req.ParentID.ID != RootID {
		parent, ok, err := s.catalog.GetFile(ctx, req.ParentID.ID)
		if err != nil {
			return Entry{}, fmt.Errorf("lookup parent: %w", err)
		}
		if !ok {
			return Entry{}, badParent("Parent not found")
		}
		if parent.Type != string(KindFolder) {
			return Entry{}, badParent("Parent is not a folder")
		}
	}

	row := &db.File{
		UserID:   owner,
		Name:     req.Name,
		Type:     string(kind),
		ParentID: req.ParentID.ID,
		IsPublic: req.IsPublic,
	}
	if kind != KindFolder {
		p, err := s.blobs.Write(ctx, content)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrStorageWrite, err)
		}
		row.LocalPath = p
	}
	// Only a crash between the blob write and this insert leaves an orphan.
	if _, err := s.catalog.InsertFile(ctx, row); err != nil {
		if row.LocalPath != "" {
			if rerr := s.blobs.Remove(context.WithoutCancel(ctx), row.LocalPath); rerr != nil {
				s.log.Warn("remove orphan blob", "path", row.LocalPath, "err", rerr)
			}
		}
		return Entry{}, fmt.Errorf("insert file: %w", err)
	}
	if kind == KindImage && s.jobs != nil {
		s.jobs.Enqueue(thumbnail.Job{UserID: owner, FileID: row.ID})
	}
	s.log.Info("entry created", "id", row.ID, "user_id", owner, "type", row.Type, "parent_id", row.ParentID)
	return project(row), nil
}

// Get returns an entry the requester may read.
func (s *Service) Get(ctx context.Context, id, requester int64) (Entry, error) {
	f, err := s.readable(ctx, id, requester)
	if err != nil {
		return Entry{}, err
	}
	return project(f), nil
}

// ListFilter narrows List. A nil ParentID lists all of the owner's entries.
type ListFilter struct {
	ParentID *int64
	Page     int
}

// List returns one page of owner's entries in insertion order.
func (s *Service) List(ctx context.Context, owner int64, f ListFilter) ([]Entry, error) {
	page := f.Page
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt/PageSize {
		return []Entry{}, nil
	}
	rows, err := s.catalog.ListFiles(ctx, db.FileFilter{
		UserID:   owner,
		ParentID: f.ParentID,
		Limit:    PageSize,
		Offset:   page * PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for i := range rows {
		out = append(out, project(&rows[i]))
	}
	return out, nil
}

// SetVisibility stores the requested flag on an entry owned by requester
// and returns the stored result. The row is written only when the flag
// actually changes.
func (s *Service) SetVisibility(ctx context.Context, id, requester int64, public bool) (Entry, error) {
	f, ok, err := s.catalog.GetFile(ctx, id)
	if err != nil {
		return Entry{}, fmt.Errorf("lookup file: %w", err)
	}
	if !ok || !access.CanMutate(f.UserID, requester) {
		return Entry{}, ErrNotFound
	}
	if f.IsPublic != public {
		if err := s.catalog.SetFilePublic(ctx, id, public); err != nil {
			return Entry{}, fmt.Errorf("update visibility: %w", err)
		}
		f.IsPublic = public
	}
	return project(f), nil
}

// Content is a blob ready to be served.
type Content struct {
	Data        []byte
	ContentType string
}

// ReadContent returns the bytes of an entry, or of one of its thumbnails
// when size names a known width. Other size values are ignored. Denied reads
// report ErrNotFound so private entries are not revealed.
func (s *Service) ReadContent(ctx context.Context, id, requester int64, size string) (Content, error) {
	f, err := s.readable(ctx, id, requester)
	if err != nil {
		return Content{}, err
	}
	if f.Type == string(KindFolder) {
		return Content{}, ErrInvalidOperation
	}
	p := f.LocalPath
	if isThumbnailSize(size) {
		p = blobstore.VariantPath(p, size)
	}
	b, err := s.blobs.Read(ctx, p)
	if errors.Is(err, blobstore.ErrNotFound) {
		return Content{}, ErrNotFound
	}
	if err != nil {
		return Content{}, fmt.Errorf("read blob: %w", err)
	}
	return Content{Data: b, ContentType: ContentType(f.Name)}, nil
}

func isThumbnailSize(size string) bool {
	for _, w := range thumbnail.Widths {
		if strconv.Itoa(w) == size {
			return true
		}
	}
	return false
}

func (s *Service) readable(ctx context.Context, id, requester int64) (*db.File, error) {
	f, ok, err := s.catalog.GetFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup file: %w", err)
	}
	if !ok || !access.CanRead(f.UserID, f.IsPublic, requester) {
		return nil, ErrNotFound
	}
	return f, nil
}

// textTypes fills gaps in minimal mime.types installations.
var textTypes = map[string]string{
	".txt": "text/plain; charset=utf-8",
	".md":  "text/markdown; charset=utf-8",
	".csv": "text/csv; charset=utf-8",
}

// ContentType guesses a MIME type from the entry name's extension.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if t, ok := textTypes[ext]; ok {
		return t
	}
	return "application/octet-stream"
}
