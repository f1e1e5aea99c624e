package files

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"filesmanager/internal/blobstore"
	"filesmanager/internal/db"
	"filesmanager/internal/thumbnail"
	"github.com/spf13/afero"
)

type recordingJobs struct {
	mu   sync.Mutex
	jobs []thumbnail.Job
}

func (r *recordingJobs) Enqueue(j thumbnail.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, j)
}

type failingBlobs struct{ *blobstore.Store }

func (failingBlobs) Write(context.Context, []byte) (string, error) {
	return "", blobstore.ErrWriteFailed
}

// brokenCatalog accepts lookups but refuses every insert.
type brokenCatalog struct{ *db.DB }

func (brokenCatalog) InsertFile(context.Context, *db.File) (int64, error) {
	return 0, errors.New("disk I/O error")
}

// trackedBlobs remembers the paths it handed out.
type trackedBlobs struct {
	*blobstore.Store
	written []string
}

func (b *trackedBlobs) Write(ctx context.Context, data []byte) (string, error) {
	p, err := b.Store.Write(ctx, data)
	if err == nil {
		b.written = append(b.written, p)
	}
	return p, err
}

type testEnv struct {
	db    *db.DB
	blobs *blobstore.Store
	jobs  *recordingJobs
	svc   *Service
	alice int64
	bob   int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	d, err := db.Open(ctx, t.TempDir()+"/files.db")
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	blobs, err := blobstore.NewWithFs(afero.NewMemMapFs(), "/tmp/files_manager")
	if err != nil {
		t.Fatalf("blobstore: %v", err)
	}
	alice, err := d.CreateUser(ctx, "alice@example.com", "x")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bob, err := d.CreateUser(ctx, "bob@example.com", "x")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	jobs := &recordingJobs{}
	return &testEnv{db: d, blobs: blobs, jobs: jobs, svc: NewService(d, blobs, jobs, nil), alice: alice, bob: bob}
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestCreateValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateRequest
		kind error
		msg  string
	}{
		{"no name", CreateRequest{Type: "file", Data: b64("x")}, ErrMissingField, "Missing name"},
		{"control char name", CreateRequest{Name: "a\x00b", Type: "folder"}, ErrMissingField, "Invalid name"},
		{"overlong name", CreateRequest{Name: strings.Repeat("n", 256), Type: "folder"}, ErrMissingField, "Invalid name"},
		{"no type", CreateRequest{Name: "a"}, ErrMissingField, "Missing type"},
		{"bad type", CreateRequest{Name: "a", Type: "link"}, ErrMissingField, "Missing type"},
		{"no data", CreateRequest{Name: "a", Type: "file"}, ErrMissingField, "Missing data"},
		{"bad base64", CreateRequest{Name: "a", Type: "file", Data: "%%%"}, ErrMissingField, "Missing data"},
		{"unknown parent", CreateRequest{Name: "a", Type: "folder", ParentID: FlexID{ID: 99}}, ErrInvalidParent, "Parent not found"},
		{"garbage parent", CreateRequest{Name: "a", Type: "folder", ParentID: FlexID{Invalid: true}}, ErrInvalidParent, "Parent not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, env.alice, tc.req)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Msg != tc.msg {
				t.Fatalf("expected message %q, got %v", tc.msg, err)
			}
		})
	}
}

func TestCreateFolderFileAndImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dir, err := env.svc.Create(ctx, env.alice, CreateRequest{Name: "images", Type: "folder"})
	if err != nil {
		t.Fatalf("Create folder: %v", err)
	}
	if dir.ParentID != RootID || dir.Type != KindFolder || dir.IsPublic {
		t.Fatalf("unexpected folder: %+v", dir)
	}
	row, _, _ := env.db.GetFile(ctx, dir.ID)
	if row.LocalPath != "" {
		t.Fatalf("folder must not have a blob, got %q", row.LocalPath)
	}

	f, err := env.svc.Create(ctx, env.alice, CreateRequest{Name: "hello.txt", Type: "file", Data: b64("Hello"), ParentID: FlexID{ID: dir.ID}})
	if err != nil {
		t.Fatalf("Create file: %v", err)
	}
	row, _, _ = env.db.GetFile(ctx, f.ID)
	got, err := env.blobs.Read(ctx, row.LocalPath)
	if err != nil || string(got) != "Hello" {
		t.Fatalf("blob: %q err=%v", got, err)
	}

	if _, err := env.svc.Create(ctx, env.alice, CreateRequest{Name: "x", Type: "file", Data: b64("x"), ParentID: FlexID{ID: f.ID}}); err == nil || err.Error() != "Parent is not a folder" {
		t.Fatalf("expected non-folder parent rejection, got %v", err)
	}

	img, err := env.svc.Create(ctx, env.alice, CreateRequest{Name: "a.png", Type: "image", Data: b64("png"), IsPublic: true})
	if err != nil {
		t.Fatalf("Create image: %v", err)
	}
	if len(env.jobs.jobs) != 1 || env.jobs.jobs[0] != (thumbnail.Job{UserID: env.alice, FileID: img.ID}) {
		t.Fatalf("expected one thumbnail job, got %+v", env.jobs.jobs)
	}
}

func TestCreateStorageFailureLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewService(env.db, failingBlobs{env.blobs}, env.jobs, nil)

	if _, err := svc.Create(ctx, env.alice, CreateRequest{Name: "a", Type: "file", Data: b64("x")}); !errors.Is(err, ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
	if n, _ := env.db.CountFiles(ctx); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

// TestCreateInsertFailureRemovesBlob cleans up the blob when the row cannot
// be stored.
func TestCreateInsertFailureRemovesBlob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	blobs := &trackedBlobs{Store: env.blobs}
	svc := NewService(brokenCatalog{env.db}, blobs, env.jobs, nil)

	_, err := svc.Create(ctx, env.alice, CreateRequest{Name: "a.png", Type: "image", Data: b64("x")})
	if err == nil || !strings.Contains(err.Error(), "insert file") {
		t.Fatalf("expected insert error, got %v", err)
	}
	if len(blobs.written) != 1 {
		t.Fatalf("expected one blob write, got %d", len(blobs.written))
	}
	if env.blobs.Exists(ctx, blobs.written[0]) {
		t.Fatalf("blob %s left behind", blobs.written[0])
	}
	if len(env.jobs.jobs) != 0 {
		t.Fatalf("unexpected jobs: %+v", env.jobs.jobs)
	}
}

func TestFlexIDDecoding(t *testing.T) {
	cases := map[string]FlexID{
		`{}`:                    {},
		`{"parentId":null}`:     {},
		`{"parentId":""}`:       {},
		`{"parentId":0}`:        {},
		`{"parentId":"0"}`:      {},
		`{"parentId":12}`:       {ID: 12},
		`{"parentId":"12"}`:     {ID: 12},
		`{"parentId":"zz"}`:     {Invalid: true},
		`{"parentId":-3}`:       {Invalid: true},
		`{"parentId":1.5}`:      {Invalid: true},
		`{"parentId":"5f1e8a"}`: {Invalid: true},
	}
	for body, want := range cases {
		var req CreateRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if req.ParentID != want {
			t.Fatalf("%s: got %+v want %+v", body, req.ParentID, want)
		}
	}
}

func TestGetHonoursVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	priv, _ := env.svc.Create(ctx, env.alice, CreateRequest{Name: "p", Type: "folder"})
	pub, _ := env.svc.Create(ctx, env.alice, CreateRequest{Name: "q", Type: "folder", IsPublic: true})

	if _, err := env.svc.Get(ctx, priv.ID, env.alice); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := env.svc.Get(ctx, priv.ID, env.bob); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if _, err := env.svc.Get(ctx, pub.ID, env.bob); err != nil {
		t.Fatalf("public Get: %v", err)
	}
	if _, err := env.svc.Get(ctx, 999, env.alice); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPagesAndFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir, _ := env.svc.Create(ctx, env.alice, CreateRequest{Name: "d", Type: "folder"})
	for i := 0; i < 25; i++ {
		if _, err := env.svc.Create(ctx, env.alice, CreateRequest{Name: fmt.Sprintf("f%d", i), Type: "file", Data: b64("x"), ParentID: FlexID{ID: dir.ID}}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	_, _ = env.svc.Create(ctx, env.bob, CreateRequest{Name: "other", Type: "folder"})

	parent := dir.ID
	first, err := env.svc.List(ctx, env.alice, ListFilter{ParentID: &parent})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	second, _ := env.svc.List(ctx, env.alice, ListFilter{ParentID: &parent, Page: 1})
	if len(first) != PageSize || len(second) != 5 {
		t.Fatalf("pages: %d and %d", len(first), len(second))
	}
	if first[0].Name != "f0" || second[4].Name != "f24" {
		t.Fatalf("unexpected order: %s .. %s", first[0].Name, second[4].Name)
	}

	root := RootID
	top, _ := env.svc.List(ctx, env.alice, ListFilter{ParentID: &root})
	if len(top) != 1 || top[0].ID != dir.ID {
		t.Fatalf("root listing: %+v", top)
	}
	all, _ := env.svc.List(ctx, env.alice, ListFilter{Page: 1})
	if len(all) != 6 {
		t.Fatalf("unfiltered second page: %d", len(all))
	}
	empty, err := env.svc.List(ctx, env.alice, ListFilter{ParentID: &parent, Page: 9})
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil page, got %v err=%v", empty, err)
	}
	for _, p := range []int{math.MaxInt / PageSize, math.MaxInt/PageSize + 1, math.MaxInt} {
		far, err := env.svc.List(ctx, env.alice, ListFilter{Page: p})
		if err != nil || far == nil || len(far) != 0 {
			t.Fatalf("page %d: got %d entries err=%v", p, len(far), err)
		}
	}
}

func TestSetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f, _ := env.svc.Create(ctx, env.alice, CreateRequest{Name: "a", Type: "folder"})

	e, err := env.svc.SetVisibility(ctx, f.ID, env.alice, true)
	if err != nil || !e.IsPublic {
		t.Fatalf("publish: %+v err=%v", e, err)
	}
	e, err = env.svc.SetVisibility(ctx, f.ID, env.alice, true)
	if err != nil || !e.IsPublic {
		t.Fatalf("publish twice: %+v err=%v", e, err)
	}
	e, err = env.svc.SetVisibility(ctx, f.ID, env.alice, false)
	if err != nil || e.IsPublic {
		t.Fatalf("unpublish: %+v err=%v", e, err)
	}
	if _, err := env.svc.SetVisibility(ctx, f.ID, env.bob, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
	row, _, _ := env.db.GetFile(ctx, f.ID)
	if row.IsPublic {
		t.Fatalf("non-owner changed visibility")
	}
}

func TestReadContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir, _ := env.svc.Create(ctx, env.alice, CreateRequest{Name: "d", Type: "folder", IsPublic: true})
	txt, _ := env.svc.Create(ctx, env.alice, CreateRequest{Name: "hello.txt", Type: "file", Data: b64("Hello")})
	img, _ := env.svc.Create(ctx, env.alice, CreateRequest{Name: "a.png", Type: "image", Data: b64("orig"), IsPublic: true})

	c, err := env.svc.ReadContent(ctx, txt.ID, env.alice, "")
	if err != nil || string(c.Data) != "Hello" {
		t.Fatalf("read: %+v err=%v", c, err)
	}
	if _, err := env.svc.ReadContent(ctx, txt.ID, env.bob, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for private entry, got %v", err)
	}
	if _, err := env.svc.ReadContent(ctx, txt.ID, 0, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for anonymous, got %v", err)
	}
	if _, err := env.svc.ReadContent(ctx, dir.ID, env.alice, ""); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}

	if _, err := env.svc.ReadContent(ctx, img.ID, 0, "250"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected missing variant to be ErrNotFound, got %v", err)
	}
	row, _, _ := env.db.GetFile(ctx, img.ID)
	if err := env.blobs.Put(ctx, blobstore.VariantPath(row.LocalPath, "250"), []byte("thumb")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	c, err = env.svc.ReadContent(ctx, img.ID, 0, "250")
	if err != nil || string(c.Data) != "thumb" || c.ContentType != "image/png" {
		t.Fatalf("variant: %+v err=%v", c, err)
	}
	c, err = env.svc.ReadContent(ctx, img.ID, env.bob, "42")
	if err != nil || string(c.Data) != "orig" {
		t.Fatalf("unknown size should serve original: %+v err=%v", c, err)
	}
}

func TestParseID(t *testing.T) {
	for _, s := range []string{"", "abc", "-1", "1.5"} {
		if _, err := ParseID(s); err == nil {
			t.Fatalf("ParseID(%q) should fail", s)
		}
	}
	if id, err := ParseID("42"); err != nil || id != 42 {
		t.Fatalf("ParseID: %d %v", id, err)
	}
}
