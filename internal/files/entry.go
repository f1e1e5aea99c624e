// Package files is the metadata catalog of folders, files and images.
//
// Entries live in SQLite; file and image content lives in the blob store
// and is referenced by path. Every read goes through the access package.
package files

import (
	"encoding/json"
	"strconv"
	"strings"

	"filesmanager/internal/db"
)

// RootID is the parent id of top-level entries.
const RootID int64 = 0

// PageSize is the fixed number of entries returned by List.
const PageSize = 20

type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
	KindImage  Kind = "image"
)

// ParseKind returns the kind named by s.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindFolder, KindFile, KindImage:
		return k, true
	}
	return "", false
}

// Entry is the client-facing projection of a catalog row. It never carries
// the blob path.
type Entry struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"userId"`
	Name     string `json:"name"`
	Type     Kind   `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID int64  `json:"parentId"`
}

func project(f *db.File) Entry {
	return Entry{
		ID:       f.ID,
		UserID:   f.UserID,
		Name:     f.Name,
		Type:     Kind(f.Type),
		IsPublic: f.IsPublic,
		ParentID: f.ParentID,
	}
}

// FlexID decodes an id sent either as a JSON number or a numeric string.
// null, "" and an absent field all mean RootID. Unparseable input sets
// Invalid so the service can reject it as an unknown parent.
type FlexID struct {
	ID      int64
	Invalid bool
}

func (f *FlexID) UnmarshalJSON(b []byte) error {
	*f = FlexID{}
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		f.Invalid = true
		return nil
	}
	f.ID = id
	return nil
}
