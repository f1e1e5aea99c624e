// Package thumbnail derives fixed-width image variants in the background.
//
// Uploads hand a Job to a Producer, which forwards it to a durable Queue
// without blocking the request. A Worker consumes the Queue independently and
// writes one derived blob per width next to the original.
package thumbnail

import "errors"

var (
	ErrMissingOwner  = errors.New("missing userId")
	ErrMissingFile   = errors.New("missing fileId")
	ErrEntryNotFound = errors.New("file not found")
	ErrBadPayload    = errors.New("malformed job payload")
)

// Widths are the derived sizes, largest first.
var Widths = []int{500, 250, 100}

// Job asks for the variants of one catalog entry.
type Job struct {
	UserID int64 `json:"userId"`
	FileID int64 `json:"fileId"`
}

// Validate reports the first missing field.
func (j Job) Validate() error {
	if j.UserID <= 0 {
		return ErrMissingOwner
	}
	if j.FileID <= 0 {
		return ErrMissingFile
	}
	return nil
}
