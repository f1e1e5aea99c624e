package files

import (
	"errors"
	"strconv"
)

var (
	ErrMissingField     = errors.New("missing field")
	ErrInvalidParent    = errors.New("invalid parent")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrStorageWrite     = errors.New("cannot write the file")
)

// FieldError is a validation failure with the message shown to clients.
// It matches ErrMissingField or ErrInvalidParent through errors.Is.
type FieldError struct {
	Kind error
	Msg  string
}

func (e *FieldError) Error() string { return e.Msg }
func (e *FieldError) Unwrap() error { return e.Kind }

func missing(msg string) error   { return &FieldError{Kind: ErrMissingField, Msg: msg} }
func badParent(msg string) error { return &FieldError{Kind: ErrInvalidParent, Msg: msg} }

// ParseID converts a client-supplied id into a catalog id. "0" parses to
// RootID; negative and non-numeric input is rejected.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
