package repository

import "errors"

// ErrDuplicate is returned by Create methods when a unique constraint rejects the row.
var ErrDuplicate = errors.New("duplicate record")
