package storage

import "errors"

// Errors returned by Table operations. Callers match them with errors.Is.
var (
	ErrArity        = errors.New("value count does not match field count")
	ErrTypeMismatch = errors.New("value type does not match field type")
	ErrDuplicateKey = errors.New("duplicate primary key")
	ErrRowNotFound  = errors.New("row not found")
	ErrNoSchema     = errors.New("table has no schema")
	ErrNoSuchColumn = errors.New("no such column")
	ErrBadMagic     = errors.New("not a table file")
	ErrBadVersion   = errors.New("unsupported table file version")
	ErrCorrupt      = errors.New("corrupt table file")
	ErrBadExtension = errors.New("table files must use the " + Extension + " extension")
	ErrInvariant    = errors.New("table invariant violated")
)
