package app

import "errors"

// ErrNotFound and related errors describe lookup and input failures.
var (
	ErrNotFound         = errors.New("not found")
	ErrNoArchivedResult = errors.New("no archived result for household")
)
