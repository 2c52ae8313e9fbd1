package models

import "errors"

// ErrNotFound is returned when a lookup by slug or id yields nothing.
// Handlers map it to HTTP 404, distinct from a successful empty list.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule
// (missing field, malformed coordinate, rating out of range).
// Handlers map it to HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrForbidden is returned by the ownership check when the acting user is
// not the author of the record being edited. Handlers map it to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a uniqueness constraint rejects a write,
// e.g. two concurrent creates racing for the same slug or a duplicate
// email at registration. Handlers map it to HTTP 409.
var ErrConflict = errors.New("conflict")
