package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrDataPointNotFound  = errors.New("data point not found")
	ErrInvalidSessionID   = errors.New("invalid session id")
	ErrInvalidSession     = errors.New("invalid session attributes")
	ErrInvalidPatch       = errors.New("invalid data point patch")
	ErrInvalidBulkKind    = errors.New("invalid bulk item kind")
	ErrConcurrentMutation = errors.New("concurrent mutation conflict: session was modified by another writer")
)
