package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for the room's business rules. None of them is fatal: callers decline
// to mutate state and decline to broadcast.
var (
	ErrInvalidIdentity  = errors.New("display name is empty or too long")
	ErrOversizedMessage = errors.New("message body exceeds the length limit")
	ErrEmptyMessage     = errors.New("message body is empty")
	ErrUnknownMessage   = errors.New("message not found in history")
	ErrNotFound         = errors.New("requested connection not found")
)
