package catalog

import "errors"

// Error classes. Every error the catalog and the media subsystem hand to
// callers wraps exactly one of them.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// Error is a classified error carrying a human-readable reason
type Error struct {
	class error
	msg   string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.class }

// Validation returns an error of class ErrValidation
func Validation(msg string) *Error {
	return &Error{class: ErrValidation, msg: msg}
}

// NotFound returns an error of class ErrNotFound
func NotFound(msg string) *Error {
	return &Error{class: ErrNotFound, msg: msg}
}

var (
	ErrCreatorNotFound      = NotFound("creator not found")
	ErrContentNotFound      = NotFound("content not found")
	ErrUserNotFound         = NotFound("user not found")
	ErrPlaylistNotFound     = NotFound("playlist not found")
	ErrPlaylistItemNotFound = NotFound("playlist item not found")
)
