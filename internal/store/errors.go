package store

import "errors"

// Sentinel errors for store operations.
var (
	ErrNotFound       = errors.New("record not found")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrCourseCodeUsed = errors.New("course code already in use")
	ErrNotMember      = errors.New("not a member of this course")
	ErrForbidden      = errors.New("only teachers or the author can do this")
	ErrInvalidModules = errors.New("one or more modules are invalid for this course")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownDriver  = errors.New("unknown database driver")
	ErrOpen           = errors.New("failed to open database")
)
