package models

import (
	"errors"
	"fmt"
)

var (
	// credential store
	ErrDuplicateEmail = errors.New("email already registered")
	ErrWeakPassword   = errors.New("password must be at least 6 characters")
	ErrUserNotFound   = errors.New("user not found")
	ErrWrongPassword  = errors.New("wrong password")

	// sessions
	ErrInvalidSession = errors.New("invalid or expired session")

	// uploads
	ErrNoFileProvided = errors.New("no file uploaded")
	// ErrNoFileSelected is the empty-filename case of ErrNoFileProvided.
	ErrNoFileSelected    = fmt.Errorf("no file selected: %w", ErrNoFileProvided)
	ErrUnsupportedFormat = errors.New("only CSV files are allowed")
)
