package session

import "errors"

var (
	// ErrNotFound is returned for unknown, ended or expired sessions.
	ErrNotFound = errors.New("session not found")
	// ErrCapacity is returned when the store is full.
	ErrCapacity = errors.New("session capacity reached")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session store closed")
)
