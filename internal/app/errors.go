package service

import (
	"errors"

	"github.com/okian/enso/internal/adapters/repository"
	"github.com/okian/enso/internal/domain/session"
)

// Sentinel kinds returned by the Service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrPathTooLong  = errors.New("path has too many points")
	ErrInvalidPoint = errors.New("path contains a non-finite point")
	ErrNoAttempt    = errors.New("session has no judged attempt")

	ErrSessionNotFound  = session.ErrNotFound
	ErrSessionCapacity  = session.ErrCapacity
	ErrNotOnLeaderboard = repository.ErrNotFound
	ErrInvalidLimit     = repository.ErrInvalidLimit
)
