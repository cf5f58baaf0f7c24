package repositories

import (
	"context"
	"time"
)

// SessionRevocationStore remembers session IDs that were logged out before
// their token expired.
type SessionRevocationStore interface {
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
