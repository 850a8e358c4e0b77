package storage

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UserStore provides the user lookups and the single mutation the lockdown
// feature needs. General user CRUD lives outside this service.
type UserStore interface {
	Get(ctx context.Context, id uint) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Deactivate marks the user inactive and replaces its credential hash
	// in one atomic update. Returns ErrNotFound if the user does not exist.
	Deactivate(ctx context.Context, id uint, credentialHash string) error

	// Superusers returns every member of a superuser group.
	Superusers(ctx context.Context) ([]User, error)

	// IsSuperuser reports whether the user belongs to any superuser group.
	IsSuperuser(ctx context.Context, id uint) (bool, error)
}

// TenantStore exposes the currently active tenant.
type TenantStore interface {
	Active(ctx context.Context) (*Tenant, error)
}

// SessionStore manages live session records.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error

	// DeleteAllForUser removes every session bound to the user and returns
	// how many were removed. Removing zero sessions is not an error.
	DeleteAllForUser(ctx context.Context, userID uint) (int, error)
}
