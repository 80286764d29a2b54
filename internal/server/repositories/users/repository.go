// Package users persists resolved identities. Email is the unique key and
// every write that may race on it is a single conditional statement.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/server/models"
)

type Repository interface {
	// FindOrCreate inserts user unless a row with the same email exists, in
	// which case only LastLogin/UpdatedAt are bumped. created reports which
	// branch ran. The stored row is returned either way.
	FindOrCreate(ctx context.Context, user *models.User) (stored *models.User, created bool, err error)

	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByUsername returns the oldest user holding username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// TouchDisplayName fills an empty display name and bumps UpdatedAt.
	// A non-empty display name is never overwritten.
	TouchDisplayName(ctx context.Context, email, displayName string, at time.Time) error

	// Upsert applies an administrative patch, creating the user from
	// defaults when the email is unknown.
	Upsert(ctx context.Context, defaults *models.User, patch models.UserPatch) (stored *models.User, created bool, err error)

	// InsertIfAbsent inserts user only when its email is unknown.
	InsertIfAbsent(ctx context.Context, user *models.User) (bool, error)
}
