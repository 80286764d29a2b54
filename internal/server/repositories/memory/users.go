// Package memory provides in-process repositories with the same atomicity
// contract as the PostgreSQL ones. They back the "memory://" DSN and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
)

// UsersRepository keys users by email under a single mutex, which plays the
// role of the unique index: find-or-create is one critical section.
type UsersRepository struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{byEmail: make(map[string]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (r *UsersRepository) FindOrCreate(ctx context.Context, user *models.User) (*models.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byEmail[user.Email]; ok {
		at := user.CreatedAt
		existing.LastLogin = &at
		existing.UpdatedAt = at
		return cloneUser(existing), false, nil
	}

	stored := cloneUser(user)
	at := user.CreatedAt
	stored.UpdatedAt = at
	stored.LastLogin = &at
	r.byEmail[user.Email] = stored
	return cloneUser(stored), true, nil
}

func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []*models.User
	for _, u := range r.byEmail {
		if u.Username == username {
			matches = append(matches, u)
		}
	}
	if len(matches) == 0 {
		return nil, common.ErrorNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return cloneUser(matches[0]), nil
}

func (r *UsersRepository) TouchDisplayName(ctx context.Context, email, displayName string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	if u.DisplayName == "" {
		u.DisplayName = displayName
	}
	u.UpdatedAt = at
	return nil
}

func (r *UsersRepository) Upsert(ctx context.Context, defaults *models.User, patch models.UserPatch) (*models.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.byEmail[defaults.Email]
	if !exists {
		u = cloneUser(defaults)
		u.CreatedAt = defaults.UpdatedAt
		r.byEmail[defaults.Email] = u
	}
	if exists && patch.Username != nil {
		u.Username = *patch.Username
	}
	if exists && patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	if patch.Image != nil {
		img := *patch.Image
		u.Image = &img
	}
	u.UpdatedAt = defaults.UpdatedAt
	return cloneUser(u), !exists, nil
}

func (r *UsersRepository) InsertIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return false, nil
	}
	stored := cloneUser(user)
	stored.UpdatedAt = user.CreatedAt
	r.byEmail[user.Email] = stored
	return true, nil
}

// Len reports how many users are stored.
func (r *UsersRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail)
}
