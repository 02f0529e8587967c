package services

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/cache"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// UserDirectory resolves user summaries, going through the cache when one is configured.
type UserDirectory struct {
	cache *cache.UserCache
}

// NewUserDirectory creates a UserDirectory. c may be nil.
func NewUserDirectory(c *cache.UserCache) *UserDirectory {
	return &UserDirectory{cache: c}
}

// Summaries returns the summaries of the users in ids that still exist.
func (d *UserDirectory) Summaries(ctx context.Context, store repositories.Store, ids []uint) (map[uint]models.UserCompact, error) {
	out := make(map[uint]models.UserCompact, len(ids))
	var missing []uint
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if d.cache != nil {
			if u, ok := d.cache.Get(id); ok {
				out[id] = u
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	users, err := store.Users().GetUsersByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i := range users {
		u := users[i].ToCompact()
		out[u.ID] = u
		if d.cache != nil {
			d.cache.Set(u)
		}
	}
	return out, nil
}

// Forget drops a cached summary.
func (d *UserDirectory) Forget(id uint) {
	if d.cache != nil {
		d.cache.Invalidate(id)
	}
}

// activeUser loads a user that exists and is active. Inactive accounts are reported as
// absent.
func activeUser(ctx context.Context, store repositories.Store, id uint) (*models.User, error) {
	if id == 0 {
		return nil, apperrors.Validation("user id is required")
	}
	user, err := store.Users().GetUserByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !user.Active) {
		return nil, apperrors.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func compactOf(users map[uint]models.UserCompact, id uint) *models.UserCompact {
	u, ok := users[id]
	if !ok {
		return nil
	}
	return &u
}
