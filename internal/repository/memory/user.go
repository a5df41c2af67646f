package memory

import (
	"context"
	"time"

	"despensa/internal/domain"
	"despensa/internal/repository"

	"github.com/google/uuid"
)

type userRepo struct {
	store *Store
}

// Users returns a UserRepository backed by the store
func (s *Store) Users() repository.UserRepository {
	return &userRepo{store: s}
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Email == user.Email && !existing.IsDeleted {
			return repository.ErrUserAlreadyExists
		}
	}

	stored := *user
	r.store.users[user.ID] = &stored
	return nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if user.Email == email && !user.IsDeleted {
			found := *user
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok || user.IsDeleted {
		return nil, repository.ErrUserNotFound
	}
	found := *user
	return &found, nil
}

type refreshTokenRepo struct {
	store *Store
}

// RefreshTokens returns a RefreshTokenRepository backed by the store
func (s *Store) RefreshTokens() repository.RefreshTokenRepository {
	return &refreshTokenRepo{store: s}
}

func (r *refreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := *token
	r.store.refreshTokens[token.Token] = &stored
	return nil
}

func (r *refreshTokenRepo) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.refreshTokens[token]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if stored.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	found := *stored
	return &found, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, token string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.refreshTokens[token]
	if !ok {
		return repository.ErrRefreshTokenNotFound
	}
	stored.Revoked = true
	return nil
}

func (r *refreshTokenRepo) DeleteExpired(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for key, stored := range r.store.refreshTokens {
		if stored.ExpiresAt.Before(before) {
			delete(r.store.refreshTokens, key)
		}
	}
	return nil
}
