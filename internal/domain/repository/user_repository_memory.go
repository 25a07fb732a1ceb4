package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/model"

	"github.com/alphadose/haxmap"
)

type memoryUserRepository struct {
	mu         sync.Mutex
	byID       *haxmap.Map[string, *model.User]
	byUsername *haxmap.Map[string, string]
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:       haxmap.New[string, *model.User](),
		byUsername: haxmap.New[string, string](),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername.Get(user.Username); taken {
		return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
	}
	if _, taken := r.byID.Get(user.ID); taken {
		return fmt.Errorf("user with given id already exists: %w", common.ErrConflict)
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.byID.Set(user.ID, cloneUser(user))
	r.byUsername.Set(user.Username, user.ID)
	return nil
}

func (r *memoryUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	id, ok := r.byUsername.Get(username)
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	user, ok := r.byID.Get(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepository) GetMotto(_ context.Context, ownerID string) ([]byte, error) {
	user, ok := r.byID.Get(ownerID)
	if !ok {
		return nil, fmt.Errorf("owner %s: %w", ownerID, common.ErrNotFound)
	}
	return append([]byte(nil), user.Motto...), nil
}

func (r *memoryUserRepository) SetMotto(_ context.Context, ownerID string, ciphertext []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID.Get(ownerID)
	if !ok {
		return fmt.Errorf("owner %s: %w", ownerID, common.ErrNotFound)
	}
	next := cloneUser(user)
	next.Motto = append([]byte(nil), ciphertext...)
	next.UpdatedAt = time.Now().UTC()
	r.byID.Set(ownerID, next)
	return nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.Motto != nil {
		c.Motto = append([]byte(nil), u.Motto...)
	}
	return &c
}
