package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/course-auth-service/internal/domain"
)

// MemoryUserRepository is a process-local UserRepository for development and tests.
// Uniqueness is enforced under a single lock, so concurrent duplicate creates
// produce exactly one success.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]int64
	now     func() time.Time
}

// NewMemoryUserRepository returns an empty in-memory store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrEmailTaken
	}

	r.nextID++
	now := r.now()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	return nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	next := *stored
	if update.Email != nil && *update.Email != stored.Email {
		if _, taken := r.byEmail[*update.Email]; taken {
			return nil, ErrEmailTaken
		}
		next.Email = *update.Email
	}
	if update.Name != nil {
		next.Name = *update.Name
	}
	if update.PasswordHash != nil {
		next.PasswordHash = *update.PasswordHash
	}
	if update.Role != nil {
		next.Role = *update.Role
	}
	if now := r.now(); now.After(next.UpdatedAt) {
		next.UpdatedAt = now
	}

	if next.Email != stored.Email {
		delete(r.byEmail, stored.Email)
		r.byEmail[next.Email] = id
	}
	r.byID[id] = &next

	out := next
	return &out, nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *stored
	return &out, nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

// Delete removes a user. It is not part of UserRepository; tests use it to
// simulate an account disappearing between token issuance and refresh.
func (r *MemoryUserRepository) Delete(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byEmail, stored.Email)
	delete(r.byID, id)
	return true
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
