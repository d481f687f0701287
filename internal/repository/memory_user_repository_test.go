package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/course-auth-service/internal/domain"
)

func newUser(email string) *domain.User {
	return &domain.User{Name: "Ana", Email: email, PasswordHash: "hash", Role: domain.RoleStudent}
}

func TestMemoryUserRepository_CreateAndFind(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := newUser("ana@x.com")
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)

	byEmail, err := repo.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", byID.Email)

	_, err = repo.FindByEmail(ctx, "ANA@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newUser("ana@x.com")))

	found, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	found.Role = domain.RoleAdmin

	again, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, again.Role)
}

func TestMemoryUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("ana@x.com")))
	err := repo.Create(ctx, newUser("ana@x.com"))

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryUserRepository_ConcurrentDuplicateCreates(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.Create(ctx, newUser("race@x.com"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrEmailTaken):
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryUserRepository_Update(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	repo.now = func() time.Time { return clock }

	require.NoError(t, repo.Create(ctx, newUser("ana@x.com")))
	require.NoError(t, repo.Create(ctx, newUser("bia@x.com")))

	clock = base.Add(time.Minute)
	role := domain.RoleInstructor
	name := "Ana Maria"
	updated, err := repo.Update(ctx, 1, domain.UserUpdate{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, domain.RoleInstructor, updated.Role)
	assert.Equal(t, "ana@x.com", updated.Email)
	assert.Equal(t, clock, updated.UpdatedAt)
	assert.Equal(t, base, updated.CreatedAt)

	clock = base
	again, err := repo.Update(ctx, 1, domain.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Minute), again.UpdatedAt, "updated_at must not move backwards")

	taken := "bia@x.com"
	_, err = repo.Update(ctx, 1, domain.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	moved := "ana.maria@x.com"
	_, err = repo.Update(ctx, 1, domain.UserUpdate{Email: &moved})
	require.NoError(t, err)
	_, err = repo.FindByEmail(ctx, "ana@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	found, err := repo.FindByEmail(ctx, moved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.ID)

	_, err = repo.Update(ctx, 404, domain.UserUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryUserRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Create(ctx, newUser("ana@x.com"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, repo.Len())
}

func TestMemoryUserRepository_Delete(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newUser(fmt.Sprintf("u%d@x.com", i))))
	}

	assert.True(t, repo.Delete(2))
	assert.False(t, repo.Delete(2))
	_, err := repo.FindByEmail(ctx, "u1@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 2, repo.Len())
}
