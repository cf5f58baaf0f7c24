package repositories_test

import (
	"context"
	"testing"

	"csvinsight/internal/config"
	"csvinsight/internal/database"
	"csvinsight/internal/models"
	"csvinsight/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserRepo(t *testing.T) *repositories.GORMUserRepository {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return repositories.NewGORMUserRepository(db)
}

func TestGORMUserRepository_CreateAndGet(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	user := &models.User{Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.Equal(t, "ada@example.com", byEmail.Email)
}

func TestGORMUserRepository_AssignsIncreasingIDs(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	first := &models.User{Email: "one@example.com", PasswordHash: "h"}
	second := &models.User{Email: "two@example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Greater(t, second.ID, first.ID)
}

func TestGORMUserRepository_DuplicateEmail(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Email: "dup@example.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &models.User{Email: "dup@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestGORMUserRepository_NotFound(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
