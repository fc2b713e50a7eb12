package repository

import (
	"context"
	"testing"

	"anoa.com/contentscore/internal/testutil"
	"anoa.com/contentscore/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, 1)
	testutil.CreateAdmin(t, db, 2)

	user, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "admin2", user.Username)

	_, err = repo.FindByID(ctx, 3)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	names, err := repo.Usernames(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "user1", 2: "admin2"}, names)
}
