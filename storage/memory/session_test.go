package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverbot/pkg/models"
	"driverbot/storage"
)

func TestSessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, &models.Session{TelegramID: 1, State: "awaiting_phone"}))

	s, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "awaiting_phone", s.State)

	s.State = "idle"
	again, _ := repo.Get(ctx, 1)
	assert.Equal(t, "awaiting_phone", again.State, "unsaved edits do not leak into the store")

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}
