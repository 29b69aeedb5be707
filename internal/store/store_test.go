package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emili/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "data", "emili.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestAppendAndListInOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, models.ChatRecord{ID: "u1", Role: models.RoleUser, Content: "hi", ElapsedMS: 1200, CreatedAt: at}))
	require.NoError(t, s.Append(ctx, models.ChatRecord{Role: models.RoleAssistant, Content: "hello", ElapsedMS: 2500}))

	got, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.ChatRecord{ID: "u1", Role: models.RoleUser, Content: "hi", ElapsedMS: 1200, CreatedAt: at}, got[0])
	assert.Equal(t, models.RoleAssistant, got[1].Role)
	assert.NotEmpty(t, got[1].ID)
	assert.False(t, got[1].CreatedAt.IsZero())
}

func TestListLimitKeepsMostRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Append(ctx, models.ChatRecord{Role: models.RoleUser, Content: text}))
	}

	got, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Content)
	assert.Equal(t, "d", got[1].Content)
}

func TestAppendDuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := models.ChatRecord{ID: "same", Role: models.RoleUser, Content: "x"}
	require.NoError(t, s.Append(ctx, rec))
	assert.Error(t, s.Append(ctx, rec))
}
