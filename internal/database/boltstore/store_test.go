package boltstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

func setupTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(Options{Path: dbPath})
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestLinks(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	t.Run("create and resolve", func(t *testing.T) {
		token, err := store.GetOrCreateLink(ctx, 100, "aaaa1111")
		require.NoError(t, err)
		assert.Equal(t, "aaaa1111", token)

		owner, err := store.ResolveOwner(ctx, "aaaa1111")
		require.NoError(t, err)
		assert.Equal(t, int64(100), owner)
	})

	t.Run("second call keeps the first token", func(t *testing.T) {
		first, err := store.GetOrCreateLink(ctx, 200, "bbbb2222")
		require.NoError(t, err)

		second, err := store.GetOrCreateLink(ctx, 200, "cccc3333")
		require.NoError(t, err)
		assert.Equal(t, first, second)

		// The discarded candidate must not resolve
		_, err = store.ResolveOwner(ctx, "cccc3333")
		assert.ErrorIs(t, err, moderation.ErrNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := store.ResolveOwner(ctx, "never-issued")
		assert.ErrorIs(t, err, moderation.ErrNotFound)
	})

	t.Run("token collision refused", func(t *testing.T) {
		_, err := store.GetOrCreateLink(ctx, 300, "dddd4444")
		require.NoError(t, err)

		_, err = store.GetOrCreateLink(ctx, 301, "dddd4444")
		assert.Error(t, err)

		// The colliding user did not steal the token
		owner, err := store.ResolveOwner(ctx, "dddd4444")
		require.NoError(t, err)
		assert.Equal(t, int64(300), owner)
	})
}

func TestAdmins(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	t.Run("add and check", func(t *testing.T) {
		require.NoError(t, store.AddAdmin(ctx, 1))
		assert.True(t, store.IsAdmin(ctx, 1))
		assert.False(t, store.IsAdmin(ctx, 2))
	})

	t.Run("add is idempotent", func(t *testing.T) {
		require.NoError(t, store.AddAdmin(ctx, 1))

		admins, err := store.ListAdmins(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, admins)
	})

	t.Run("last admin protected", func(t *testing.T) {
		err := store.RemoveAdmin(ctx, 99, 1)
		assert.ErrorIs(t, err, moderation.ErrLastAdmin)
		assert.True(t, store.IsAdmin(ctx, 1))
	})

	t.Run("self removal refused", func(t *testing.T) {
		require.NoError(t, store.AddAdmin(ctx, 2))

		err := store.RemoveAdmin(ctx, 1, 1)
		assert.ErrorIs(t, err, moderation.ErrSelfRemoval)
		assert.True(t, store.IsAdmin(ctx, 1))
	})

	t.Run("remove non-member", func(t *testing.T) {
		err := store.RemoveAdmin(ctx, 1, 777)
		assert.ErrorIs(t, err, moderation.ErrNotAdmin)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, store.RemoveAdmin(ctx, 1, 2))
		assert.False(t, store.IsAdmin(ctx, 2))

		admins, err := store.ListAdmins(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, admins)
	})

	t.Run("sole self removal refused", func(t *testing.T) {
		// One admin removing themselves trips a guard; which one is
		// unspecified, but the set must stay intact.
		err := store.RemoveAdmin(ctx, 1, 1)
		assert.Error(t, err)
		assert.True(t, store.IsAdmin(ctx, 1))
	})
}

func TestBans(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	t.Run("put and get", func(t *testing.T) {
		rec := moderation.BanRecord{
			UserID:   50,
			Sanction: moderation.SanctionUntil(time.Now().Add(time.Hour)),
			BannedAt: time.Now(),
			BannedBy: 1,
		}
		require.NoError(t, store.PutBan(ctx, rec))

		got, err := store.GetBan(ctx, 50)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(50), got.UserID)
		assert.Equal(t, int64(1), got.BannedBy)
		assert.False(t, got.Sanction.Permanent)
	})

	t.Run("replace semantics", func(t *testing.T) {
		require.NoError(t, store.PutBan(ctx, moderation.BanRecord{
			UserID:   50,
			Sanction: moderation.PermanentSanction(),
			BannedAt: time.Now(),
		}))

		got, err := store.GetBan(ctx, 50)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Sanction.Permanent)
	})

	t.Run("delete reports existence", func(t *testing.T) {
		deleted, err := store.DeleteBan(ctx, 50)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = store.DeleteBan(ctx, 50)
		require.NoError(t, err)
		assert.False(t, deleted)

		got, err := store.GetBan(ctx, 50)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list", func(t *testing.T) {
		for _, id := range []int64{10, 11, 12} {
			require.NoError(t, store.PutBan(ctx, moderation.BanRecord{
				UserID:   id,
				Sanction: moderation.PermanentSanction(),
				BannedAt: time.Now(),
			}))
		}

		records, err := store.ListBans(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	t.Run("append assigns increasing ids", func(t *testing.T) {
		first, err := store.AppendMessage(ctx, 1, 2, "hello")
		require.NoError(t, err)

		second, err := store.AppendMessage(ctx, 1, 3, "world")
		require.NoError(t, err)
		assert.Greater(t, second, first)

		msg, err := store.GetMessage(ctx, first)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, int64(1), msg.OwnerID)
		assert.Equal(t, int64(2), msg.SenderID)
		assert.Equal(t, "hello", msg.Text)
		assert.False(t, msg.Reported)
	})

	t.Run("flag returns snapshot", func(t *testing.T) {
		id, err := store.AppendMessage(ctx, 5, 6, "spam")
		require.NoError(t, err)

		msg, err := store.FlagMessage(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.True(t, msg.Reported)
		assert.Equal(t, "spam", msg.Text)

		reported, err := store.ListReported(ctx)
		require.NoError(t, err)
		require.Len(t, reported, 1)
		assert.Equal(t, id, reported[0].ID)
	})

	t.Run("flag missing id is a no-op", func(t *testing.T) {
		msg, err := store.FlagMessage(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, msg)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		id, err := store.AppendMessage(ctx, 7, 8, "bye")
		require.NoError(t, err)

		deleted, err := store.DeleteMessage(ctx, id)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = store.DeleteMessage(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)

		msg, err := store.GetMessage(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, msg)
	})
}
