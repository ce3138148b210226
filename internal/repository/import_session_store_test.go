package repository

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryImportSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load round trip", func(t *testing.T) {
		store := NewMemoryImportSessionStore(time.Minute)
		defer store.Close()

		session := importer.NewSession(models.CostObjectSchema, []importer.ExistingRecord{{ID: "1", Code: "CC001"}}, 10)
		require.NoError(t, session.SetMethod(importer.MethodUpdate))
		require.NoError(t, store.Save(ctx, session))

		loaded, err := store.Load(ctx, session.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.Restore(models.CostObjectSchema))

		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, importer.MethodUpdate, loaded.Method)
		assert.Equal(t, session.Existing, loaded.Existing)
		assert.Equal(t, session.Mappings, loaded.Mappings)
	})

	t.Run("loaded sessions are independent copies", func(t *testing.T) {
		store := NewMemoryImportSessionStore(time.Minute)
		defer store.Close()

		session := importer.NewSession(models.CostObjectSchema, nil, 10)
		require.NoError(t, store.Save(ctx, session))

		loaded, err := store.Load(ctx, session.ID)
		require.NoError(t, err)
		loaded.Method = importer.MethodOverwrite

		again, err := store.Load(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, importer.MethodInsert, again.Method)
	})

	t.Run("unknown and expired sessions", func(t *testing.T) {
		store := NewMemoryImportSessionStore(time.Millisecond)
		defer store.Close()

		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, importer.ErrSessionNotFound)

		session := importer.NewSession(models.BankAccountSchema, nil, 10)
		require.NoError(t, store.Save(ctx, session))
		time.Sleep(5 * time.Millisecond)

		_, err = store.Load(ctx, session.ID)
		assert.ErrorIs(t, err, importer.ErrSessionNotFound)

		store.cleanup()
		assert.Equal(t, 0, store.Size())
	})

	t.Run("delete", func(t *testing.T) {
		store := NewMemoryImportSessionStore(time.Minute)
		defer store.Close()

		session := importer.NewSession(models.BankAccountSchema, nil, 10)
		require.NoError(t, store.Save(ctx, session))
		require.NoError(t, store.Delete(ctx, session.ID))

		_, err := store.Load(ctx, session.ID)
		assert.ErrorIs(t, err, importer.ErrSessionNotFound)
	})
}
