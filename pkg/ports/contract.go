package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")
	started := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, "train_main", "main_menu", started)
		s.Data["pnr"] = "2415319876"
		s.Append(domain.OriginSystem, "Welcome", started)
		s.Append(domain.OriginUser, "5", started.Add(time.Second))

		require.NoError(t, store.Save(ctx, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "train_main", loaded.CurrentFlow)
		assert.Equal(t, "main_menu", loaded.CurrentState)
		assert.Equal(t, "2415319876", loaded.Data["pnr"])
		require.Len(t, loaded.History, 2)
		assert.Equal(t, domain.OriginUser, loaded.History[1].Origin)
		assert.True(t, started.Equal(loaded.StartedAt))
	})

	t.Run("Load Returns Isolated Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Data["pnr"] = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "2415319876", again.Data["pnr"])
	})

	t.Run("Update", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.CurrentFlow = "booking"
		loaded.CurrentState = "ask_train"
		require.NoError(t, store.Save(ctx, loaded))

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "booking", again.CurrentFlow)
		assert.Equal(t, "ask_train", again.CurrentState)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1, "train_main", "main_menu", started)))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2, "train_main", "main_menu", started)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
