package ports

import (
	"context"
	"testing"
	"time"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID, "deed_type")
		session.Sequence = 3
		session.Answers["deed_type"] = "rural"
		session.Buyers = append(session.Buyers, domain.Party{
			Kind:     domain.KindIndividual,
			FullName: "Maria da Silva",
		})
		require.NoError(t, session.AddCertificate(domain.Certificate{
			Type:      domain.CertLiens,
			Owner:     domain.PropertyOwner(),
			Presented: true,
			Fields:    map[string]string{"registry": "1st Registry Office"},
		}))

		err := store.Save(ctx, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.CurrentStep, loaded.CurrentStep)
		assert.Equal(t, session.Sequence, loaded.Sequence)
		assert.Equal(t, "rural", loaded.Answers["deed_type"])
		require.Len(t, loaded.Buyers, 1)
		assert.Equal(t, "Maria da Silva", loaded.Buyers[0].FullName)
		require.NotNil(t, loaded.Certificate(domain.CertLiens, domain.PropertyOwner()))
	})

	t.Run("Load preserves isolation", func(t *testing.T) {
		session := domain.NewSession(sessionID+"-iso", "deed_type")
		require.NoError(t, store.Save(ctx, session))
		defer func() { _ = store.Delete(ctx, session.ID) }()

		first, err := store.Load(ctx, session.ID)
		require.NoError(t, err)
		first.Answers["deed_type"] = "lot"

		second, err := store.Load(ctx, session.ID)
		require.NoError(t, err)
		assert.Empty(t, second.Answers["deed_type"], "mutating a loaded session must not leak into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(sessionID, "deed_type")))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewSession(id1, "deed_type"))
		_ = store.Save(ctx, domain.NewSession(id2, "deed_type"))

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
