package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LACSistemas/EscriturasNew/pkg/adapters/memory"
	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/LACSistemas/EscriturasNew/pkg/session"
)

func TestManager_LoadOrStart(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	s, err := m.LoadOrStart(ctx, "s1", "deed_type")
	require.NoError(t, err)
	assert.Equal(t, "deed_type", s.CurrentStep)
	assert.Equal(t, uint64(0), s.Sequence)

	// The new session is persisted immediately, so a second call resumes it.
	s.Answers["deed_type"] = "lot"
	require.NoError(t, m.Save(ctx, s))

	again, err := m.LoadOrStart(ctx, "s1", "deed_type")
	require.NoError(t, err)
	assert.Equal(t, "lot", again.Answers["deed_type"])
}

func TestManager_Load_NotFound(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	_, err := m.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_Delete(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := m.LoadOrStart(ctx, "s1", "deed_type")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, "s1"))

	_, err = m.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_WithLock_SerializesSameSession(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	const workers = 32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(ctx, "s1", func(context.Context) error {
				// Unsynchronized on purpose: the per-session lock is the only
				// thing preventing a data race here.
				counter++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestManager_WithLock_IndependentSessionsDoNotBlock(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = m.WithLock(ctx, "slow", func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding
	done := make(chan struct{})
	go func() {
		_ = m.WithLock(ctx, "fast", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent session blocked behind an unrelated lock")
	}
	close(release)
}
