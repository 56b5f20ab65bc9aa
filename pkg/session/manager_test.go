package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
	"github.com/aretw0/ivrflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates IO latency to provoke lost updates if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Save(ctx context.Context, sess *domain.Session) error {
	time.Sleep(time.Millisecond)
	return s.Store.Save(ctx, sess)
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(time.Millisecond)
	return s.Store.Load(ctx, id)
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"
	require.NoError(t, manager.Create(ctx, domain.NewSession(id, "train_main", "main_menu", time.Now())))

	var wg sync.WaitGroup
	const turns = 20
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.Session) (*domain.Session, error) {
				s.Append(domain.OriginUser, "1", time.Now())
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := manager.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, sess.History, turns, "every turn must be kept")
}

func TestManager_Create(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	sess := domain.NewSession("a", "train_main", "main_menu", time.Now())

	require.NoError(t, manager.Create(ctx, sess))
	assert.ErrorIs(t, manager.Create(ctx, sess), session.ErrSessionExists)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestManager_UpdateErrors(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Update(ctx, "missing", func(s *domain.Session) (*domain.Session, error) { return s, nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, manager.Create(ctx, domain.NewSession("b", "train_main", "main_menu", time.Now())))
	_, err = manager.Update(ctx, "b", func(s *domain.Session) (*domain.Session, error) {
		s.CurrentState = "changed"
		return nil, domain.ErrSessionEnded
	})
	assert.ErrorIs(t, err, domain.ErrSessionEnded)

	sess, err := manager.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "main_menu", sess.CurrentState, "failed updates are not saved")
}

type countingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	lastTTL  time.Duration
	failWith error
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.locks++
	l.lastTTL = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Create(ctx, domain.NewSession("c", "train_main", "main_menu", time.Now())))
	_, err := manager.Get(ctx, "c")
	require.NoError(t, err)

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)
	assert.Equal(t, 5*time.Second, locker.lastTTL)

	locker.failWith = errors.New("redis down")
	_, err = manager.Get(ctx, "c")
	assert.ErrorContains(t, err, "distributed lock")
}
