package flowstore_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/aretw0/ivrflow/pkg/flowstore"
	"github.com/aretw0/ivrflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menu(version string) *domain.FlowDefinition {
	f := dsl.NewFlow("train_main")
	f.State("main_menu").
		Say("Menu " + version).
		Option("1", "Option "+version).Go("1", "done")
	f.State("done").Say("Bye " + version).End()
	return f.Build()
}

func broken() *domain.FlowDefinition {
	f := dsl.NewFlow("train_main")
	f.State("main_menu").Say("Broken").Option("1", "x").Go("1", "flow:nowhere")
	return f.Build()
}

func TestStore_GetBeforeLoad(t *testing.T) {
	store := flowstore.New(memory.NewFlowSource(menu("v1")))
	assert.Nil(t, store.Snapshot())

	_, err := store.Get("train_main")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestStore_ReloadAndGet(t *testing.T) {
	store := flowstore.New(memory.NewFlowSource(menu("v1")))
	require.NoError(t, store.Reload(context.Background()))

	f, err := store.Get("train_main")
	require.NoError(t, err)
	assert.Equal(t, "main_menu", f.InitialState)
	assert.Equal(t, uint64(1), store.Snapshot().Version())

	_, err = store.Get("booking")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestStore_RejectedReloadKeepsSnapshot(t *testing.T) {
	source := memory.NewFlowSource(menu("v1"))
	var reloads []*domain.ReloadEvent
	store := flowstore.New(source, flowstore.WithHooks(domain.LifecycleHooks{
		OnReload: func(_ context.Context, e *domain.ReloadEvent) { reloads = append(reloads, e) },
	}))
	ctx := context.Background()
	require.NoError(t, store.Reload(ctx))
	before := store.Snapshot()

	source.Replace(broken())
	err := store.Reload(ctx)
	require.Error(t, err)
	assert.True(t, schema.IsValidation(err))
	assert.Same(t, before, store.Snapshot())

	source.Fail(errors.New("disk on fire"))
	require.Error(t, store.Reload(ctx))
	assert.Same(t, before, store.Snapshot())

	require.Len(t, reloads, 3)
	assert.NoError(t, reloads[0].Err)
	assert.Equal(t, 1, reloads[0].Flows)
	assert.Error(t, reloads[1].Err)
	assert.Error(t, reloads[2].Err)
}

func TestStore_SnapshotIsStableAcrossReload(t *testing.T) {
	source := memory.NewFlowSource(menu("v1"))
	store := flowstore.New(source)
	ctx := context.Background()
	require.NoError(t, store.Reload(ctx))

	held := store.Snapshot()
	source.Replace(menu("v2"))
	require.NoError(t, store.Reload(ctx))

	old, err := held.Get("train_main")
	require.NoError(t, err)
	assert.Equal(t, "Menu v1", old.States["main_menu"].Message)

	cur, err := store.Get("train_main")
	require.NoError(t, err)
	assert.Equal(t, "Menu v2", cur.States["main_menu"].Message)
	assert.Equal(t, uint64(2), store.Snapshot().Version())
}

func TestStore_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	source := memory.NewFlowSource(menu("v0"))
	store := flowstore.New(source)
	ctx := context.Background()
	require.NoError(t, store.Reload(ctx))

	var mixed atomic.Int32
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				set := store.Snapshot()
				f, err := set.Get("train_main")
				if err != nil {
					mixed.Add(1)
					continue
				}
				st := f.States["main_menu"]
				version := st.Message[len("Menu "):]
				if st.Options[0].Label != "Option "+version || f.States["done"].Message != "Bye "+version {
					mixed.Add(1)
				}
			}
		}()
	}

	for i := 1; i <= 50; i++ {
		source.Replace(menu(string(rune('a' + i%26))))
		require.NoError(t, store.Reload(ctx))
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, mixed.Load(), "readers observed a half-swapped flow set")
}

func TestStore_AutoReload(t *testing.T) {
	source := memory.NewFlowSource(menu("v1"))
	store := flowstore.New(source, flowstore.WithDebounce(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Reload(ctx))

	done := make(chan error, 1)
	go func() { done <- store.AutoReload(ctx) }()

	// Let the watcher subscribe before changing the source.
	require.Eventually(t, func() bool {
		source.Replace(menu("v2"))
		f, err := store.Get("train_main")
		return err == nil && f.States["main_menu"].Message == "Menu v2"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("AutoReload did not stop")
	}
}

type staticSource struct{}

func (staticSource) Load(context.Context) ([]*domain.FlowDefinition, error) { return nil, nil }

func TestStore_AutoReloadNeedsWatchable(t *testing.T) {
	store := flowstore.New(staticSource{})
	assert.ErrorIs(t, store.AutoReload(context.Background()), flowstore.ErrNotWatchable)
}
