package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/mocks"
)

const testGrace = 3500 * time.Millisecond

type deleteFixture struct {
	*testVault
	clock   *manualClock
	metrics *mocks.Metrics
	ctrl    *DeleteController
	recs    []entities.Record
}

func newDeleteFixture(t *testing.T, opts ...DeleteOption) *deleteFixture {
	t.Helper()
	v := newTestVault(t)
	f := &deleteFixture{
		testVault: v,
		clock:     &manualClock{},
		metrics:   mocks.NewMetrics(),
	}
	f.recs = []entities.Record{
		v.add(t, entities.KindKTP, "3201234567890001"),
		v.add(t, entities.KindPhone, "081234567890"),
		v.add(t, entities.KindEmail, "budi@example.com"),
	}

	opts = append([]DeleteOption{
		WithAfterFunc(f.clock.AfterFunc),
		WithDeleteMetrics(f.metrics),
	}, opts...)
	f.ctrl = NewDeleteController(v.records, v.live, testGrace, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, f.ctrl.Start(ctx))
	return f
}

func TestDeleteController_StartLoadsList(t *testing.T) {
	f := newDeleteFixture(t)

	assert.Equal(t, []int64{1, 2, 3}, ids(f.ctrl.Items()))
}

func TestDeleteController_RequestHidesImmediately(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))

	assert.Equal(t, []int64{1, 3}, ids(f.ctrl.Items()))
	assert.True(t, f.ctrl.IsPending(2))
	assert.True(t, f.db.HasRecord(2), "store must not change during the grace period")
	assert.Equal(t, testGrace, f.clock.last().d)
}

func TestDeleteController_UndoRoundTrip(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	beforeItems := f.ctrl.Items()
	beforeStore, err := f.records.ListWithType(ctx)
	require.NoError(t, err)

	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))
	require.NoError(t, f.ctrl.Undo(ctx, 2))

	assert.Equal(t, beforeItems, f.ctrl.Items())
	afterStore, err := f.records.ListWithType(ctx)
	require.NoError(t, err)
	assert.Equal(t, beforeStore, afterStore)

	timer := f.clock.last()
	assert.True(t, timer.Stopped())
	assert.False(t, f.ctrl.IsPending(2))
	assert.Equal(t, 1, f.metrics.Count("delete_undone"))
}

func TestDeleteController_CommitAfterGrace(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 1))
	f.clock.last().Fire()

	assert.False(t, f.db.HasRecord(1))
	assert.False(t, f.ctrl.IsPending(1))
	assert.Equal(t, []int64{2, 3}, ids(f.ctrl.Items()))
	assert.Equal(t, 1, f.metrics.Count("delete_committed"))

	used, err := f.catalog.UsedUniqueTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestDeleteController_UndoRestoresOriginalPositions(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 1))
	require.NoError(t, f.ctrl.RequestDelete(ctx, 3))
	assert.Equal(t, []int64{2}, ids(f.ctrl.Items()))

	require.NoError(t, f.ctrl.Undo(ctx, 3))
	assert.Equal(t, []int64{2, 3}, ids(f.ctrl.Items()))

	require.NoError(t, f.ctrl.Undo(ctx, 1))
	assert.Equal(t, []int64{1, 2, 3}, ids(f.ctrl.Items()))
}

func TestDeleteController_UndoAfterCommitIsNoop(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))
	f.clock.last().Fire()

	err := f.ctrl.Undo(ctx, 2)
	require.ErrorIs(t, err, ErrNotPending)
	assert.False(t, f.db.HasRecord(2))
	assert.Equal(t, []int64{1, 3}, ids(f.ctrl.Items()))
}

func TestDeleteController_CommitAfterUndoIsNoop(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))
	timer := f.clock.last()
	require.NoError(t, f.ctrl.Undo(ctx, 2))

	// The timer callback was already running when Undo stopped it.
	timer.FireUnchecked()

	assert.True(t, f.db.HasRecord(2))
	assert.Equal(t, []int64{1, 2, 3}, ids(f.ctrl.Items()))
	assert.Equal(t, 0, f.metrics.Count("delete_committed"))
}

func TestDeleteController_RejectsDuplicatesAndUnknown(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))
	require.ErrorIs(t, f.ctrl.RequestDelete(ctx, 2), ErrAlreadyPending)
	require.ErrorIs(t, f.ctrl.RequestDelete(ctx, 42), ErrRecordNotFound)
	require.ErrorIs(t, f.ctrl.Undo(ctx, 3), ErrNotPending)

	assert.Len(t, f.clock.all(), 1, "only one timer per pending record")
}

func TestDeleteController_SettleFlushesAllPending(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 1))
	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))
	require.NoError(t, f.ctrl.RequestDelete(ctx, 3))

	require.NoError(t, f.ctrl.Settle(ctx))

	assert.Equal(t, 0, f.db.RecordCount())
	assert.Empty(t, f.ctrl.Pending())
	assert.Empty(t, f.ctrl.Items())
	for _, timer := range f.clock.all() {
		assert.True(t, timer.Stopped())
		// Late timers find nothing to do.
		timer.FireUnchecked()
	}
	assert.Equal(t, 3, f.metrics.Count("delete_committed"))

	require.NoError(t, f.ctrl.Settle(ctx))
}

func TestDeleteController_CommitFailureResurfaces(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []entities.RecordWithType
	)
	f := newDeleteFixture(t, WithCommitFailureHandler(func(rec entities.RecordWithType, _ error) {
		mu.Lock()
		failed = append(failed, rec)
		mu.Unlock()
	}))
	ctx := context.Background()

	f.db.SetDeleteErr(errors.New("disk gone"))
	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))
	f.clock.last().Fire()

	assert.True(t, f.db.HasRecord(2))
	assert.False(t, f.ctrl.IsPending(2))
	assert.Equal(t, []int64{1, 2, 3}, ids(f.ctrl.Items()))
	assert.Equal(t, 1, f.metrics.Count("delete_commit_failed"))

	mu.Lock()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(2), failed[0].ID)
	mu.Unlock()

	// The record can be deleted again once the store recovers.
	f.db.SetDeleteErr(nil)
	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))
	f.clock.last().Fire()
	assert.False(t, f.db.HasRecord(2))
}

func TestDeleteController_SettleReportsFailure(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	f.db.SetDeleteErr(errors.New("disk gone"))
	require.NoError(t, f.ctrl.RequestDelete(ctx, 1))

	err := f.ctrl.Settle(ctx)
	require.Error(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(f.ctrl.Items()))
}

func TestDeleteController_FollowsStoreWhilePending(t *testing.T) {
	f := newDeleteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 1))
	added := f.add(t, entities.KindAddress, "Jl. Merdeka No. 1")

	require.Eventually(t, func() bool {
		items := ids(f.ctrl.Items())
		return len(items) == 3 && items[2] == added.ID
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{2, 3, added.ID}, ids(f.ctrl.Items()))
}

func TestDeleteController_Subscribe(t *testing.T) {
	f := newDeleteFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := f.ctrl.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(<-sub.C()))

	require.NoError(t, f.ctrl.RequestDelete(ctx, 3))
	assert.Equal(t, []int64{1, 2}, ids(<-sub.C()))
}

// TestDeleteController_UndoRacesTimer runs undo against a real timer and
// checks that exactly one outcome took effect.
func TestDeleteController_UndoRacesTimer(t *testing.T) {
	for i := range 50 {
		v := newTestVault(t)
		rec := v.add(t, entities.KindPhone, "081234567890")
		ctrl := NewDeleteController(v.records, v.live, time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, ctrl.Start(ctx))

		require.NoError(t, ctrl.RequestDelete(ctx, rec.ID))
		time.Sleep(time.Duration(i%3) * time.Millisecond)
		undoErr := ctrl.Undo(ctx, rec.ID)

		require.Eventually(t, func() bool {
			return !ctrl.IsPending(rec.ID)
		}, time.Second, time.Millisecond)

		if undoErr == nil {
			assert.True(t, v.db.HasRecord(rec.ID), "iteration %d: undone record was deleted", i)
			assert.Equal(t, []int64{rec.ID}, ids(ctrl.Items()))
		} else {
			require.ErrorIs(t, undoErr, ErrNotPending)
			assert.False(t, v.db.HasRecord(rec.ID), "iteration %d: record neither undone nor deleted", i)
			assert.Empty(t, ctrl.Items())
		}
		cancel()
	}
}

// TestDeleteController_RealTimerCommits checks the default scheduler.
func TestDeleteController_RealTimerCommits(t *testing.T) {
	v := newTestVault(t)
	rec := v.add(t, entities.KindPhone, "081234567890")
	ctrl := NewDeleteController(v.records, v.live, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ctrl.Start(ctx))

	require.NoError(t, ctrl.RequestDelete(ctx, rec.ID))

	require.Eventually(t, func() bool {
		return !v.db.HasRecord(rec.ID)
	}, time.Second, 5*time.Millisecond)
}

// blockingDeleteDB holds DeleteRecord until released.
type blockingDeleteDB struct {
	*mocks.VaultDB
	entered chan struct{}
	release chan struct{}
}

func (b *blockingDeleteDB) DeleteRecord(ctx context.Context, id int64) error {
	b.entered <- struct{}{}
	<-b.release
	return b.VaultDB.DeleteRecord(ctx, id)
}

func TestDeleteController_SettleWaitsForTimerCommit(t *testing.T) {
	db := &blockingDeleteDB{
		VaultDB: mocks.NewVaultDB(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	live := NewLiveQuery(db, nil)
	records := NewRecordService(db, live, nil)
	require.NoError(t, NewCatalogService(db, live, nil).Seed(ctx))
	rec := entities.Record{TypeID: int64(entities.KindPhone), Value: "0811"}
	require.NoError(t, records.Add(ctx, &rec))

	clock := &manualClock{}
	ctrl := NewDeleteController(records, live, testGrace, WithAfterFunc(clock.AfterFunc))
	require.NoError(t, ctrl.Start(ctx))
	require.NoError(t, ctrl.RequestDelete(ctx, rec.ID))

	go clock.last().Fire()
	<-db.entered

	settled := make(chan error, 1)
	go func() { settled <- ctrl.Settle(ctx) }()

	select {
	case <-settled:
		t.Fatal("Settle returned while a commit was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(db.release)
	select {
	case err := <-settled:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Settle did not return after the commit finished")
	}
	assert.False(t, db.HasRecord(rec.ID))
}

// failingDeleteDB fails DeleteRecord for one id.
type failingDeleteDB struct {
	*mocks.VaultDB
	failID int64
}

func (f *failingDeleteDB) DeleteRecord(ctx context.Context, id int64) error {
	if id == f.failID {
		return errors.New("disk gone")
	}
	return f.VaultDB.DeleteRecord(ctx, id)
}

func TestDeleteController_SettleCommitsOthersWhenOneFails(t *testing.T) {
	db := &failingDeleteDB{VaultDB: mocks.NewVaultDB(), failID: 2}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	live := NewLiveQuery(db, nil)
	records := NewRecordService(db, live, nil)
	require.NoError(t, NewCatalogService(db, live, nil).Seed(ctx))
	for _, value := range []string{"0811", "0812", "0813", "0814", "0815"} {
		rec := entities.Record{TypeID: int64(entities.KindPhone), Value: value}
		require.NoError(t, records.Add(ctx, &rec))
	}

	m := mocks.NewMetrics()
	ctrl := NewDeleteController(records, live, testGrace,
		WithAfterFunc((&manualClock{}).AfterFunc),
		WithDeleteMetrics(m),
	)
	require.NoError(t, ctrl.Start(ctx))
	for id := int64(1); id <= 5; id++ {
		require.NoError(t, ctrl.RequestDelete(ctx, id))
	}

	err := ctrl.Settle(ctx)

	require.ErrorContains(t, err, "record 2")
	assert.Equal(t, 1, db.RecordCount())
	assert.True(t, db.HasRecord(2))
	require.Eventually(t, func() bool {
		items := ids(ctrl.Items())
		return len(items) == 1 && items[0] == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 4, m.Count("delete_committed"))
	assert.Equal(t, 1, m.Count("delete_commit_failed"))
}

func TestDeleteController_RecordAlreadyGoneCountsAsCommitted(t *testing.T) {
	var failures int
	f := newDeleteFixture(t, WithCommitFailureHandler(func(entities.RecordWithType, error) {
		failures++
	}))
	ctx := context.Background()

	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))
	require.NoError(t, f.records.DeleteAll(ctx))
	f.clock.last().Fire()

	assert.Zero(t, failures)
	assert.False(t, f.ctrl.IsPending(2))
	assert.Equal(t, 1, f.metrics.Count("delete_committed"))
	assert.Zero(t, f.metrics.Count("delete_commit_failed"))
	require.Eventually(t, func() bool {
		return len(f.ctrl.Items()) == 0
	}, time.Second, 5*time.Millisecond, "restored phantom record")

	// Settle treats it the same way.
	added := f.add(t, entities.KindPhone, "0811")
	require.Eventually(t, func() bool {
		return len(f.ctrl.Items()) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, f.ctrl.RequestDelete(ctx, added.ID))
	require.NoError(t, f.records.DeleteByID(ctx, added.ID))
	require.NoError(t, f.ctrl.Settle(ctx))
	assert.Empty(t, f.ctrl.Items())
}

func TestDeleteController_LastDeliveredListIsLatest(t *testing.T) {
	f := newDeleteFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := f.ctrl.Subscribe(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range []int64{1, 2, 3} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := f.ctrl.RequestDelete(ctx, id); err != nil {
					continue
				}
				_ = f.ctrl.Undo(ctx, id)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, f.ctrl.RequestDelete(ctx, 2))

	var last []entities.RecordWithType
drain:
	for {
		select {
		case last = <-sub.C():
		default:
			break drain
		}
	}
	assert.Equal(t, []int64{1, 3}, ids(last))
	assert.Equal(t, ids(f.ctrl.Items()), ids(last))
}
