package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/mocks"
)

// testVault wires the services over an in-memory store with a seeded catalog.
type testVault struct {
	db      *mocks.VaultDB
	live    *LiveQuery
	catalog *CatalogService
	records *RecordService
}

func newTestVault(t *testing.T) *testVault {
	t.Helper()
	db := mocks.NewVaultDB()
	live := NewLiveQuery(db, nil)
	v := &testVault{
		db:      db,
		live:    live,
		catalog: NewCatalogService(db, live, nil),
		records: NewRecordService(db, live, nil),
	}
	require.NoError(t, v.catalog.Seed(context.Background()))
	return v
}

func (v *testVault) add(t *testing.T, kind entities.Kind, value string) entities.Record {
	t.Helper()
	rec := entities.Record{TypeID: int64(kind), Value: value}
	require.NoError(t, v.records.Add(context.Background(), &rec))
	return rec
}

func ids(items []entities.RecordWithType) []int64 {
	out := make([]int64, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}

func typeNames(types []entities.RecordType) []string {
	out := make([]string, len(types))
	for i := range types {
		out[i] = types[i].Name
	}
	return out
}

// manualClock hands out timers that fire only when the test says so.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// last returns the most recently armed timer.
func (c *manualClock) last() *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[len(c.timers)-1]
}

func (c *manualClock) all() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*manualTimer, len(c.timers))
	copy(out, c.timers)
	return out
}

type manualTimer struct {
	d time.Duration
	f func()

	mu      sync.Mutex
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Fire runs the callback unless the timer was stopped. Like time.AfterFunc,
// a timer whose Stop lost the race still runs.
func (t *manualTimer) Fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.f()
}

// FireUnchecked runs the callback even if the timer was stopped, modelling
// a timer goroutine that was already running when Stop was called.
func (t *manualTimer) FireUnchecked() {
	t.f()
}

func (t *manualTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
