package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
)

// View is a push-based query result. Every refresh recomputes the value from
// the store and delivers it to all subscribers.
type View[T any] struct {
	name    string
	compute func(ctx context.Context) (T, error)

	mu      sync.Mutex
	current T
	ready   bool
	subs    map[uint64]*Subscription[T]
	nextID  uint64
}

func newView[T any](name string, compute func(ctx context.Context) (T, error)) *View[T] {
	return &View[T]{
		name:    name,
		compute: compute,
		subs:    make(map[uint64]*Subscription[T]),
	}
}

// Subscription receives the latest value of a view. Only the most recent
// undelivered value is kept; a slow reader skips intermediate snapshots.
type Subscription[T any] struct {
	id   uint64
	ch   chan T
	view *View[T]
	once sync.Once
}

// C returns the delivery channel. It is closed on Unsubscribe.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Unsubscribe stops delivery and closes the channel. Safe to call more than once.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		s.view.mu.Lock()
		delete(s.view.subs, s.id)
		close(s.ch)
		s.view.mu.Unlock()
	})
}

// Subscribe registers a subscriber and immediately delivers the current value.
// The subscription ends when ctx is done or Unsubscribe is called.
func (v *View[T]) Subscribe(ctx context.Context) (*Subscription[T], error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.ready {
		value, err := v.compute(ctx)
		if err != nil {
			return nil, storage("loading "+v.name, err)
		}
		v.current = value
		v.ready = true
	}

	v.nextID++
	sub := &Subscription[T]{
		id:   v.nextID,
		ch:   make(chan T, 1),
		view: v,
	}
	v.subs[sub.id] = sub
	sub.ch <- v.current

	context.AfterFunc(ctx, sub.Unsubscribe)

	return sub, nil
}

// Current returns the last computed value, computing it on first use.
func (v *View[T]) Current(ctx context.Context) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.ready {
		value, err := v.compute(ctx)
		if err != nil {
			var zero T
			return zero, storage("loading "+v.name, err)
		}
		v.current = value
		v.ready = true
	}
	return v.current, nil
}

// refresh recomputes the view and delivers the result before returning.
func (v *View[T]) refresh(ctx context.Context) error {
	value, err := v.compute(ctx)
	if err != nil {
		return fmt.Errorf("refreshing %s: %w", v.name, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = value
	v.ready = true
	for _, sub := range v.subs {
		// Replace any undelivered snapshot with the newest one.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- value
	}
	return nil
}

// subscribers returns the number of active subscriptions.
func (v *View[T]) subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// LiveQuery keeps the vault's live views in sync with the store. All store
// mutations go through Mutate, which serializes writers and redelivers every
// view before returning.
type LiveQuery struct {
	db     ports.VaultDB
	logger *zap.SugaredLogger

	writeMu sync.Mutex

	Records         *View[[]entities.Record]
	RecordsWithType *View[[]entities.RecordWithType]
	Types           *View[[]entities.RecordType]
	UsedUniqueTypes *View[[]entities.RecordType]
}

// NewLiveQuery creates the live views over db.
func NewLiveQuery(db ports.VaultDB, logger *zap.SugaredLogger) *LiveQuery {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LiveQuery{
		db:              db,
		logger:          logger,
		Records:         newView("records", db.ListRecords),
		RecordsWithType: newView("records with type", db.ListRecordsWithType),
		Types:           newView("record types", db.ListRecordTypes),
		UsedUniqueTypes: newView("used unique types", db.ListUsedUniqueTypes),
	}
}

// Mutate runs fn as the only writer, then refreshes every view. A failed fn
// still triggers a refresh since it may have partially applied.
func (q *LiveQuery) Mutate(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	q.writeMu.Lock()
	defer q.writeMu.Unlock()

	fnErr := fn(ctx)
	if err := q.refreshAll(ctx); err != nil {
		q.logger.Errorw("refreshing live views", "op", op, "error", err)
		if fnErr == nil {
			return storage(op, err)
		}
	}
	return fnErr
}

// Refresh recomputes every view, e.g. after the store was changed externally.
func (q *LiveQuery) Refresh(ctx context.Context) error {
	q.writeMu.Lock()
	defer q.writeMu.Unlock()
	return q.refreshAll(ctx)
}

func (q *LiveQuery) refreshAll(ctx context.Context) error {
	if err := q.Records.refresh(ctx); err != nil {
		return err
	}
	if err := q.RecordsWithType.refresh(ctx); err != nil {
		return err
	}
	if err := q.Types.refresh(ctx); err != nil {
		return err
	}
	return q.UsedUniqueTypes.refresh(ctx)
}
