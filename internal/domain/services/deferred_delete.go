package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/ports"
)

// Timer is a cancellable scheduled task.
type Timer interface {
	// Stop cancels the task. It returns false if the task already started.
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// pendingDelete is one record in the holding set.
type pendingDelete struct {
	item       entities.RecordWithType
	index      int
	timer      Timer
	committing bool
}

// DeleteController removes records from the presentation list immediately and
// commits the delete to the store only after a grace period, so the removal
// can be undone. Commit and undo of one pending record are mutually exclusive:
// whichever takes the entry out of the holding set first wins.
type DeleteController struct {
	records   *RecordService
	live      *LiveQuery
	grace     time.Duration
	afterFunc AfterFunc
	logger    *zap.SugaredLogger
	metrics   ports.Metrics
	onFailure func(entities.RecordWithType, error)

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
	baseCtx  context.Context
	items    []entities.RecordWithType
	pending  map[int64]*pendingDelete

	// pubMu orders publishes so the last delivered list is the latest one.
	pubMu sync.Mutex
	list  *View[[]entities.RecordWithType]
}

// DeleteOption configures a DeleteController.
type DeleteOption func(*DeleteController)

// WithDeleteLogger sets the logger.
func WithDeleteLogger(logger *zap.SugaredLogger) DeleteOption {
	return func(c *DeleteController) {
		c.logger = logger
	}
}

// WithDeleteMetrics sets the metrics sink.
func WithDeleteMetrics(m ports.Metrics) DeleteOption {
	return func(c *DeleteController) {
		c.metrics = m
	}
}

// WithAfterFunc replaces the timer source, e.g. with a manual clock in tests.
func WithAfterFunc(f AfterFunc) DeleteOption {
	return func(c *DeleteController) {
		c.afterFunc = f
	}
}

// WithCommitFailureHandler is called after a commit failed and the record was
// put back into the list.
func WithCommitFailureHandler(f func(entities.RecordWithType, error)) DeleteOption {
	return func(c *DeleteController) {
		c.onFailure = f
	}
}

// NewDeleteController creates a controller committing deletes after grace.
func NewDeleteController(records *RecordService, live *LiveQuery, grace time.Duration, opts ...DeleteOption) *DeleteController {
	c := &DeleteController{
		records:   records,
		live:      live,
		grace:     grace,
		afterFunc: realAfterFunc,
		logger:    zap.NewNop().Sugar(),
		metrics:   nopMetrics{},
		baseCtx:   context.Background(),
		pending:   make(map[int64]*pendingDelete),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.idle = sync.NewCond(&c.mu)
	c.list = newView("presentation list", func(context.Context) ([]entities.RecordWithType, error) {
		return c.Items(), nil
	})
	return c
}

// Start loads the presentation list and keeps it in sync with the store until
// ctx is done. Commits fired by timers run with ctx's values but outlive its
// cancellation.
func (c *DeleteController) Start(ctx context.Context) error {
	sub, err := c.live.RecordsWithType.Subscribe(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.baseCtx = context.WithoutCancel(ctx)
	c.mu.Unlock()

	// The first snapshot is already buffered; apply it before returning so
	// callers see a loaded list.
	c.apply(ctx, <-sub.C())

	go func() {
		for snapshot := range sub.C() {
			c.apply(ctx, snapshot)
		}
	}()
	return nil
}

// apply replaces the list with a store snapshot, keeping pending records hidden.
func (c *DeleteController) apply(ctx context.Context, snapshot []entities.RecordWithType) {
	c.mu.Lock()
	items := make([]entities.RecordWithType, 0, len(snapshot))
	for _, rec := range snapshot {
		if _, hidden := c.pending[rec.ID]; hidden {
			continue
		}
		items = append(items, rec)
	}
	c.items = items
	c.mu.Unlock()

	c.publish(ctx)
}

func (c *DeleteController) publish(ctx context.Context) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if err := c.list.refresh(ctx); err != nil {
		c.logger.Warnw("publishing presentation list", "error", err)
	}
}

// Subscribe delivers the presentation list after every change.
func (c *DeleteController) Subscribe(ctx context.Context) (*Subscription[[]entities.RecordWithType], error) {
	return c.list.Subscribe(ctx)
}

// Items returns a copy of the presentation list.
func (c *DeleteController) Items() []entities.RecordWithType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entities.RecordWithType, len(c.items))
	copy(out, c.items)
	return out
}

// Pending returns the records currently inside their grace period.
func (c *DeleteController) Pending() []entities.RecordWithType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entities.RecordWithType, 0, len(c.pending))
	for _, p := range c.pending {
		out = append(out, p.item)
	}
	return out
}

// RequestDelete hides the record and arms its commit timer.
func (c *DeleteController) RequestDelete(ctx context.Context, id int64) error {
	c.mu.Lock()
	if _, ok := c.pending[id]; ok {
		c.mu.Unlock()
		return invalid("id", ErrAlreadyPending)
	}

	index := -1
	for i := range c.items {
		if c.items[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		c.mu.Unlock()
		return invalid("id", ErrRecordNotFound)
	}

	entry := &pendingDelete{
		item:  c.items[index],
		index: index,
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	c.pending[id] = entry
	entry.timer = c.afterFunc(c.grace, func() { c.fire(id, entry) })
	c.mu.Unlock()

	c.metrics.DeleteRequested()
	c.logger.Debugw("record delete pending", "record_id", id, "grace", c.grace)
	c.publish(ctx)
	return nil
}

// Undo cancels a pending delete and puts the record back at its position.
// The store is never touched.
func (c *DeleteController) Undo(ctx context.Context, id int64) error {
	c.mu.Lock()
	entry, ok := c.pending[id]
	if !ok || entry.committing {
		c.mu.Unlock()
		return invalid("id", ErrNotPending)
	}
	delete(c.pending, id)
	// A timer that already fired finds its entry gone and does nothing.
	entry.timer.Stop()
	c.restoreLocked(entry)
	c.mu.Unlock()

	c.metrics.DeleteUndone()
	c.logger.Debugw("record delete undone", "record_id", id)
	c.publish(ctx)
	return nil
}

// Settle commits every pending delete now, e.g. when the list stops scrolling
// or the session ends. Each commit succeeds or fails on its own; the returned
// error joins the failures. It returns once no commit is in flight, including
// commits started by timers.
func (c *DeleteController) Settle(ctx context.Context) error {
	c.mu.Lock()
	entries := make([]*pendingDelete, 0, len(c.pending))
	for _, entry := range c.pending {
		if entry.committing {
			continue
		}
		entry.timer.Stop()
		entry.committing = true
		c.inflight++
		entries = append(entries, entry)
	}
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	errs := make([]error, len(entries))
	var g errgroup.Group
	for i, entry := range entries {
		g.Go(func() error {
			errs[i] = c.commit(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()
	err := errors.Join(errs...)

	c.mu.Lock()
	for c.inflight > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
	return err
}

// fire is the timer callback.
func (c *DeleteController) fire(id int64, entry *pendingDelete) {
	c.mu.Lock()
	if c.pending[id] != entry || entry.committing {
		c.mu.Unlock()
		return
	}
	entry.committing = true
	c.inflight++
	ctx := c.baseCtx
	c.mu.Unlock()

	_ = c.commit(ctx, entry) //nolint:errcheck // reported through logger and failure handler
}

// commit deletes the record from the store. The entry stays in the holding set
// until the store answers, so snapshots delivered meanwhile keep it hidden. On
// failure the record is put back into the list, since it still exists. A
// record already gone from the store counts as committed.
func (c *DeleteController) commit(ctx context.Context, entry *pendingDelete) error {
	id := entry.item.ID
	err := c.records.DeleteByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		c.logger.Debugw("record already removed from store", "record_id", id)
		err = nil
	}

	c.mu.Lock()
	delete(c.pending, id)
	if err != nil {
		c.restoreLocked(entry)
	}
	c.inflight--
	if c.inflight == 0 {
		c.idle.Broadcast()
	}
	c.mu.Unlock()

	if err == nil {
		c.metrics.DeleteCommitted()
		c.logger.Debugw("record delete committed", "record_id", id)
		return nil
	}

	c.metrics.DeleteCommitFailed()
	c.logger.Errorw("committing record delete", "record_id", id, "error", err)
	c.publish(ctx)

	if c.onFailure != nil {
		c.onFailure(entry.item, err)
	}
	return fmt.Errorf("committing delete of record %d: %w", id, err)
}

// restoreLocked reinserts entry at its original index, clamped to the list.
// Caller must hold mu.
func (c *DeleteController) restoreLocked(entry *pendingDelete) {
	for i := range c.items {
		if c.items[i].ID == entry.item.ID {
			return
		}
	}
	index := min(entry.index, len(c.items))
	c.items = append(c.items, entities.RecordWithType{})
	copy(c.items[index+1:], c.items[index:])
	c.items[index] = entry.item
}

// IsPending reports whether id is inside its grace period.
func (c *DeleteController) IsPending(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}
