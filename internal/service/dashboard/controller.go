package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp-tools/subvariance/internal/domain/models"
)

// ErrRecordNotFound is returned by ToggleStatus when no record carries the identifier.
var ErrRecordNotFound = errors.New("record not found")

// RecordSource supplies the initial record collection.
type RecordSource interface {
	LoadRecords(ctx context.Context) ([]models.Record, error)
}

// View is a consistent read of the controller state and both projections.
type View struct {
	ActiveFilter models.Status     `json:"activeFilter"`
	SearchText   string            `json:"searchText"`
	Records      []models.Record   `json:"records"`
	Statistics   models.Statistics `json:"statistics"`
}

// Listener receives fresh statistics after every successful mutation.
type Listener func(models.Statistics)

// Controller owns the record collection, the active status filter and the
// search text. It is safe for concurrent use; every operation runs to
// completion under the lock before the next one starts.
type Controller struct {
	mu        sync.RWMutex
	notifyMu  sync.Mutex
	records   []models.Record
	index     map[string]int
	filter    models.Status
	search    string
	listeners []Listener

	now    func() time.Time
	logger *zap.Logger
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock overrides the wall clock used to stamp UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a controller over a copy of records. The active filter starts
// at StatusIncomplete and the search text empty. New trusts its input; use
// Load for collections that have not passed models.ValidateRecords.
func New(records []models.Record, opts ...Option) *Controller {
	c := &Controller{
		records: append([]models.Record(nil), records...),
		filter:  models.StatusIncomplete,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Identifiers are unique after ValidateRecords; keep the first on duplicates.
	c.index = make(map[string]int, len(c.records))
	for i, r := range c.records {
		if _, exists := c.index[r.ID]; !exists {
			c.index[r.ID] = i
		}
	}

	return c
}

// Load pulls the collection from source, validates it and builds a controller.
func Load(ctx context.Context, source RecordSource, opts ...Option) (*Controller, error) {
	records, err := source.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if err := models.ValidateRecords(records); err != nil {
		return nil, fmt.Errorf("validate records: %w", err)
	}

	c := New(records, opts...)
	for _, r := range records {
		if r.HasDifferenceDrift() {
			c.logger.Warn("stored total difference disagrees with quantity x unit difference",
				zap.String("id", r.ID),
				zap.String("stored", r.TotalDifference.String()),
				zap.String("expected", r.ExpectedTotalDifference().String()))
		}
	}
	c.logger.Info("records loaded", zap.Int("count", len(records)))

	return c, nil
}

// SetActiveFilter replaces the status filter.
func (c *Controller) SetActiveFilter(status models.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = status
}

// SetSearchText replaces the search text verbatim.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = text
}

// ActiveFilter returns the current status filter.
func (c *Controller) ActiveFilter() models.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// SearchText returns the current search text.
func (c *Controller) SearchText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search
}

// Records returns a copy of the full collection in its original order.
func (c *Controller) Records() []models.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Record(nil), c.records...)
}

// VisibleRecords derives the filtered view from the current state.
func (c *Controller) VisibleRecords() []models.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return FilterRecords(c.records, c.filter, c.search)
}

// Statistics derives the aggregates over the full collection, ignoring filter and search.
func (c *Controller) Statistics() models.Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ComputeStatistics(c.records)
}

// View returns state and projections taken under a single read lock.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return View{
		ActiveFilter: c.filter,
		SearchText:   c.search,
		Records:      FilterRecords(c.records, c.filter, c.search),
		Statistics:   ComputeStatistics(c.records),
	}
}

// Subscribe registers fn to be called after each successful toggle.
// Listeners run one at a time after the state lock is released and always
// receive the statistics current at delivery. A listener may read the
// controller but must not toggle.
func (c *Controller) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// ToggleStatus flips the status of the record with the given id and stamps
// UpdatedAt with the current UTC date. Unknown ids leave the collection
// untouched and return ErrRecordNotFound.
func (c *Controller) ToggleStatus(id string) (models.Record, error) {
	c.mu.Lock()

	i, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		c.logger.Warn("toggle requested for unknown record", zap.String("id", id))
		return models.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	r := c.records[i]
	r.Status = r.Status.Toggle()
	r.UpdatedAt = c.now().UTC().Format(models.DateLayout)
	c.records[i] = r

	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	c.logger.Info("record status toggled",
		zap.String("id", id),
		zap.String("status", r.Status.String()),
		zap.String("updated_at", r.UpdatedAt))

	c.notify(listeners)

	return r, nil
}

// notify delivers the latest statistics. Reading them under notifyMu keeps
// the last delivery in line with the collection when toggles overlap.
func (c *Controller) notify(listeners []Listener) {
	if len(listeners) == 0 {
		return
	}

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	stats := c.Statistics()
	for _, fn := range listeners {
		fn(stats)
	}
}
