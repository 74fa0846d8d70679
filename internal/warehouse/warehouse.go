package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/supplymart/internal/ctxlog"
)

// Partition is a logical namespace of tables.
type Partition string

const (
	Raw          Partition = "raw"
	Staging      Partition = "staging"
	Intermediate Partition = "intermediate"
	Marts        Partition = "marts"
)

var (
	// ErrTableNotFound is returned when reading a table that was never committed.
	ErrTableNotFound = errors.New("table not found")
	// ErrHandleReleased is returned when a released handle is used again.
	ErrHandleReleased = errors.New("handle already released")
)

type tableKey struct {
	partition Partition
	name      string
}

func (k tableKey) String() string {
	return string(k.partition) + "." + k.name
}

// entry keeps the row count next to the rows so callers can report sizes
// without knowing the row type.
type entry struct {
	rows  any
	count int
}

// Warehouse is the committed state of all tables.
type Warehouse struct {
	mu     sync.RWMutex
	tables map[tableKey]entry
}

// New creates an empty warehouse.
func New() *Warehouse {
	return &Warehouse{tables: make(map[tableKey]entry)}
}

// Acquire opens a handle scoped to one stage run.
func (w *Warehouse) Acquire(ctx context.Context, owner string) *Handle {
	ctxlog.FromContext(ctx).Debug("Storage handle acquired.", "owner", owner)
	return &Handle{
		ctx:     ctx,
		w:       w,
		owner:   owner,
		pending: make(map[tableKey]entry),
	}
}

// Tables lists the committed table names in a partition, sorted.
func (w *Warehouse) Tables(p Partition) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var names []string
	for k := range w.tables {
		if k.partition == p {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the committed row count of a table.
func (w *Warehouse) Count(p Partition, name string) (int, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.tables[tableKey{p, name}]
	return e.count, ok
}

// Lookup returns the committed rows of a table outside of any handle. It is
// meant for inspection after a run.
func Lookup[T any](w *Warehouse, p Partition, name string) ([]T, error) {
	w.mu.RLock()
	e, ok := w.tables[tableKey{p, name}]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", p, name, ErrTableNotFound)
	}
	return cast[T](tableKey{p, name}, e)
}

func cast[T any](k tableKey, e entry) ([]T, error) {
	rows, ok := e.rows.([]T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("%s holds %T, not []%T", k, e.rows, zero)
	}
	return rows, nil
}

// Handle is a stage-scoped view of the warehouse with buffered writes.
type Handle struct {
	ctx      context.Context
	w        *Warehouse
	owner    string
	pending  map[tableKey]entry
	order    []tableKey
	released bool
}

// Replace buffers a full replacement of a table.
func Replace[T any](h *Handle, p Partition, name string, rows []T) error {
	if h.released {
		return ErrHandleReleased
	}
	if rows == nil {
		rows = []T{}
	}
	k := tableKey{p, name}
	if _, ok := h.pending[k]; !ok {
		h.order = append(h.order, k)
	}
	h.pending[k] = entry{rows: rows, count: len(rows)}
	return nil
}

// Read returns a table as seen by this handle: its own buffered write if
// there is one, the committed build otherwise.
func Read[T any](h *Handle, p Partition, name string) ([]T, error) {
	if h.released {
		return nil, ErrHandleReleased
	}
	k := tableKey{p, name}
	if e, ok := h.pending[k]; ok {
		return cast[T](k, e)
	}
	return Lookup[T](h.w, p, name)
}

// Commit publishes every buffered table, replacing previous builds.
func (h *Handle) Commit() error {
	if h.released {
		return ErrHandleReleased
	}
	logger := ctxlog.FromContext(h.ctx)

	h.w.mu.Lock()
	for _, k := range h.order {
		h.w.tables[k] = h.pending[k]
	}
	h.w.mu.Unlock()

	for _, k := range h.order {
		logger.Info("Table rebuilt.", "table", k.String(), "rows", h.pending[k].count, "owner", h.owner)
	}
	h.pending = make(map[tableKey]entry)
	h.order = nil
	return nil
}

// Release closes the handle. Uncommitted writes are dropped. It is safe to
// call more than once.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	if len(h.order) > 0 {
		ctxlog.FromContext(h.ctx).Warn("Discarding uncommitted tables.", "owner", h.owner, "tables", len(h.order))
	}
	h.pending = nil
	h.order = nil
	ctxlog.FromContext(h.ctx).Debug("Storage handle released.", "owner", h.owner)
}
