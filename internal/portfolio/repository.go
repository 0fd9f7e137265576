// Package portfolio keeps the caller-owned list of tracked positions. Every
// stored record carries the metrics computed from its input; records are
// rebuilt from scratch on each edit, never patched.
package portfolio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
)

var (
	ErrRecordNotFound  = errors.New("position record not found")
	ErrIndexOutOfRange = errors.New("position index out of range")
)

// Record is one tracked position: the user input and the metrics derived
// from it at the last recompute.
type Record struct {
	ID        string             `json:"id"`
	Input     calc.PositionInput `json:"input"`
	Metrics   calc.Metrics       `json:"metrics"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// IsRunning reports whether the position is still open.
func (r Record) IsRunning() bool {
	return r.Input.Status == calc.Running
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// Repository is an ordered in-memory store of position records.
type Repository struct {
	mu      sync.RWMutex
	records []Record
	calc    *calc.Calculator
	logger  *zap.Logger
	now     func() time.Time
}

// NewRepository creates an empty repository computing metrics with c.
// A nil calculator falls back to calc.Default().
func NewRepository(c *calc.Calculator, logger *zap.Logger, opts ...Option) *Repository {
	if c == nil {
		c = calc.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{
		calc:   c,
		logger: logger.Named("portfolio"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Calculator returns the calculator records are computed with.
func (r *Repository) Calculator() *calc.Calculator {
	return r.calc
}

// Add computes metrics for in and appends a new record. Nothing is stored
// when the computation fails.
func (r *Repository) Add(in calc.PositionInput) (Record, error) {
	now := r.now()
	in = stamp(in, now)

	m, err := r.calc.Compute(in)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.New().String(),
		Input:     in,
		Metrics:   m,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	r.logger.Info("Position added",
		zap.String("id", rec.ID),
		zap.String("symbol", in.Symbol),
		zap.String("direction", in.Direction.String()),
		zap.String("status", in.Status.String()),
		zap.Float64("liquidation_price", m.LiquidationPrice))

	return rec, nil
}

// Update replaces the input of the record with the given ID and recomputes it.
func (r *Repository) Update(id string, in calc.PositionInput) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return Record{}, fmt.Errorf("update %s: %w", id, ErrRecordNotFound)
	}
	return r.replaceLocked(idx, in)
}

// ReplaceAt replaces the input of the record at position i and recomputes it.
func (r *Repository) ReplaceAt(i int, in calc.PositionInput) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.records) {
		return Record{}, fmt.Errorf("replace at %d: %w", i, ErrIndexOutOfRange)
	}
	return r.replaceLocked(i, in)
}

func (r *Repository) replaceLocked(i int, in calc.PositionInput) (Record, error) {
	prev := r.records[i]
	if in.OpenedAt.IsZero() {
		in.OpenedAt = prev.Input.OpenedAt
	}
	now := r.now()
	in = stamp(in, now)

	m, err := r.calc.Compute(in)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        prev.ID,
		Input:     in,
		Metrics:   m,
		CreatedAt: prev.CreatedAt,
		UpdatedAt: now,
	}
	r.records[i] = rec

	if prev.Input.Status != in.Status {
		r.logger.Info("Position status changed",
			zap.String("id", rec.ID),
			zap.String("from", prev.Input.Status.String()),
			zap.String("to", in.Status.String()),
			zap.Float64("net_pnl", m.NetPnl))
	} else {
		r.logger.Debug("Position updated", zap.String("id", rec.ID))
	}
	return rec, nil
}

// Remove deletes the record with the given ID.
func (r *Repository) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrRecordNotFound)
	}
	r.deleteLocked(idx)
	return nil
}

// DeleteAt deletes the record at position i.
func (r *Repository) DeleteAt(i int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.records) {
		return fmt.Errorf("delete at %d: %w", i, ErrIndexOutOfRange)
	}
	r.deleteLocked(i)
	return nil
}

func (r *Repository) deleteLocked(i int) {
	id := r.records[i].ID
	r.records = append(r.records[:i], r.records[i+1:]...)
	r.logger.Info("Position removed", zap.String("id", id))
}

// Get returns the record with the given ID.
func (r *Repository) Get(id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return Record{}, fmt.Errorf("get %s: %w", id, ErrRecordNotFound)
	}
	return r.records[idx], nil
}

// List returns a copy of all records in insertion order.
func (r *Repository) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Record, len(r.records))
	copy(result, r.records)
	return result
}

// Len returns the number of records.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Recompute refreshes every running record as checked at now, so floating
// PnL and hold durations stay current. A record that fails keeps its previous
// metrics; the failures are returned joined.
func (r *Repository) Recompute(now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i, rec := range r.records {
		if !rec.IsRunning() {
			continue
		}
		in := rec.Input
		in.ClosedOrCheckedAt = now

		m, err := r.calc.Compute(in)
		if err != nil {
			r.logger.Warn("Failed to recompute position",
				zap.String("id", rec.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("recompute %s: %w", rec.ID, err))
			continue
		}
		r.records[i].Input = in
		r.records[i].Metrics = m
	}
	return errors.Join(errs...)
}

func (r *Repository) indexOf(id string) int {
	for i := range r.records {
		if r.records[i].ID == id {
			return i
		}
	}
	return -1
}

// stamp fills the timestamps a record needs: open time defaults to now, a
// running position is checked at now, and a closed one without a close time
// is closed now.
func stamp(in calc.PositionInput, now time.Time) calc.PositionInput {
	if in.OpenedAt.IsZero() {
		in.OpenedAt = now
	}
	if in.Status == calc.Running || in.ClosedOrCheckedAt.IsZero() {
		in.ClosedOrCheckedAt = now
	}
	return in
}
