// Package memstore is the in-memory entity store backing every collection.
//
// A Store owns its records from a single goroutine. Callers send commands
// over a channel and wait for the reply, so each command is applied
// atomically relative to the others without locks. Reads hand out deep
// copies; callers can never reach the stored values.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
)

// ErrClosed is returned for commands sent after Close.
var ErrClosed = errors.New("store closed")

// Options configures a Store.
type Options[T any] struct {
	// Name labels the collection in errors and metrics.
	Name string
	// Latency delays every reply to simulate a remote call.
	Latency time.Duration
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
	// NewID defaults to a random UUID.
	NewID func() string
	// OnChange receives a snapshot after every successful mutation. It runs
	// on the store goroutine, so snapshots arrive in mutation order.
	OnChange func(snapshot []T)
	Metrics  *metrics.Metrics
}

type result[T any] struct {
	record  T
	records []T
	ok      bool
	err     error
	mutated bool
}

type command[T any] struct {
	ctx   context.Context
	op    string
	apply func() result[T]
	reply chan result[T]
}

// Store is a generic versioned collection. The zero value is not usable;
// construct with New and release with Close.
type Store[T any, P entities.Record[T]] struct {
	name     string
	latency  time.Duration
	clock    func() time.Time
	newID    func() string
	onChange func([]T)
	metrics  *metrics.Metrics

	records []T

	cmds      chan command[T]
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New starts a store with the given initial records.
func New[T any, P entities.Record[T]](opts Options[T], initial ...T) *Store[T, P] {
	s := &Store[T, P]{
		name:     opts.Name,
		latency:  opts.Latency,
		clock:    opts.Clock,
		newID:    opts.NewID,
		onChange: opts.OnChange,
		metrics:  opts.Metrics,
		records:  cloneAll[T, P](initial),
		cmds:     make(chan command[T]),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.name == "" {
		s.name = "records"
	}

	go s.loop()
	return s
}

// Close stops the store goroutine. Pending callers receive ErrClosed.
func (s *Store[T, P]) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
}

func (s *Store[T, P]) loop() {
	defer close(s.stopped)
	s.metrics.SetStoreSize(s.name, len(s.records))

	for {
		select {
		case cmd := <-s.cmds:
			// A caller that gave up before the command was picked up does
			// not get its mutation applied.
			if err := cmd.ctx.Err(); err != nil {
				cmd.reply <- result[T]{err: err}
				continue
			}
			res := cmd.apply()
			if res.mutated {
				s.metrics.SetStoreSize(s.name, len(s.records))
				if s.onChange != nil {
					s.onChange(cloneAll[T, P](s.records))
				}
			}
			cmd.reply <- res
		case <-s.quit:
			return
		}
	}
}

// do sends a command and waits for its reply and the simulated latency.
// Once the store has accepted a command the mutation is applied even if
// ctx ends while the caller is still waiting.
func (s *Store[T, P]) do(ctx context.Context, op string, apply func() result[T]) result[T] {
	reply := make(chan result[T], 1)
	cmd := command[T]{ctx: ctx, op: op, apply: apply, reply: reply}

	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return result[T]{err: ctx.Err()}
	case <-s.quit:
		return result[T]{err: ErrClosed}
	}

	res := <-reply
	s.metrics.ObserveStoreOp(s.name, op, res.err)

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return result[T]{err: ctx.Err()}
		}
	}
	return res
}

// Create assigns a fresh id and creation timestamps, appends the record
// and returns a copy of what was stored.
func (s *Store[T, P]) Create(ctx context.Context, record T) (T, error) {
	res := s.do(ctx, "create", func() result[T] {
		rec := P(&record).Clone()
		P(&rec).SetID(s.newID())
		P(&rec).Stamp(s.clock())
		s.records = append(s.records, rec)
		return result[T]{record: P(&rec).Clone(), mutated: true}
	})
	return res.record, res.err
}

// GetByID returns a copy of the record with id.
func (s *Store[T, P]) GetByID(ctx context.Context, id string) (T, error) {
	res := s.do(ctx, "get", func() result[T] {
		i := s.indexOf(id)
		if i < 0 {
			return result[T]{err: s.notFound(id)}
		}
		return result[T]{record: P(&s.records[i]).Clone()}
	})
	return res.record, res.err
}

// Update applies mutate to a copy of the record and stores it with a fresh
// update timestamp. When mutate fails the stored record is left untouched.
// The record id cannot be changed.
func (s *Store[T, P]) Update(ctx context.Context, id string, mutate entities.Mutator[T]) (T, error) {
	res := s.do(ctx, "update", func() result[T] {
		i := s.indexOf(id)
		if i < 0 {
			return result[T]{err: s.notFound(id)}
		}
		next := P(&s.records[i]).Clone()
		if mutate != nil {
			if err := mutate(&next); err != nil {
				return result[T]{err: err}
			}
		}
		P(&next).SetID(id)
		P(&next).Touch(s.clock())
		s.records[i] = next
		return result[T]{record: P(&next).Clone(), mutated: true}
	})
	return res.record, res.err
}

// Delete removes the record with id. It reports false, not an error, when
// no record matched.
func (s *Store[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	res := s.do(ctx, "delete", func() result[T] {
		i := s.indexOf(id)
		if i < 0 {
			return result[T]{}
		}
		s.records = append(s.records[:i], s.records[i+1:]...)
		return result[T]{ok: true, mutated: true}
	})
	return res.ok, res.err
}

// List returns copies of all records in insertion order.
func (s *Store[T, P]) List(ctx context.Context) ([]T, error) {
	res := s.do(ctx, "list", func() result[T] {
		return result[T]{records: cloneAll[T, P](s.records)}
	})
	return res.records, res.err
}

// Filter returns copies of the records keep accepts, in insertion order.
// keep sees a copy and cannot alter stored state.
func (s *Store[T, P]) Filter(ctx context.Context, keep func(*T) bool) ([]T, error) {
	res := s.do(ctx, "filter", func() result[T] {
		out := make([]T, 0)
		for i := range s.records {
			rec := P(&s.records[i]).Clone()
			if keep(&rec) {
				out = append(out, rec)
			}
		}
		return result[T]{records: out}
	})
	return res.records, res.err
}

// Replace swaps the whole collection, as when loading persisted state. It
// does not fire OnChange.
func (s *Store[T, P]) Replace(ctx context.Context, records []T) error {
	res := s.do(ctx, "replace", func() result[T] {
		s.records = cloneAll[T, P](records)
		s.metrics.SetStoreSize(s.name, len(s.records))
		return result[T]{}
	})
	return res.err
}

func (s *Store[T, P]) indexOf(id string) int {
	for i := range s.records {
		if P(&s.records[i]).GetID() == id {
			return i
		}
	}
	return -1
}

func (s *Store[T, P]) notFound(id string) error {
	return fmt.Errorf("%s %q: %w", s.name, id, entities.ErrNotFound)
}

func cloneAll[T any, P entities.Record[T]](in []T) []T {
	out := make([]T, len(in))
	for i := range in {
		out[i] = P(&in[i]).Clone()
	}
	return out
}
