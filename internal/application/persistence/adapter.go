// Package persistence moves entity collections between the in-memory stores
// and the durable key/value backend. Writes never fail the caller: storage
// errors are logged, counted and absorbed.
package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/ports"
)

const defaultTimeout = 5 * time.Second

// Adapter serializes collections to a ports.KVStore.
type Adapter struct {
	kv      ports.KVStore
	logger  *logger.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// New creates an adapter. m may be nil.
func New(kv ports.KVStore, log *logger.Logger, m *metrics.Metrics) *Adapter {
	return &Adapter{
		kv:      kv,
		logger:  log.WithComponent("persistence"),
		metrics: m,
		timeout: defaultTimeout,
	}
}

// Save writes collection under key as JSON.
func (a *Adapter) Save(ctx context.Context, key string, collection interface{}) {
	data, err := json.Marshal(collection)
	if err != nil {
		a.fail("encode", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.kv.Set(ctx, key, string(data)); err != nil {
		a.fail("save", key, err)
	}
}

// Ping reports whether the backend is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.kv.Ping(ctx)
}

// Close releases the backend.
func (a *Adapter) Close() error {
	return a.kv.Close()
}

func (a *Adapter) fail(op, key string, err error) {
	a.logger.LogStorageFailure(op, key, err)
	a.metrics.ObserveStorageFailure(op, key)
}

// Load reads the collection stored under key. A missing key, a backend
// error or unparsable data all yield def.
func Load[T any](ctx context.Context, a *Adapter, key string, def []T) []T {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, ok, err := a.kv.Get(ctx, key)
	if err != nil {
		a.fail("load", key, err)
		return def
	}
	if !ok {
		return def
	}

	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		a.fail("decode", key, err)
		return def
	}
	return out
}

// SaveOnChange returns a store change hook that flushes every snapshot to
// key. The hook runs on the store goroutine, so writes land in mutation
// order.
func SaveOnChange[T any](a *Adapter, key string) func([]T) {
	return func(snapshot []T) {
		a.Save(context.Background(), key, snapshot)
	}
}
