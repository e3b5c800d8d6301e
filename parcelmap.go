// Package parcelmap reconciles property records from a structured API and
// scraped assessor pages into one deduplicated, scored record per parcel.
//
// The pipeline lives in pkg/reconciler; this package wraps it with
// producer intake, an optional consumer for the final output, and event
// hooks for records that need attention.
package parcelmap

import (
	"context"
	"sync"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/reconciler"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/sources"
)

// Client reconciles record batches and reports notable records to hooks.
type Client interface {
	// Reconcile acquires records from every producer and reconciles them
	Reconcile(ctx context.Context, ps ...sources.Producer) (*reconciler.Result, error)

	// Run reconciles an in-memory batch
	Run(ctx context.Context, raws []records.RawRecord) (*reconciler.Result, error)

	// Last returns the most recent successful result, or nil
	Last() *reconciler.Result

	// OnRecordFlagged registers a callback for WARNING report entries
	OnRecordFlagged(RecordFlaggedHook)

	// OnRecordExcluded registers a callback for rejected records
	OnRecordExcluded(RecordExcludedHook)

	// OnDuplicate registers a callback for records removed as duplicates
	OnDuplicate(DuplicateHook)
}

// client is the internal implementation of the Client interface
type client struct {
	mu     sync.RWMutex
	config *config
	rec    reconciler.Reconciler
	last   *reconciler.Result

	hooks *hooks
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	rec, err := reconciler.New(cfg.reconcilerOptions()...)
	if err != nil {
		return nil, err
	}

	return &client{
		config: cfg,
		rec:    rec,
		hooks:  newHooks(),
	}, nil
}

// Run reconciles raws in one call with a throwaway client.
func Run(ctx context.Context, raws []records.RawRecord, opts ...Option) (*reconciler.Result, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, raws)
}

// Reconcile implements Client.
func (c *client) Reconcile(ctx context.Context, ps ...sources.Producer) (*reconciler.Result, error) {
	if len(ps) == 0 {
		return nil, errors.NewValidationError("producers", nil, "at least one producer is required")
	}
	result, err := c.rec.Producers(ctx, ps...)
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, result)
}

// Run implements Client.
func (c *client) Run(ctx context.Context, raws []records.RawRecord) (*reconciler.Result, error) {
	result, err := c.rec.Run(ctx, raws)
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, result)
}

// finish hands the result to the consumer, fires hooks and records it as last.
func (c *client) finish(ctx context.Context, result *reconciler.Result) (*reconciler.Result, error) {
	if c.config.consumer != nil {
		if err := c.config.consumer.Consume(ctx, result.Records, result.Report); err != nil {
			return nil, err
		}
	}

	c.hooks.trigger(result)

	c.mu.Lock()
	c.last = result
	c.mu.Unlock()
	return result, nil
}

// Last implements Client.
func (c *client) Last() *reconciler.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// OnRecordFlagged implements Client.
func (c *client) OnRecordFlagged(fn RecordFlaggedHook) { c.hooks.OnRecordFlagged(fn) }

// OnRecordExcluded implements Client.
func (c *client) OnRecordExcluded(fn RecordExcludedHook) { c.hooks.OnRecordExcluded(fn) }

// OnDuplicate implements Client.
func (c *client) OnDuplicate(fn DuplicateHook) { c.hooks.OnDuplicate(fn) }
