// Package sources defines the producers that supply raw property records to a
// reconciliation run. Producers only acquire and tag records; every
// normalization decision is left to the normalizer.
//
// Example usage:
//
//	api := sources.NewNDJSONFile("county-api.ndjson", sources.WithOrigin(records.OriginAPI))
//	pages := sources.NewHTMLDir("pages/", cfg.HTMLSelectors)
//	raws, err := sources.NewMulti(api, pages).Produce(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
package sources

import (
	"context"
	"sort"
	"sync"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/records"
)

// Producer yields raw records tagged with their origin.
type Producer interface {
	// Name identifies the producer in logs and metrics
	Name() string

	// Produce acquires every record this producer has
	Produce(ctx context.Context) ([]records.RawRecord, error)
}

// Registry is a thread-safe container of named producers.
type Registry struct {
	mu        sync.RWMutex
	producers map[string]Producer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{producers: make(map[string]Producer)}
}

// Get returns a producer by name.
func (r *Registry) Get(name string) (Producer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, found := r.producers[name]
	return p, found
}

// Set registers a producer under its name.
func (r *Registry) Set(p Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers[p.Name()] = p
}

// Delete removes a producer by name.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.producers, name)
}

// Len returns the number of producers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.producers)
}

// List returns the producers ordered by name.
func (r *Registry) List() []Producer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Producer, 0, len(r.producers))
	for _, p := range r.producers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Static serves a fixed record set.
type Static struct {
	name string
	recs []records.RawRecord
}

// NewStatic creates a producer over recs.
func NewStatic(name string, recs []records.RawRecord) *Static {
	return &Static{name: name, recs: recs}
}

// Name implements Producer.
func (s *Static) Name() string { return s.name }

// Produce implements Producer.
func (s *Static) Produce(ctx context.Context) ([]records.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapCanceled(err)
	}
	return append([]records.RawRecord(nil), s.recs...), nil
}

// Multi concatenates producers in order.
type Multi struct {
	producers []Producer
}

// NewMulti creates a producer over ps.
func NewMulti(ps ...Producer) *Multi {
	return &Multi{producers: ps}
}

// Name implements Producer.
func (m *Multi) Name() string { return "multi" }

// Produce implements Producer. The first failing producer aborts the run.
func (m *Multi) Produce(ctx context.Context) ([]records.RawRecord, error) {
	var out []records.RawRecord
	for _, p := range m.producers {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapCanceled(err)
		}
		recs, err := p.Produce(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// Counts returns the number of records per origin.
func Counts(recs []records.RawRecord) map[records.Origin]int {
	out := make(map[records.Origin]int)
	for _, r := range recs {
		out[r.Origin]++
	}
	return out
}
