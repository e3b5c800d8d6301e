package parcelmap

import (
	"sync"

	"github.com/agentstation/parcelmap/pkg/reconciler"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/report"
)

// Hook function types for reconciliation events
type (
	// RecordFlaggedHook is called for each WARNING entry of the quality report
	RecordFlaggedHook func(entry report.Entry)

	// RecordExcludedHook is called for each record rejected before matching
	RecordExcludedHook func(rej records.Rejection)

	// DuplicateHook is called for each record removed as a duplicate
	DuplicateHook func(dup *records.CanonicalRecord)
)

// hooks manages event callbacks for reconciliation results
type hooks struct {
	mu         sync.RWMutex
	onFlagged  []RecordFlaggedHook
	onExcluded []RecordExcludedHook
	onDup      []DuplicateHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnRecordFlagged registers a callback for flagged records
func (h *hooks) OnRecordFlagged(fn RecordFlaggedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFlagged = append(h.onFlagged, fn)
}

// OnRecordExcluded registers a callback for rejected records
func (h *hooks) OnRecordExcluded(fn RecordExcludedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onExcluded = append(h.onExcluded, fn)
}

// OnDuplicate registers a callback for duplicate records
func (h *hooks) OnDuplicate(fn DuplicateHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDup = append(h.onDup, fn)
}

// trigger fires every registered hook for result, in report order
func (h *hooks) trigger(result *reconciler.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, rej := range result.Rejections {
		for _, hook := range h.onExcluded {
			hook(rej)
		}
	}

	if result.Report != nil {
		for _, e := range result.Report.Entries {
			if e.Severity != report.SeverityWarning {
				continue
			}
			for _, hook := range h.onFlagged {
				hook(e)
			}
		}
	}

	for _, dup := range result.Duplicates {
		for _, hook := range h.onDup {
			hook(dup)
		}
	}
}
