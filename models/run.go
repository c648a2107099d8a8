package models

import (
	"sync"
	"time"
)

// HarvestRun is the append-only record set of one harvest invocation.
// It is created when the run starts and discarded once the result is built.
type HarvestRun struct {
	ID        string
	StartedAt time.Time

	mu       sync.Mutex
	records  []OfferRecord
	titles   map[string]struct{}
	failures []error
}

// NewHarvestRun creates an empty run.
func NewHarvestRun(id string, startedAt time.Time) *HarvestRun {
	return &HarvestRun{
		ID:        id,
		StartedAt: startedAt,
		titles:    make(map[string]struct{}),
	}
}

// Append adds records in order. Safe for concurrent use.
func (r *HarvestRun) Append(records ...OfferRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records = append(r.records, rec)
		r.titles[rec.Title] = struct{}{}
	}
}

// AppendUnique adds the record only if no record with the exact same title
// is already in the run. It reports whether the record was added.
func (r *HarvestRun) AppendUnique(rec OfferRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.titles[rec.Title]; dup {
		return false
	}
	r.records = append(r.records, rec)
	r.titles[rec.Title] = struct{}{}
	return true
}

// Records returns a copy of the record sequence.
func (r *HarvestRun) Records() []OfferRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OfferRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records collected so far.
func (r *HarvestRun) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// CountBySource returns how many records each source contributed.
func (r *HarvestRun) CountBySource() map[Source]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[Source]int)
	for _, rec := range r.records {
		counts[rec.Source]++
	}
	return counts
}

// RecordFailure keeps an adapter-level error for the run result.
func (r *HarvestRun) RecordFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

// Failures returns the adapter errors recorded during the run.
func (r *HarvestRun) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.failures))
	copy(out, r.failures)
	return out
}
