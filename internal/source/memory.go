package source

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/studxhq/studx/internal/listing"
)

// MemoryAdapter is an in-memory Adapter implementation, thread-safe via
// RWMutex. It backs tests and local development.
type MemoryAdapter struct {
	kind listing.Kind

	mu      sync.RWMutex
	records map[string]listing.RawRecord // id -> record
}

// NewMemoryAdapter creates an empty in-memory adapter for one kind.
func NewMemoryAdapter(kind listing.Kind) *MemoryAdapter {
	return &MemoryAdapter{
		kind:    kind,
		records: make(map[string]listing.RawRecord),
	}
}

// Kind reports which collection this adapter serves.
func (m *MemoryAdapter) Kind() listing.Kind {
	return m.kind
}

// Put stores a record, generating an id when the record has none.
// Returns the record id.
func (m *MemoryAdapter) Put(rec listing.RawRecord) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}

	stored := make(listing.RawRecord, len(rec)+1)
	for k, v := range rec {
		stored[k] = v
	}
	stored["id"] = id
	m.records[id] = stored
	return id
}

// Delete removes a record by id. Missing ids are a no-op.
func (m *MemoryAdapter) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}

// Fetch returns raw records matching the filter.
func (m *MemoryAdapter) Fetch(ctx context.Context, f Filter) ([]listing.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]listing.RawRecord, 0, len(m.records))
	for id, rec := range m.records {
		if f.ExcludeID != "" && id == f.ExcludeID {
			continue
		}
		if !matchesEquals(rec, f.Equals) {
			continue
		}
		if !matchesOrSubstring(rec, f.OrSubstring) {
			continue
		}
		matched = append(matched, copyRecord(rec))
	}

	if f.OrderByCreatedAtDesc {
		sortByCreatedDesc(matched)
	}

	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	return matched, nil
}

// Lookup returns a single record by id, or ErrNotFound.
func (m *MemoryAdapter) Lookup(ctx context.Context, id string) (listing.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// matchesEquals checks all equality predicates conjunctively.
func matchesEquals(rec listing.RawRecord, equals map[string]string) bool {
	for field, want := range equals {
		got, _ := rec[field].(string)
		if got != want {
			return false
		}
	}
	return true
}

// matchesOrSubstring checks the OR-joined substring predicates. An empty
// predicate list matches everything.
func matchesOrSubstring(rec listing.RawRecord, terms []FieldTerm) bool {
	if len(terms) == 0 {
		return true
	}
	for _, ft := range terms {
		val, _ := rec[ft.Field].(string)
		if val == "" || ft.Term == "" {
			continue
		}
		if strings.Contains(strings.ToLower(val), strings.ToLower(ft.Term)) {
			return true
		}
	}
	return false
}

// sortByCreatedDesc orders records newest-first, id ascending on ties for
// stable output. Records without a timestamp sort last; the normalizer drops
// them later anyway.
func sortByCreatedDesc(recs []listing.RawRecord) {
	sort.Slice(recs, func(i, j int) bool {
		ti, iok := listing.CreatedAt(recs[i])
		tj, jok := listing.CreatedAt(recs[j])
		if iok != jok {
			return iok
		}
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		idI, _ := recs[i]["id"].(string)
		idJ, _ := recs[j]["id"].(string)
		return idI < idJ
	})
}

// copyRecord returns a shallow copy to prevent external mutation of the
// stored map.
func copyRecord(rec listing.RawRecord) listing.RawRecord {
	out := make(listing.RawRecord, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
