package sponsorship

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/studxhq/studx/internal/listing"
)

// PostgresSlotStore reads the slot sequence from the sponsorship_sequences
// table.
type PostgresSlotStore struct {
	db *sql.DB
}

// NewPostgresSlotStore creates a slot store over the given database.
func NewPostgresSlotStore(db *sql.DB) *PostgresSlotStore {
	return &PostgresSlotStore{db: db}
}

// ListSlots returns the slot tuples in ascending slot order.
func (s *PostgresSlotStore) ListSlots(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT slot, item_type, item_id FROM sponsorship_sequences ORDER BY slot ASC")
	if err != nil {
		return nil, fmt.Errorf("sponsorship_sequences: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	slots := make([]Slot, 0)
	for rows.Next() {
		var slot Slot
		var kind string
		if err := rows.Scan(&slot.Slot, &kind, &slot.ItemID); err != nil {
			return nil, fmt.Errorf("sponsorship_sequences: scan: %w", err)
		}
		slot.Kind = listing.Kind(kind)
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sponsorship_sequences: rows: %w", err)
	}

	return slots, nil
}

// PostgresLegacyStore reads the legacy featured_items table left over from
// before the slot sequence existed.
type PostgresLegacyStore struct {
	db *sql.DB
}

// NewPostgresLegacyStore creates a legacy featured store.
func NewPostgresLegacyStore(db *sql.DB) *PostgresLegacyStore {
	return &PostgresLegacyStore{db: db}
}

// ListFeatured returns the legacy featured tuples, position doubling as slot.
func (s *PostgresLegacyStore) ListFeatured(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT position, item_type, item_id FROM featured_items ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("featured_items: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	slots := make([]Slot, 0)
	for rows.Next() {
		var slot Slot
		var kind string
		if err := rows.Scan(&slot.Slot, &kind, &slot.ItemID); err != nil {
			return nil, fmt.Errorf("featured_items: scan: %w", err)
		}
		slot.Kind = listing.Kind(kind)
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("featured_items: rows: %w", err)
	}

	return slots, nil
}

// MemorySlotStore is an in-memory SlotStore for tests and local development.
// Thread-safe via RWMutex.
type MemorySlotStore struct {
	mu    sync.RWMutex
	slots []Slot
}

// NewMemorySlotStore creates an empty in-memory slot store.
func NewMemorySlotStore() *MemorySlotStore {
	return &MemorySlotStore{}
}

// Set replaces the whole slot sequence.
func (m *MemorySlotStore) Set(slots []Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = make([]Slot, len(slots))
	copy(m.slots, slots)
}

// ListSlots returns a copy of the current slot sequence.
func (m *MemorySlotStore) ListSlots(ctx context.Context) ([]Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Slot, len(m.slots))
	copy(out, m.slots)
	return out, nil
}

// ListFeatured lets a MemorySlotStore double as a LegacyStore in tests.
func (m *MemorySlotStore) ListFeatured(ctx context.Context) ([]Slot, error) {
	return m.ListSlots(ctx)
}
