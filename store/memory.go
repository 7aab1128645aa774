package store

import (
	"context"
	"sync"

	models "cafe-cart/model"
)

// MemoryStore keeps everything in process memory. Used by tests and the
// "memory" driver.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string]string
	records []models.OrderRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) ArchiveOrder(_ context.Context, rec models.OrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Lines = append([]models.CartLine(nil), rec.Lines...)
	m.records = append(m.records, rec)
	return nil
}

// Records returns archived receipts in the order they were written.
func (m *MemoryStore) Records() []models.OrderRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.OrderRecord(nil), m.records...)
}

func (m *MemoryStore) Close() error { return nil }
