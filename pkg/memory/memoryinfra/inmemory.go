package memoryinfra

import (
	"context"
	"sync"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
)

// InMemoryRepository guarda las memorias en el proceso. Useful for
// development and tests; data is lost on restart.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[kernel.UserID]*memory.Record
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[kernel.UserID]*memory.Record),
	}
}

func (r *InMemoryRepository) Get(ctx context.Context, userID kernel.UserID) (*memory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[userID]
	if !ok {
		return nil, memory.ErrMemoryNotFound().WithDetail("user_id", userID.String())
	}
	return rec.Clone(), nil
}

func (r *InMemoryRepository) Save(ctx context.Context, record *memory.Record) error {
	if record == nil || record.UserID.IsEmpty() {
		return memory.ErrInvalidUser()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.UserID] = record.Clone()
	return nil
}

// Len returns the number of users with memory
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
