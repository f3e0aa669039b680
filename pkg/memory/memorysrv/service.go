// pkg/memory/memorysrv/service.go
package memorysrv

import (
	"context"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/logx"
	"github.com/Abraxas-365/shohayok/pkg/memory"
)

// MemoryService expone la memoria de largo plazo en modo solo lectura
type MemoryService struct {
	repo   memory.Repository
	broker *Broker
}

// NewMemoryService crea el servicio. broker puede ser nil si no hay
// suscriptores en tiempo real.
func NewMemoryService(repo memory.Repository, broker *Broker) *MemoryService {
	return &MemoryService{
		repo:   repo,
		broker: broker,
	}
}

// GetMemory devuelve el snapshot del usuario, o nil si todavía no tiene
// memoria. Cualquier fallo del store se reporta como MEMORY.LOOKUP_FAILED o
// MEMORY.MALFORMED.
func (s *MemoryService) GetMemory(ctx context.Context, userID kernel.UserID) (*memory.Record, error) {
	if userID.IsEmpty() {
		return nil, memory.ErrInvalidUser()
	}

	rec, err := s.repo.Get(ctx, userID)
	if err != nil {
		if memory.IsNotFound(err) {
			return nil, nil
		}
		logx.WithError(err).WithField("user_id", userID.String()).Warn("memory lookup failed")
		if memory.IsLookupError(err) {
			return nil, err
		}
		return nil, memory.ErrLookupFailed().WithCause(err).WithDetail("user_id", userID.String())
	}
	if rec.Data == nil {
		return nil, memory.ErrMalformed().WithDetail("user_id", userID.String())
	}

	return rec, nil
}

// Subscribe registra un observador de escrituras para userID. The returned
// cancel func must be called once the caller stops reading.
func (s *MemoryService) Subscribe(userID kernel.UserID) (<-chan memory.Record, func()) {
	if s.broker == nil {
		ch := make(chan memory.Record)
		close(ch)
		return ch, func() {}
	}
	return s.broker.Subscribe(userID)
}

// Ping reports whether the backing store is reachable
func (s *MemoryService) Ping(ctx context.Context) error {
	if p, ok := s.repo.(memory.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
