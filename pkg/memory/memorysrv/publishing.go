package memorysrv

import (
	"context"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
)

// PublishingRepository notifica al Broker después de cada Save exitoso
type PublishingRepository struct {
	inner  memory.Repository
	broker *Broker
}

func NewPublishingRepository(inner memory.Repository, broker *Broker) *PublishingRepository {
	return &PublishingRepository{inner: inner, broker: broker}
}

func (r *PublishingRepository) Get(ctx context.Context, userID kernel.UserID) (*memory.Record, error) {
	return r.inner.Get(ctx, userID)
}

func (r *PublishingRepository) Save(ctx context.Context, record *memory.Record) error {
	if err := r.inner.Save(ctx, record); err != nil {
		return err
	}
	r.broker.Publish(record)
	return nil
}

func (r *PublishingRepository) Ping(ctx context.Context) error {
	if p, ok := r.inner.(memory.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
