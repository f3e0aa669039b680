package checkpoint

import (
	"context"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/logx"
)

// Janitor servicio de limpieza en background para hilos expirados
type Janitor struct {
	pruner   Pruner
	interval time.Duration
}

// NewJanitor crea un nuevo servicio de limpieza
func NewJanitor(pruner Pruner, interval time.Duration) *Janitor {
	return &Janitor{
		pruner:   pruner,
		interval: interval,
	}
}

// Start corre la limpieza cada interval hasta que ctx termine
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("Checkpoint janitor stopped")
			return
		case <-ticker.C:
			j.runCleanup(ctx)
		}
	}
}

func (j *Janitor) runCleanup(ctx context.Context) {
	removed, err := j.pruner.Prune(ctx)
	if err != nil {
		logx.WithError(err).Error("Error pruning expired threads")
		return
	}
	if removed > 0 {
		logx.WithField("removed", removed).Debug("Pruned expired threads")
	}
}
