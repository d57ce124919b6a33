package service

import (
	"context"
	"time"

	"retailpos/internal/event"

	"github.com/rs/zerolog/log"
)

const (
	DefaultSkuAllocationAttempts = 3
	DefaultTxTimeout             = 10 * time.Second
)

// Options tunes the transaction services; zero fields take the defaults
type Options struct {
	SkuAllocationAttempts int
	TxTimeout             time.Duration
}

func (o Options) withDefaults() Options {
	if o.SkuAllocationAttempts <= 0 {
		o.SkuAllocationAttempts = DefaultSkuAllocationAttempts
	}
	if o.TxTimeout <= 0 {
		o.TxTimeout = DefaultTxTimeout
	}
	return o
}

// publish sends evt after a commit. Failures are logged only.
func publish(ctx context.Context, p event.Publisher, evt event.Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := p.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("event", evt.Type).Msg("failed to publish domain event")
	}
}
