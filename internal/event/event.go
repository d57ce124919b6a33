// Package event carries domain events out of the engine after a commit.
package event

import (
	"context"
	"errors"
	"time"
)

const (
	TypeSaleCompleted    = "sale.completed"
	TypeStockTransferred = "stock.transferred"
	TypeItemChanged      = "item.changed"
)

// Event is the wire shape pushed to websocket clients and redis subscribers
type Event struct {
	Type       string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func New(eventType string, data any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher. All of them are tried even
// when one fails; the errors are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
