// Package events composes EventPublisher implementations.
package events

import (
	"context"
	"errors"

	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
)

// Fanout delivers every event to each sink in order. One failing sink does
// not stop delivery to the rest; all failures are joined.
type Fanout []interfaces.EventPublisher

func (f Fanout) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ interfaces.EventPublisher = Fanout(nil)
