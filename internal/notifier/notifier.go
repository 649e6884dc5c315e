// Package notifier delivers ledger notifications to their sinks. Every
// committed mutation produces exactly one event, emitted in commit order.
package notifier

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

type Notifier interface {
	Notify(ctx context.Context, event model.Event) error
}

// Fanout delivers an event to every sink and reports the combined failures.
// A failing sink never blocks the others.
type Fanout struct {
	sinks []Notifier
}

func NewFanout(sinks ...Notifier) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Notify(ctx context.Context, event model.Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
