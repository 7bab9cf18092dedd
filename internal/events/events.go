package events

import (
	"context"
	"errors"

	"github.com/ogero/movies-api/pkg/movie"
)

// Publisher publishes movie events.
type Publisher interface {
	// Publish delivers event to the underlying transport.
	Publish(ctx context.Context, event movie.Event) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, event movie.Event) error

// Publish calls f(ctx, event).
func (f PublisherFunc) Publish(ctx context.Context, event movie.Event) error {
	return f(ctx, event)
}

// Fanout returns a Publisher that publishes every event to all publishers.
// Every publisher is attempted; their errors are joined.
func Fanout(publishers ...Publisher) Publisher {
	return PublisherFunc(func(ctx context.Context, event movie.Event) error {
		var errs []error
		for _, p := range publishers {
			if err := p.Publish(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Discard is a Publisher that drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, movie.Event) error { return nil })
