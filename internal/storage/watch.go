package storage

import (
	"context"

	"github.com/manav03panchal/birthdays/internal/event"
)

// Watch subscribes to topics on bus and calls fn with a fresh fetch right
// away and after every matching event. The subscription ends when ctx is
// done or it is cancelled; nothing is delivered after that.
func Watch[T any](ctx context.Context, bus *event.Bus, owner string, topics []event.Topic,
	fetch func(context.Context) ([]T, error), fn func([]T, error)) *event.Subscription {

	sub := bus.Subscribe(owner, func(event.Event) {
		if ctx.Err() != nil {
			return
		}
		items, err := fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		fn(items, err)
	}, topics...)

	stop := context.AfterFunc(ctx, sub.Cancel)
	go func() {
		<-sub.Done()
		stop()
	}()

	initial := event.Event{OwnerID: owner}
	if len(topics) > 0 {
		initial.Topic = topics[0]
	}
	sub.Kick(initial)
	return sub
}
