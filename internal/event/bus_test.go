package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) topics() []Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Topic, len(r.events))
	for i, e := range r.events {
		out[i] = e.Topic
	}
	return out
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// =============================================================================
// Delivery Tests
// =============================================================================

func TestPublishDelivers(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	var rec recorder
	bus.Subscribe("", rec.handle, TopicBirthdays)

	bus.Publish(Event{Topic: TopicBirthdays})
	require.Eventually(t, func() bool { return rec.len() == 1 }, waitFor, 5*time.Millisecond)

	rec.mu.Lock()
	assert.False(t, rec.events[0].At.IsZero(), "publish stamps the event time")
	rec.mu.Unlock()
}

func TestTopicFilter(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	var groups, all recorder
	bus.Subscribe("", groups.handle, TopicGroups)
	bus.Subscribe("", all.handle)

	bus.Publish(Event{Topic: TopicBirthdays})
	require.Eventually(t, func() bool { return all.len() == 1 }, waitFor, 5*time.Millisecond)

	bus.Publish(Event{Topic: TopicGroups})
	require.Eventually(t, func() bool { return groups.len() == 1 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, []Topic{TopicGroups}, groups.topics())
}

func TestOwnerFilter(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	var alice, bob recorder
	bus.Subscribe("alice", alice.handle)
	bus.Subscribe("bob", bob.handle)

	bus.Publish(Event{Topic: TopicGroups, OwnerID: "alice"})
	require.Eventually(t, func() bool { return alice.len() == 1 }, waitFor, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, bob.len(), "events never cross principals")
}

func TestKickBypassesFilters(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	var rec recorder
	sub := bus.Subscribe("alice", rec.handle, TopicGroups)
	sub.Kick(Event{Topic: TopicBirthdays})

	require.Eventually(t, func() bool { return rec.len() == 1 }, waitFor, 5*time.Millisecond)
}

// =============================================================================
// Coalescing Tests
// =============================================================================

func TestSlowSubscriberIsCoalesced(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	release := make(chan struct{})
	var calls atomic.Int32
	bus.Subscribe("", func(Event) {
		if calls.Add(1) == 1 {
			<-release
		}
	})

	bus.Publish(Event{Topic: TopicBirthdays})
	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, 5*time.Millisecond)

	// The handler is blocked: one event fits in the mailbox, the rest fold into it.
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Topic: TopicBirthdays})
	}
	close(release)

	require.Eventually(t, func() bool { return calls.Load() == 2 }, waitFor, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	bus.Subscribe("", func(Event) { <-block })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Topic: TopicGroups})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHandlerMayPublish(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	var rec recorder
	bus.Subscribe("", func(e Event) {
		rec.handle(e)
		if e.Topic == TopicGroups {
			bus.Publish(Event{Topic: TopicBirthdays})
		}
	})

	bus.Publish(Event{Topic: TopicGroups})
	require.Eventually(t, func() bool { return rec.len() == 2 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, []Topic{TopicGroups, TopicBirthdays}, rec.topics())
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestCancel(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	var rec recorder
	sub := bus.Subscribe("", rec.handle)
	assert.Equal(t, 1, bus.Subscribers())

	sub.Cancel()
	sub.Cancel()

	select {
	case <-sub.Done():
	case <-time.After(waitFor):
		t.Fatal("subscription goroutine did not exit")
	}
	assert.Equal(t, 0, bus.Subscribers())

	bus.Publish(Event{Topic: TopicGroups})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.len())
}

func TestCancelFromHandler(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	var sub *Subscription
	ready := make(chan struct{})
	sub = bus.Subscribe("", func(Event) {
		<-ready
		sub.Cancel()
	})
	close(ready)

	bus.Publish(Event{Topic: TopicGroups})
	select {
	case <-sub.Done():
	case <-time.After(waitFor):
		t.Fatal("handler could not cancel its own subscription")
	}
}

func TestClose(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("", func(Event) {})

	bus.Close()
	bus.Close()

	select {
	case <-sub.Done():
	case <-time.After(waitFor):
		t.Fatal("close did not stop subscriptions")
	}

	late := bus.Subscribe("", func(Event) {})
	select {
	case <-late.Done():
	default:
		t.Fatal("subscribing to a closed bus should return a finished subscription")
	}
	bus.Publish(Event{Topic: TopicGroups})
}
