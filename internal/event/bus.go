// Package event is the in-process change bus that stores publish on after
// every committed mutation.
//
// Each subscription owns one goroutine and a single-slot mailbox. Publishing
// never blocks: when a subscriber's mailbox is already full the new event is
// dropped, because the queued event has not been handled yet and its refetch
// will observe the newer state anyway. Handlers therefore see events in
// order, one at a time, and are free to call back into the store.
package event

import (
	"sync"
	"time"
)

// Topic names a collection whose contents changed.
type Topic string

// Topics published by the stores.
const (
	TopicGroups    Topic = "groups"
	TopicBirthdays Topic = "birthdays"
)

// Event announces that a collection changed. It carries no payload; handlers
// refetch.
type Event struct {
	Topic   Topic
	OwnerID string // principal whose data changed; "" for the local store
	At      time.Time
}

// Handler receives events on its subscription's goroutine.
type Handler func(Event)

// Bus fans events out to subscriptions.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
	now    func() time.Time
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[uint64]*Subscription),
		now:  time.Now,
	}
}

// Subscribe registers fn for events of the given topics belonging to owner.
// With no topics the subscription receives every topic. Subscribing to a
// closed bus returns an already cancelled subscription.
func (b *Bus) Subscribe(owner string, fn Handler, topics ...Topic) *Subscription {
	s := &Subscription{
		bus:      b,
		owner:    owner,
		fn:       fn,
		topics:   make(map[Topic]struct{}, len(topics)),
		mailbox:  make(chan Event, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.once.Do(func() { close(s.done) })
		close(s.finished)
		return s
	}
	b.nextID++
	s.id = b.nextID
	b.subs[s.id] = s
	b.mu.Unlock()

	go s.run()
	return s
}

// Publish delivers e to every matching subscription without blocking.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = b.now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.matches(e) {
			s.offer(e)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close cancels every subscription. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.subs = make(map[uint64]*Subscription)
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// Subscription is one registered handler.
type Subscription struct {
	bus      *Bus
	id       uint64
	owner    string
	topics   map[Topic]struct{}
	fn       Handler
	mailbox  chan Event
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
}

// Kick queues e for this subscription only, bypassing topic and owner
// filters. Stores use it to deliver the initial snapshot.
func (s *Subscription) Kick(e Event) {
	if e.At.IsZero() {
		e.At = s.bus.now()
	}
	s.offer(e)
}

// Cancel stops delivery. It is safe to call more than once and from inside
// the handler.
func (s *Subscription) Cancel() {
	s.bus.remove(s.id)
	s.stop()
}

// Done is closed once the subscription's goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.finished
}

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) matches(e Event) bool {
	if s.owner != e.OwnerID {
		return false
	}
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[e.Topic]
	return ok
}

func (s *Subscription) offer(e Event) {
	select {
	case <-s.done:
	case s.mailbox <- e:
	default:
		// coalesced into the queued event
	}
}

func (s *Subscription) run() {
	defer close(s.finished)
	for {
		select {
		case <-s.done:
			return
		case e := <-s.mailbox:
			select {
			case <-s.done:
				return
			default:
			}
			s.fn(e)
		}
	}
}
