package sqlite

import (
	"sync"

	"github.com/crewdeck/crewdeck/internal/remote"
)

var (
	_ remote.Client = (*DB)(nil)
	_ remote.Feed   = (*DB)(nil)
)

// broker fans committed mutations out to feed subscribers.
//
// Each subscriber owns a buffered channel. Publishing never blocks the
// mutating call: a subscriber that falls behind its buffer has the event
// dropped, the same policy the dashboard broadcast uses. Delivery order per
// table matches commit order because publish is called under the broker
// lock from the goroutine that committed.
type broker struct {
	mu     sync.Mutex
	subs   map[remote.Table]map[int]chan remote.Event
	nextID int
	closed bool
}

const subscriberBuffer = 128

func newBroker() *broker {
	return &broker{
		subs: make(map[remote.Table]map[int]chan remote.Event),
	}
}

// Subscribe implements remote.Feed.
func (db *DB) Subscribe(table remote.Table) (<-chan remote.Event, func()) {
	return db.broker.subscribe(table)
}

func (b *broker) subscribe(table remote.Table) (<-chan remote.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan remote.Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++

	if b.subs[table] == nil {
		b.subs[table] = make(map[int]chan remote.Event)
	}
	b.subs[table][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[table][id]; ok {
			delete(b.subs[table], id)
			close(sub)
		}
	}

	return ch, cancel
}

// publish delivers an event to every subscriber of its table.
func (b *broker) publish(ev remote.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs[ev.Table] {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full; drop rather than block the writer.
		}
	}
}

// close shuts down all subscriptions. Further publishes are no-ops.
func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for table, subs := range b.subs {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
		delete(b.subs, table)
	}
}
