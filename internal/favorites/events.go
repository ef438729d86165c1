package favorites

import "sync"

// EventKind names the mutation that produced an Event.
type EventKind string

const (
	EventLoaded   EventKind = "loaded"
	EventAdded    EventKind = "added"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
	EventCleared  EventKind = "cleared"
	EventPinned   EventKind = "pinned"
	EventUnpinned EventKind = "unpinned"
	EventUsed     EventKind = "used"
)

// Event is published after every successful, persisted mutation.
// Consumers re-read the views; the event only says what changed.
type Event struct {
	Kind    EventKind `json:"kind"`
	Version uint64    `json:"version"`
	IDs     []string  `json:"ids,omitempty"`
}

// subscriptionBuffer is how many events a subscriber may lag behind before it is dropped.
const subscriptionBuffer = 16

// Subscription delivers registry events until cancelled.
type Subscription struct {
	mux *mux
	// C receives events. It is closed when the subscription is cancelled
	// or dropped for falling behind.
	C <-chan Event
}

// Cancel stops delivery and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.mux.cancel(s)
}

type mux struct {
	mu   sync.Mutex
	subs map[*Subscription]chan Event
}

func (m *mux) subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Event, subscriptionBuffer)
	sub := &Subscription{mux: m, C: ch}
	if m.subs == nil {
		m.subs = make(map[*Subscription]chan Event)
	}
	m.subs[sub] = ch
	return sub
}

func (m *mux) publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sub, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			// too slow, drop it rather than block writers
			delete(m.subs, sub)
			close(ch)
		}
	}
}

func (m *mux) cancel(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.subs[sub]; ok {
		delete(m.subs, sub)
		close(ch)
	}
}

func (m *mux) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
