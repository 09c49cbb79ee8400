package binder

import "sync"

// notifier delivers property-change notifications to subscribers.
//
// Delivery order is subscription order. Notifications raised from inside a
// handler (re-entrant Notify calls) are queued and delivered after the
// current property finishes its pass, never interleaved.
type notifier struct {
	mu        sync.Mutex
	subs      []subscriber
	nextID    int
	notifying bool
	queue     []string
}

type subscriber struct {
	id int
	fn func(prop string)
}

// Subscribe registers fn for property-change notifications and returns an
// unsubscribe function. Unsubscribing twice is a no-op.
func (n *notifier) Subscribe(fn func(prop string)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify delivers each property name to all current subscribers. If a
// delivery pass is already running, the properties are appended to its queue
// and delivered by that pass.
func (n *notifier) Notify(props ...string) {
	if len(props) == 0 {
		return
	}

	n.mu.Lock()
	n.queue = append(n.queue, props...)
	if n.notifying {
		n.mu.Unlock()
		return
	}
	n.notifying = true

	for len(n.queue) > 0 {
		prop := n.queue[0]
		n.queue = n.queue[1:]
		subs := make([]subscriber, len(n.subs))
		copy(subs, n.subs)
		n.mu.Unlock()

		for _, s := range subs {
			s.fn(prop)
		}

		n.mu.Lock()
	}

	n.notifying = false
	n.mu.Unlock()
}
