package events

import "sync"

// Subscription is revocable: calling Unsubscribe stops further delivery to
// the associated handler. Safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Bus manages subscription and publishing for the three lifecycle
// channels. Handlers for a given Kind are invoked in registration order,
// synchronously, on the publishing goroutine (the registry's loop) —
// unlike the teacher's bus, which fanned out with a bare `go` per handler
// and could therefore reorder concurrent emissions for the same device.
//
// Unsubscribe was a TODO in the teacher's bus, needing handler identity to
// remove the right entry. This Bus sidesteps that by handing back a
// revocable Subscription token at subscribe time.
type Bus struct {
	mu       sync.Mutex
	handlers map[Kind][]*subscription
	byID     map[uint64]*boundHandler
	nextID   uint64
}

type subscription struct {
	bus  *Bus
	kind Kind
	id   uint64
}

func (s *subscription) Unsubscribe() {
	s.bus.remove(s.kind, s.id)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Kind][]*subscription),
		byID:     make(map[uint64]*boundHandler),
	}
}

type boundHandler struct {
	*subscription
	handler Handler
}

// Subscribe registers handler for kind and returns a revocable Subscription.
func (b *Bus) Subscribe(kind Kind, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{bus: b, kind: kind, id: b.nextID}
	b.byID[sub.id] = &boundHandler{subscription: sub, handler: handler}
	b.handlers[kind] = append(b.handlers[kind], sub)
	return sub
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.byID, id)
	subs := b.handlers[kind]
	for i, s := range subs {
		if s.id == id {
			b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every handler registered for event.Kind, in
// registration order, on the calling goroutine. A handler panic is not
// recovered — a misbehaving subscriber is a bug in that subscriber, not
// something the bus should paper over.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	subs := append([]*subscription(nil), b.handlers[event.Kind]...)
	handlers := make([]Handler, 0, len(subs))
	for _, s := range subs {
		if bh, ok := b.byID[s.id]; ok {
			handlers = append(handlers, bh.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h.Handle(event)
	}
}

// RemoveAll revokes every subscription. Used by Registry.Close.
func (b *Bus) RemoveAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Kind][]*subscription)
	b.byID = make(map[uint64]*boundHandler)
}
