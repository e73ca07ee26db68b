// Package stream carries session-scoped token, completion and error events
// between the chat relay and the streaming consumer.
package stream

import "sync"

// Handler receives events for a single session. Callbacks are invoked in
// arrival order for that session.
type Handler struct {
	OnToken func(token string)
	OnDone  func()
	OnError func(message string)
}

// Subscription tears down a handler's registrations.
type Subscription interface {
	Unsubscribe()
}

// Bus is the event channel abstraction. Events are addressed by session
// handle; subscribers only see events whose session matches exactly.
type Bus interface {
	PublishToken(sessionID, token string) error
	PublishDone(sessionID string) error
	PublishError(sessionID, message string) error
	Subscribe(sessionID string, h Handler) (Subscription, error)
}

// LocalBus is an in-process bus used when no NATS server is configured, and
// by tests. Delivery is synchronous in publish order.
type LocalBus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]Handler
}

// NewLocalBus creates an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string]map[int]Handler)}
}

func (b *LocalBus) snapshot(sessionID string) []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Handler
	for _, h := range b.handlers[sessionID] {
		out = append(out, h)
	}
	return out
}

// PublishToken delivers a token to the session's subscribers.
func (b *LocalBus) PublishToken(sessionID, token string) error {
	for _, h := range b.snapshot(sessionID) {
		if h.OnToken != nil {
			h.OnToken(token)
		}
	}
	return nil
}

// PublishDone delivers the completion event.
func (b *LocalBus) PublishDone(sessionID string) error {
	for _, h := range b.snapshot(sessionID) {
		if h.OnDone != nil {
			h.OnDone()
		}
	}
	return nil
}

// PublishError delivers a stream failure.
func (b *LocalBus) PublishError(sessionID, message string) error {
	for _, h := range b.snapshot(sessionID) {
		if h.OnError != nil {
			h.OnError(message)
		}
	}
	return nil
}

// Subscribe registers a handler for a session.
func (b *LocalBus) Subscribe(sessionID string, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[sessionID] == nil {
		b.handlers[sessionID] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[sessionID][id] = h

	return &localSubscription{bus: b, sessionID: sessionID, id: id}, nil
}

type localSubscription struct {
	bus       *LocalBus
	sessionID string
	id        int
	once      sync.Once
}

func (s *localSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.handlers[s.sessionID], s.id)
		if len(s.bus.handlers[s.sessionID]) == 0 {
			delete(s.bus.handlers, s.sessionID)
		}
	})
}
