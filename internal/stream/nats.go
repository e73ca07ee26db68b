package stream

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "assistant.chat"

func tokenSubject(sessionID string) string {
	return fmt.Sprintf("%s.%s.token", subjectPrefix, sessionID)
}

func doneSubject(sessionID string) string {
	return fmt.Sprintf("%s.%s.done", subjectPrefix, sessionID)
}

func errSubject(sessionID string) string {
	return fmt.Sprintf("%s.%s.err", subjectPrefix, sessionID)
}

// NATSBus routes session events over core NATS subjects. Subjects embed the
// session handle, so subscription scoping is exact by construction.
type NATSBus struct {
	conn *nats.Conn
}

// NewNATSBus wraps an established connection.
func NewNATSBus(conn *nats.Conn) *NATSBus {
	return &NATSBus{conn: conn}
}

// PublishToken publishes a token event for the session.
func (b *NATSBus) PublishToken(sessionID, token string) error {
	return b.conn.Publish(tokenSubject(sessionID), []byte(token))
}

// PublishDone publishes the completion event for the session.
func (b *NATSBus) PublishDone(sessionID string) error {
	return b.conn.Publish(doneSubject(sessionID), nil)
}

// PublishError publishes a stream failure for the session.
func (b *NATSBus) PublishError(sessionID, message string) error {
	return b.conn.Publish(errSubject(sessionID), []byte(message))
}

// Subscribe registers a handler on the session's three subjects.
func (b *NATSBus) Subscribe(sessionID string, h Handler) (Subscription, error) {
	var subs []*nats.Subscription

	tokenSub, err := b.conn.Subscribe(tokenSubject(sessionID), func(msg *nats.Msg) {
		if h.OnToken != nil {
			h.OnToken(string(msg.Data))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to token subject: %w", err)
	}
	subs = append(subs, tokenSub)

	doneSub, err := b.conn.Subscribe(doneSubject(sessionID), func(msg *nats.Msg) {
		if h.OnDone != nil {
			h.OnDone()
		}
	})
	if err != nil {
		tokenSub.Unsubscribe()
		return nil, fmt.Errorf("failed to subscribe to done subject: %w", err)
	}
	subs = append(subs, doneSub)

	errSub, err := b.conn.Subscribe(errSubject(sessionID), func(msg *nats.Msg) {
		if h.OnError != nil {
			h.OnError(string(msg.Data))
		}
	})
	if err != nil {
		tokenSub.Unsubscribe()
		doneSub.Unsubscribe()
		return nil, fmt.Errorf("failed to subscribe to error subject: %w", err)
	}
	subs = append(subs, errSub)

	return &natsSubscription{subs: subs}, nil
}

type natsSubscription struct {
	subs []*nats.Subscription
}

func (s *natsSubscription) Unsubscribe() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
}
