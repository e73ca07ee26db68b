package stream

import "sync"

// ConsumerState is the lifecycle position of a per-turn consumer.
type ConsumerState int

const (
	// StateAwaitingSession means attached but no token has arrived yet.
	StateAwaitingSession ConsumerState = iota
	// StateStreaming means at least one token for the session was observed.
	StateStreaming
	// StateCompleted means the done (or error) event arrived and both
	// subscriptions have been torn down.
	StateCompleted
)

// Consumer accumulates one chat turn's stream. Subscriptions are torn down
// the instant the session's completion event is observed so a finished turn
// can never double-process or leak listeners into the next one.
type Consumer struct {
	mu      sync.Mutex
	state   ConsumerState
	sub     Subscription
	handler Handler
}

// Attach subscribes h to the session's events on bus. The returned consumer
// tears itself down on the first done or error event; Close releases it
// early (for supersession) without invoking any callback.
func Attach(bus Bus, sessionID string, h Handler) (*Consumer, error) {
	c := &Consumer{handler: h}

	sub, err := bus.Subscribe(sessionID, Handler{
		OnToken: c.onToken,
		OnDone:  c.onDone,
		OnError: c.onError,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sub = sub
	// A racing done event may already have finished the consumer.
	if c.state == StateCompleted {
		sub.Unsubscribe()
	}
	c.mu.Unlock()

	return c, nil
}

// State returns the consumer's current lifecycle state.
func (c *Consumer) State() ConsumerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close tears the subscriptions down without completing the turn.
func (c *Consumer) Close() {
	c.mu.Lock()
	c.state = StateCompleted
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func (c *Consumer) onToken(token string) {
	c.mu.Lock()
	if c.state == StateCompleted {
		c.mu.Unlock()
		return
	}
	c.state = StateStreaming
	c.mu.Unlock()

	if c.handler.OnToken != nil {
		c.handler.OnToken(token)
	}
}

func (c *Consumer) onDone() {
	if !c.finish() {
		return
	}
	if c.handler.OnDone != nil {
		c.handler.OnDone()
	}
}

func (c *Consumer) onError(message string) {
	if !c.finish() {
		return
	}
	if c.handler.OnError != nil {
		c.handler.OnError(message)
	}
}

// finish transitions to completed and unsubscribes; it reports false when the
// consumer had already finished, so completion callbacks fire at most once.
func (c *Consumer) finish() bool {
	c.mu.Lock()
	if c.state == StateCompleted {
		c.mu.Unlock()
		return false
	}
	c.state = StateCompleted
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	return true
}
