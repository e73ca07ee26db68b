package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerAccumulatesAndCompletes(t *testing.T) {
	bus := NewLocalBus()

	var got strings.Builder
	var done bool

	c, err := Attach(bus, "s1", Handler{
		OnToken: func(tok string) { got.WriteString(tok) },
		OnDone:  func() { done = true },
	})
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingSession, c.State())

	bus.PublishToken("s1", "hel")
	assert.Equal(t, StateStreaming, c.State())
	bus.PublishToken("s1", "lo")
	bus.PublishDone("s1")

	assert.Equal(t, "hello", got.String())
	assert.True(t, done)
	assert.Equal(t, StateCompleted, c.State())
}

func TestConsumerIgnoresForeignSessions(t *testing.T) {
	bus := NewLocalBus()

	var got strings.Builder
	c, err := Attach(bus, "s1", Handler{
		OnToken: func(tok string) { got.WriteString(tok) },
	})
	require.NoError(t, err)

	bus.PublishToken("s2", "nope")
	bus.PublishDone("s2")

	assert.Empty(t, got.String())
	assert.Equal(t, StateAwaitingSession, c.State())
}

func TestConsumerTearsDownOnDone(t *testing.T) {
	bus := NewLocalBus()

	tokens := 0
	dones := 0
	_, err := Attach(bus, "s1", Handler{
		OnToken: func(string) { tokens++ },
		OnDone:  func() { dones++ },
	})
	require.NoError(t, err)

	bus.PublishToken("s1", "a")
	bus.PublishDone("s1")

	// Events after completion must not be double-processed.
	bus.PublishToken("s1", "b")
	bus.PublishDone("s1")

	assert.Equal(t, 1, tokens)
	assert.Equal(t, 1, dones)
}

func TestConsumerErrorCompletesOnce(t *testing.T) {
	bus := NewLocalBus()

	var errMsg string
	dones := 0
	c, err := Attach(bus, "s1", Handler{
		OnError: func(msg string) { errMsg = msg },
		OnDone:  func() { dones++ },
	})
	require.NoError(t, err)

	bus.PublishError("s1", "stream broke")
	bus.PublishDone("s1")

	assert.Equal(t, "stream broke", errMsg)
	assert.Zero(t, dones)
	assert.Equal(t, StateCompleted, c.State())
}

func TestConsumerCloseSuppressesCallbacks(t *testing.T) {
	bus := NewLocalBus()

	calls := 0
	c, err := Attach(bus, "s1", Handler{
		OnToken: func(string) { calls++ },
		OnDone:  func() { calls++ },
	})
	require.NoError(t, err)

	c.Close()
	bus.PublishToken("s1", "a")
	bus.PublishDone("s1")

	assert.Zero(t, calls)
}

func TestLocalBusUnsubscribeRemovesHandler(t *testing.T) {
	bus := NewLocalBus()

	calls := 0
	sub, err := bus.Subscribe("s1", Handler{OnToken: func(string) { calls++ }})
	require.NoError(t, err)

	bus.PublishToken("s1", "a")
	sub.Unsubscribe()
	bus.PublishToken("s1", "b")

	assert.Equal(t, 1, calls)
}
