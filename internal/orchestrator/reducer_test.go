package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlay-ai/assistant-core/internal/history"
	"github.com/overlay-ai/assistant-core/internal/model"
	"github.com/overlay-ai/assistant-core/pkg/logger"
)

func newTestReducer() (*Reducer, *history.MemorySink) {
	sink := history.NewMemorySink(10)
	return NewReducer(sink, logger.NewNop()), sink
}

func TestReducerLifecycle(t *testing.T) {
	r, sink := newTestReducer()
	ctx := context.Background()

	item := r.Begin("hello there")
	require.NotEmpty(t, item.ID)
	assert.Equal(t, model.StatusThinking, item.Status)

	assert.True(t, r.AppendToken(item.ID, "Hi "))
	assert.True(t, r.AppendToken(item.ID, "yourself."))

	require.True(t, r.Complete(ctx, item.ID, ""))

	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, cur.Status)
	assert.Equal(t, "Hi yourself.", cur.ResponseText)

	records := sink.Items()
	require.Len(t, records, 1)
	assert.Equal(t, "hello there", records[0].PromptText)
	assert.Equal(t, "Hi yourself.", records[0].ResponseText)
	assert.False(t, records[0].Timestamp.IsZero())
}

func TestCompleteIsIdempotent(t *testing.T) {
	r, sink := newTestReducer()
	ctx := context.Background()

	item := r.Begin("ping")
	require.True(t, r.Complete(ctx, item.ID, "pong"))
	assert.False(t, r.Complete(ctx, item.ID, "pong again"))

	cur, _ := r.Current()
	assert.Equal(t, "pong", cur.ResponseText)
	assert.Len(t, sink.Items(), 1)
}

func TestFinalTextOverwritesAccumulated(t *testing.T) {
	r, _ := newTestReducer()

	item := r.Begin("volume 40")
	r.AppendToken(item.ID, "partial")
	require.True(t, r.Complete(context.Background(), item.ID, "Volume set to 40."))

	cur, _ := r.Current()
	assert.Equal(t, "Volume set to 40.", cur.ResponseText)
}

func TestStaleTokenDropped(t *testing.T) {
	r, _ := newTestReducer()

	old := r.Begin("first")
	fresh := r.Begin("second")

	assert.False(t, r.AppendToken(old.ID, "late chunk"))
	assert.True(t, r.AppendToken(fresh.ID, "on time"))

	cur, _ := r.Current()
	assert.Equal(t, "second", cur.PromptText)
	assert.Equal(t, "on time", cur.ResponseText)
}

func TestTokenAfterCompletionDropped(t *testing.T) {
	r, _ := newTestReducer()
	ctx := context.Background()

	item := r.Begin("done already")
	require.True(t, r.Complete(ctx, item.ID, "Done."))

	assert.False(t, r.AppendToken(item.ID, "straggler"))
	cur, _ := r.Current()
	assert.Equal(t, "Done.", cur.ResponseText)
}

func TestMarkStopped(t *testing.T) {
	r, sink := newTestReducer()

	item := r.Begin("tell me a story")
	r.AppendToken(item.ID, "Once upon")
	require.True(t, r.MarkStopped(context.Background(), item.ID))

	cur, _ := r.Current()
	assert.Equal(t, model.StatusCompleted, cur.Status)
	assert.Equal(t, StoppedResponse, cur.ResponseText)

	records := sink.Items()
	require.Len(t, records, 1)
	assert.Equal(t, StoppedResponse, records[0].ResponseText)
}

func TestClearDropsItem(t *testing.T) {
	r, _ := newTestReducer()

	r.Begin("anything")
	r.Clear()

	_, ok := r.Current()
	assert.False(t, ok)
}
