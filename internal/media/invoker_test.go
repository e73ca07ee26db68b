package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlay-ai/assistant-core/pkg/logger"
)

// fakeTransport replays a scripted sequence of results.
type fakeTransport struct {
	results []string
	errs    []error
	calls   []map[string]any
	tools   []string
}

func (f *fakeTransport) CallTool(ctx context.Context, tool string, args map[string]any) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, args)
	f.tools = append(f.tools, tool)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var result string
	if i < len(f.results) {
		result = f.results[i]
	}
	return result, err
}

func (f *fakeTransport) EnsureRunning(ctx context.Context) error { return nil }

func newTestInvoker(t *fakeTransport, device string) (*Invoker, *MemoryDeviceStore) {
	store := NewMemoryDeviceStore()
	store.SetDevice(device)
	return NewInvoker(t, store, logger.NewNop()), store
}

func TestInvokeSuccess(t *testing.T) {
	transport := &fakeTransport{results: []string{"Now playing The Weeknd"}}
	inv, _ := newTestInvoker(transport, "")

	out, err := inv.Invoke(context.Background(), "play_music", map[string]any{"query": "the weeknd"})
	require.NoError(t, err)
	assert.Equal(t, "Now playing The Weeknd", out)
	require.Len(t, transport.calls, 1)
	assert.Equal(t, "the weeknd", transport.calls[0]["query"])
	_, hasDevice := transport.calls[0]["device_id"]
	assert.False(t, hasDevice)
}

func TestInvokeAttachesDeviceAffinity(t *testing.T) {
	transport := &fakeTransport{results: []string{"ok"}}
	inv, _ := newTestInvoker(transport, "speaker-42")

	_, err := inv.Invoke(context.Background(), "pause_playback", nil)
	require.NoError(t, err)
	require.Len(t, transport.calls, 1)
	assert.Equal(t, "speaker-42", transport.calls[0]["device_id"])
}

func TestInvokeDeviceNotFoundRetriesOnce(t *testing.T) {
	transport := &fakeTransport{results: []string{
		"Error: Device not found: speaker-42",
		"Now playing on default output",
	}}
	inv, store := newTestInvoker(transport, "speaker-42")

	out, err := inv.Invoke(context.Background(), "play_music", map[string]any{"query": "focus"})
	require.NoError(t, err)
	assert.Equal(t, "Now playing on default output", out)

	// Affinity cleared and the retry went out without a device id.
	assert.Empty(t, store.Device())
	require.Len(t, transport.calls, 2)
	assert.Equal(t, "speaker-42", transport.calls[0]["device_id"])
	_, hasDevice := transport.calls[1]["device_id"]
	assert.False(t, hasDevice)
	assert.Equal(t, "focus", transport.calls[1]["query"])
}

func TestInvokeSecondFailurePropagatesWithoutThirdCall(t *testing.T) {
	transport := &fakeTransport{results: []string{
		"error: device not found",
		"error: playback failed",
	}}
	inv, store := newTestInvoker(transport, "speaker-42")

	_, err := inv.Invoke(context.Background(), "play_music", map[string]any{"query": "focus"})
	require.Error(t, err)

	var terr *ToolError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.Retried)
	assert.Len(t, transport.calls, 2)
	assert.Empty(t, store.Device())
}

func TestInvokeDeviceNotFoundWithoutAffinityDoesNotRetry(t *testing.T) {
	transport := &fakeTransport{results: []string{"error: device not found"}}
	inv, _ := newTestInvoker(transport, "")

	_, err := inv.Invoke(context.Background(), "play_music", nil)
	require.Error(t, err)
	assert.Len(t, transport.calls, 1)
}

func TestInvokeTransportErrorPropagates(t *testing.T) {
	transport := &fakeTransport{errs: []error{errors.New("connection refused")}}
	inv, _ := newTestInvoker(transport, "")

	_, err := inv.Invoke(context.Background(), "play_music", nil)
	require.Error(t, err)
	var terr *ToolError
	assert.False(t, errors.As(err, &terr))
}

func TestInvokeWarmsDeviceAffinity(t *testing.T) {
	transport := &fakeTransport{results: []string{`{"status":"ok","device_id":"speaker-7","message":"playback started"}`}}
	inv, store := newTestInvoker(transport, "")

	_, err := inv.Invoke(context.Background(), "play_music", nil)
	require.NoError(t, err)
	assert.Equal(t, "speaker-7", store.Device())
}

func TestResultErrorHeuristics(t *testing.T) {
	tests := []struct {
		raw     string
		isError bool
	}{
		{"Now playing", false},
		{"Error: something broke", true},
		{"error contacting device", true},
		{"the operation failed", true},
		{"request unauthorized", true},
		{"access forbidden", true},
		{"playlist not found", true},
		{`{"error":"bad device"}`, true},
		{`{"error":true}`, true},
		{`{"is_error":true}`, true},
		{`{"error":false,"message":"ok"}`, false},
		{"Queued without errors", false},
	}

	for _, tt := range tests {
		got := resultError("t", tt.raw)
		if tt.isError {
			assert.NotNil(t, got, tt.raw)
		} else {
			assert.Nil(t, got, tt.raw)
		}
	}
}
