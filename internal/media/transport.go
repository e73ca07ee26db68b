// Package media executes named operations against the external media-control
// service and owns the device-affinity recovery policy.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport carries a single tool call to the control service. The result is
// an opaque text blob; only the error heuristics in this package give it any
// structure.
type Transport interface {
	CallTool(ctx context.Context, tool string, args map[string]any) (string, error)
	EnsureRunning(ctx context.Context) error
}

// HTTPTransport talks to a locally running control service over HTTP.
type HTTPTransport struct {
	serverRoot string
	client     *http.Client
}

// NewHTTPTransport creates a transport rooted at serverRoot.
func NewHTTPTransport(serverRoot string) *HTTPTransport {
	return &HTTPTransport{
		serverRoot: strings.TrimRight(serverRoot, "/"),
		// Tool calls wait indefinitely for the service; only EnsureRunning
		// applies its own deadline.
		client: &http.Client{},
	}
}

type toolCallRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// CallTool posts the named tool call and returns the raw response text.
// A transport-level error is returned only for network failures or non-2xx
// statuses; error-shaped response bodies are left to the invoker.
func (t *HTTPTransport) CallTool(ctx context.Context, tool string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}

	body, err := json.Marshal(toolCallRequest{Tool: tool, Args: args})
	if err != nil {
		return "", fmt.Errorf("failed to encode tool call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.serverRoot+"/tools/call", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build tool call request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("control service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read tool call response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("control service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return string(raw), nil
}

// EnsureRunning asks the control service to start if it is not already up.
// Idempotent; the service treats a repeated start as a no-op.
func (t *HTTPTransport) EnsureRunning(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.serverRoot+"/start", nil)
	if err != nil {
		return fmt.Errorf("failed to build start request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("control service unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("control service start returned %d", resp.StatusCode)
	}

	return nil
}
