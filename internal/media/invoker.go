package media

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/overlay-ai/assistant-core/pkg/logger"
	"github.com/overlay-ai/assistant-core/pkg/metrics"
)

// ToolError is a failure reported by the control service's result text.
type ToolError struct {
	Tool    string
	Message string
	Retried bool
}

func (e *ToolError) Error() string {
	return e.Tool + ": " + e.Message
}

var (
	errorPrefixRe = regexp.MustCompile(`(?i)^error\b`)
	deviceIDRe    = regexp.MustCompile(`(?i)device[_ ]?id["':=\s]+([A-Za-z0-9_-]{4,})`)
)

var failureWords = []string{"failed", "unauthorized", "forbidden", "not found", "not_found"}

// resultError inspects a raw result blob for an error signal: an explicit
// error flag in a JSON envelope, a reply starting with "error", or failure
// language anywhere in the text.
func resultError(tool, raw string) *ToolError {
	trimmed := strings.TrimSpace(raw)

	var envelope struct {
		Error   any   `json:"error"`
		IsError *bool `json:"is_error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err == nil {
		if envelope.IsError != nil && *envelope.IsError {
			return &ToolError{Tool: tool, Message: trimmed}
		}
		switch v := envelope.Error.(type) {
		case bool:
			if v {
				return &ToolError{Tool: tool, Message: trimmed}
			}
		case string:
			if v != "" {
				return &ToolError{Tool: tool, Message: trimmed}
			}
		}
	}

	lower := strings.ToLower(trimmed)
	if errorPrefixRe.MatchString(trimmed) {
		return &ToolError{Tool: tool, Message: trimmed}
	}
	for _, word := range failureWords {
		if strings.Contains(lower, word) {
			return &ToolError{Tool: tool, Message: trimmed}
		}
	}

	return nil
}

// Invoker executes tool calls with device affinity attached, recovering once
// from a stale device handle.
type Invoker struct {
	transport Transport
	devices   DeviceStore
	log       *logger.Logger
}

// NewInvoker creates an invoker.
func NewInvoker(transport Transport, devices DeviceStore, log *logger.Logger) *Invoker {
	return &Invoker{transport: transport, devices: devices, log: log}
}

// EnsureRunning delegates the idempotent readiness call.
func (inv *Invoker) EnsureRunning(ctx context.Context) error {
	return inv.transport.EnsureRunning(ctx)
}

// Invoke calls the named tool. When a device affinity is remembered it is
// attached as device_id; if the service then reports the device missing, the
// affinity is cleared process-wide and the identical call is retried exactly
// once without the device field. A second failure propagates.
func (inv *Invoker) Invoke(ctx context.Context, tool string, args map[string]any) (string, error) {
	device := inv.devices.Device()

	call := cloneArgs(args)
	if device != "" {
		call["device_id"] = device
	}

	raw, err := inv.call(ctx, tool, call)
	if err != nil {
		return "", err
	}

	terr := resultError(tool, raw)
	if terr == nil {
		inv.rememberDevice(raw)
		return raw, nil
	}

	if device != "" && strings.Contains(strings.ToLower(terr.Message), "device not found") {
		inv.log.Info("clearing stale device affinity",
			zap.String("tool", tool),
			zap.String("device_id", device),
		)
		inv.devices.Clear()
		metrics.ToolRetriesTotal.Inc()

		raw, err = inv.call(ctx, tool, cloneArgs(args))
		if err != nil {
			return "", err
		}
		if terr = resultError(tool, raw); terr != nil {
			terr.Retried = true
			return "", terr
		}
		inv.rememberDevice(raw)
		return raw, nil
	}

	return "", terr
}

func (inv *Invoker) call(ctx context.Context, tool string, args map[string]any) (string, error) {
	start := time.Now()
	raw, err := inv.transport.CallTool(ctx, tool, args)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ToolCallDuration.WithLabelValues(tool, status).Observe(elapsed.Seconds())

	inv.log.Debug("tool call finished",
		zap.String("tool", tool),
		zap.Duration("latency", elapsed),
		zap.String("status", status),
	)

	return raw, err
}

// rememberDevice warms the affinity store when a successful result names the
// device it landed on.
func (inv *Invoker) rememberDevice(raw string) {
	if m := deviceIDRe.FindStringSubmatch(raw); m != nil {
		inv.devices.SetDevice(m[1])
	}
}

func cloneArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	return out
}
