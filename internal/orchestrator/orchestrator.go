package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/overlay-ai/assistant-core/internal/intent"
	"github.com/overlay-ai/assistant-core/internal/model"
	"github.com/overlay-ai/assistant-core/internal/session"
	"github.com/overlay-ai/assistant-core/internal/stream"
	"github.com/overlay-ai/assistant-core/internal/visual"
	"github.com/overlay-ai/assistant-core/pkg/logger"
	"github.com/overlay-ai/assistant-core/pkg/metrics"
)

// ErrBusy is returned when a submission arrives while a turn is in flight.
// Stop is the only operation accepted in that window.
var ErrBusy = errors.New("a request is already in progress")

// ErrEmptyText is returned for blank submissions.
var ErrEmptyText = errors.New("text must not be empty")

// Classifier produces a structured decision, or nil when the caller should
// fall back to the pattern router.
type Classifier interface {
	Classify(ctx context.Context, text string) *model.AudioDecision
}

// ControlInvoker executes tool calls against the media-control service.
type ControlInvoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (string, error)
	EnsureRunning(ctx context.Context) error
}

// ChatRunner streams one chat completion, publishing session-scoped events.
type ChatRunner interface {
	Run(ctx context.Context, sessionID, prompt string)
}

// Options tunes the orchestrator.
type Options struct {
	// UnlockDelay is the pause between a turn completing and the input lock
	// releasing, so the transition does not feel abrupt.
	UnlockDelay time.Duration
}

// Orchestrator coordinates one turn at a time: epoch issuance, intent
// dispatch, streaming consumption and the input lock.
type Orchestrator struct {
	epochs   *EpochTracker
	reducer  *Reducer
	router   *intent.Router
	decider  Classifier
	invoker  ControlInvoker
	bus      stream.Bus
	chat     ChatRunner
	sessions session.Provider
	visual   *visual.Driver
	log      *logger.Logger
	opts     Options

	mu           sync.Mutex
	locked       bool
	serviceReady bool
	consumer     *stream.Consumer
}

// New wires an orchestrator.
func New(
	router *intent.Router,
	decider Classifier,
	invoker ControlInvoker,
	bus stream.Bus,
	chat ChatRunner,
	sessions session.Provider,
	driver *visual.Driver,
	reducer *Reducer,
	log *logger.Logger,
	opts Options,
) *Orchestrator {
	if opts.UnlockDelay <= 0 {
		opts.UnlockDelay = 320 * time.Millisecond
	}
	return &Orchestrator{
		epochs:   NewEpochTracker(),
		reducer:  reducer,
		router:   router,
		decider:  decider,
		invoker:  invoker,
		bus:      bus,
		chat:     chat,
		sessions: sessions,
		visual:   driver,
		log:      log,
		opts:     opts,
	}
}

// Submit begins a new turn for text. It is rejected with ErrBusy while a
// turn is in flight; the returned item is the fresh thinking turn.
func (o *Orchestrator) Submit(ctx context.Context, text string) (model.ConversationItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ConversationItem{}, ErrEmptyText
	}

	o.mu.Lock()
	if o.locked {
		o.mu.Unlock()
		return model.ConversationItem{}, ErrBusy
	}
	o.locked = true
	o.dropConsumerLocked()
	o.mu.Unlock()

	epoch := o.epochs.BeginNewRequest()
	item := o.reducer.Begin(text)
	o.visual.Set(visual.StateThinking)

	o.log.Info("turn started",
		zap.String("item_id", item.ID),
		zap.Uint64("epoch", uint64(epoch)),
	)

	if o.router.LooksLikeControl(text) {
		go o.runControl(epoch, item, text)
	} else {
		o.runChat(epoch, item, text)
	}

	return item, nil
}

// Stop cancels the in-flight turn. Cancellation is logical: the epoch moves
// on and in-flight work is discarded on arrival, not aborted.
func (o *Orchestrator) Stop(ctx context.Context) model.StateSnapshot {
	o.epochs.BeginNewRequest()

	o.mu.Lock()
	o.dropConsumerLocked()
	o.locked = false
	o.mu.Unlock()

	if cur, ok := o.reducer.Current(); ok && cur.Status == model.StatusThinking {
		o.reducer.MarkStopped(ctx, cur.ID)
		metrics.RecordTurn("unknown", "stopped")
		o.log.Info("turn stopped", zap.String("item_id", cur.ID))
	}

	o.visual.Set(visual.StateIdle)
	return o.Snapshot()
}

// ClearPrompt drops the visible item and renews the session handle so stale
// stream events can never match again.
func (o *Orchestrator) ClearPrompt() {
	o.epochs.BeginNewRequest()

	o.mu.Lock()
	o.dropConsumerLocked()
	o.locked = false
	o.serviceReady = false
	o.mu.Unlock()

	o.reducer.Clear()
	o.sessions.Renew()
	o.visual.Set(visual.StateIdle)
}

// CycleVisualState advances the presentation state on demand.
func (o *Orchestrator) CycleVisualState() visual.State {
	return o.visual.Cycle()
}

// Locked reports the input lock.
func (o *Orchestrator) Locked() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.locked
}

// Snapshot returns the read model for the presentation layer.
func (o *Orchestrator) Snapshot() model.StateSnapshot {
	snap := model.StateSnapshot{
		Locked:      o.Locked(),
		VisualState: string(o.visual.State()),
		Amplitude:   o.visual.Amplitude(),
	}
	if item, ok := o.reducer.Current(); ok {
		snap.Item = &item
	}
	return snap
}

// runControl resolves a decision and executes it against the control
// service. Every exit re-checks the captured epoch before touching state.
func (o *Orchestrator) runControl(epoch Epoch, item model.ConversationItem, text string) {
	ctx := context.Background()

	routed := o.router.Classify(text)
	decision := o.decider.Classify(ctx, text)
	if decision == nil {
		decision = intent.DecisionFromIntent(routed)
	}

	if !o.epochs.IsCurrent(epoch) {
		return
	}

	if decision == nil || decision.Action == model.ActionNone {
		// The keyword heuristic fired but neither classifier produced an
		// action; treat the line as conversation after all.
		o.runChat(epoch, item, text)
		return
	}

	if err := o.ensureService(ctx); err != nil {
		o.log.Warn("control service readiness failed", zap.Error(err))
	}

	tool, args := controlCall(decision)
	if tool == "" {
		o.finishTurn(epoch, item.ID, "I didn't understand that command.", "control", "error")
		return
	}

	raw, err := o.invoker.Invoke(ctx, tool, args)

	if !o.epochs.IsCurrent(epoch) {
		return
	}

	o.visual.Set(visual.StateSpeaking)
	if err != nil {
		o.finishTurn(epoch, item.ID, controlErrorResponse(err), "control", "error")
		return
	}
	o.finishTurn(epoch, item.ID, controlResponse(raw), "control", "ok")
}

// runChat attaches a session-scoped consumer and launches the relay.
func (o *Orchestrator) runChat(epoch Epoch, item model.ConversationItem, text string) {
	sessionID := o.sessions.Current()

	consumer, err := stream.Attach(o.bus, sessionID, stream.Handler{
		OnToken: func(token string) {
			if !o.epochs.IsCurrent(epoch) {
				return
			}
			if o.reducer.AppendToken(item.ID, token) {
				o.visual.Set(visual.StateSpeaking)
			}
		},
		OnDone: func() {
			if !o.epochs.IsCurrent(epoch) {
				return
			}
			o.finishTurn(epoch, item.ID, "", "chat", "ok")
		},
		OnError: func(message string) {
			if !o.epochs.IsCurrent(epoch) {
				return
			}
			o.finishTurn(epoch, item.ID, "Something went wrong: "+message, "chat", "error")
		},
	})
	if err != nil {
		o.finishTurn(epoch, item.ID, "Something went wrong: "+err.Error(), "chat", "error")
		return
	}

	o.mu.Lock()
	o.consumer = consumer
	o.mu.Unlock()

	go o.chat.Run(context.Background(), sessionID, text)
}

// finishTurn completes the item and schedules the epoch-guarded unlock.
func (o *Orchestrator) finishTurn(epoch Epoch, itemID, finalText, path, status string) {
	if !o.reducer.Complete(context.Background(), itemID, finalText) {
		return
	}
	metrics.RecordTurn(path, status)
	o.log.Info("turn finished",
		zap.String("item_id", itemID),
		zap.String("path", path),
		zap.String("status", status),
	)

	o.epochs.ScheduleUnlock(epoch, o.opts.UnlockDelay, func() {
		o.mu.Lock()
		o.locked = false
		o.mu.Unlock()
		o.visual.Set(visual.StateIdle)
	})
}

// ensureService lazily issues the idempotent readiness call once per
// session.
func (o *Orchestrator) ensureService(ctx context.Context) error {
	o.mu.Lock()
	ready := o.serviceReady
	o.mu.Unlock()
	if ready {
		return nil
	}

	if err := o.invoker.EnsureRunning(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	o.serviceReady = true
	o.mu.Unlock()
	return nil
}

// dropConsumerLocked releases the previous turn's subscriptions. Callers
// hold o.mu.
func (o *Orchestrator) dropConsumerLocked() {
	if o.consumer != nil {
		o.consumer.Close()
		o.consumer = nil
	}
}
