// Package relay runs the per-message request/reply cycle: persist the user
// turn, load the window, invoke the completion, persist the assistant turn.
//
// Two concurrent exchanges for the same user id are not serialized; the
// store's commit order decides which user turn lands first and which
// assistant turn appends last. That matches the accepted design: one
// in-flight request per user at a time is assumed, not enforced.
package relay

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/matheusdonha/cheftesteagente/internal/completion"
	"github.com/matheusdonha/cheftesteagente/internal/history"
	"github.com/matheusdonha/cheftesteagente/internal/observability"
)

// Completer generates an assistant reply from a conversation window.
type Completer interface {
	Complete(ctx context.Context, window []history.Turn) (string, error)
}

// Orchestrator ties history and completion into one flow, uniform across the
// webhook and widget front-ends.
type Orchestrator struct {
	store     history.Store
	completer Completer
	window    int
	metrics   *observability.Metrics
}

func New(store history.Store, completer Completer, window int, metrics *observability.Metrics) *Orchestrator {
	if window <= 0 {
		window = history.DefaultWindow
	}
	return &Orchestrator{
		store:     store,
		completer: completer,
		window:    window,
		metrics:   metrics,
	}
}

// Exchange handles one inbound user turn and returns the reply to deliver.
//
// The user-turn append must succeed before anything else happens; its failure
// aborts with no reply. A completion failure never aborts: the fixed fallback
// becomes the assistant content so the user always gets an answer. The
// assistant turn is persisted before the reply is handed back, keeping stored
// history consistent with what the caller delivers.
func (o *Orchestrator) Exchange(ctx context.Context, channel, userID string, content history.Content) (string, error) {
	start := time.Now()

	if err := o.store.Append(ctx, userID, history.RoleUser, content); err != nil {
		o.observe(channel, "user_persist_error")
		return "", fmt.Errorf("persist user turn: %w", err)
	}

	window, err := o.store.Window(ctx, userID, o.window)
	if err != nil {
		o.observe(channel, "window_error")
		return "", fmt.Errorf("load window: %w", err)
	}

	reply, err := o.completer.Complete(ctx, window)
	if err != nil {
		log.Printf("completion failed for user %s: %v", userID, err)
		reply = completion.FallbackReply
		if o.metrics != nil {
			o.metrics.CompletionFallbacks.Inc()
		}
	}

	if err := o.store.Append(ctx, userID, history.RoleAssistant, history.TextContent(reply)); err != nil {
		o.observe(channel, "assistant_persist_error")
		return "", fmt.Errorf("persist assistant turn: %w", err)
	}

	o.observe(channel, "ok")
	if o.metrics != nil {
		o.metrics.ObserveExchangeLatency(time.Since(start))
	}
	return reply, nil
}

func (o *Orchestrator) observe(channel, outcome string) {
	if o.metrics != nil {
		o.metrics.Exchanges.WithLabelValues(channel, outcome).Inc()
	}
}
