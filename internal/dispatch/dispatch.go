// Package dispatch evaluates each inbound message against the trigger
// registry: at most one command invocation, at most one mention
// invocation, then the passive plugin pass. Nothing here is fatal; every
// failure degrades to skip-and-log.
package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roomclaw/roomclaw/internal/history"
	"github.com/roomclaw/roomclaw/internal/mx"
	"github.com/roomclaw/roomclaw/internal/plugin"
	"github.com/roomclaw/roomclaw/internal/routing"
)

// Punctuation commonly wrapping mentions in prose, e.g. "(@ai)" or
// "@ai's".
const (
	mentionLeadTrim  = `([{<"'`
	mentionTrailTrim = `:,.;!?…—–)]}>"'`
)

// Options configure a Dispatcher.
type Options struct {
	Client    mx.Client
	Registry  *plugin.Registry
	History   *history.Store
	DevActive bool
	DevID     string
}

// Dispatcher routes inbound messages to plugins.
type Dispatcher struct {
	client    mx.Client
	registry  *plugin.Registry
	history   *history.Store
	devActive bool
	devID     string
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	return &Dispatcher{
		client:    opts.Client,
		registry:  opts.Registry,
		history:   opts.History,
		devActive: opts.DevActive,
		devID:     opts.DevID,
	}
}

// HandleMessage processes one inbound message end to end. It never
// returns an error: plugin failures are logged and later steps still run.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg *mx.Message) {
	traceID := uuid.NewString()
	body, textLike := msg.Body()
	snippet := ""
	if textLike {
		snippet = plugin.SanitizeLine(body, 200)
	}
	slog.Info("Incoming message",
		"trace_id", traceID,
		"room_id", msg.Room,
		"sender", msg.Sender,
		"kind", msg.Kind().String(),
		"body", snippet,
	)

	isSelf := msg.Sender == d.client.UserID()
	if !isSelf && textLike {
		trimmed := strings.TrimSpace(body)
		d.dispatchCommand(ctx, traceID, msg, trimmed)
		d.dispatchMention(ctx, traceID, msg, trimmed)
	}

	d.runPassive(ctx, msg, isSelf)
}

// dispatchCommand handles the "!command args..." path: classify the first
// token, look it up, gate it, and invoke at most one plugin with the
// argument tail.
func (d *Dispatcher) dispatchCommand(ctx context.Context, traceID string, msg *mx.Message, body string) {
	if !strings.HasPrefix(body, "!") {
		return
	}
	cmdToken, argsTail, _ := strings.Cut(body, " ")
	argsTail = strings.TrimSpace(argsTail)

	normalized, route := routing.ClassifyCommand(cmdToken, d.devID)
	entry := d.registry.ByCommand(normalized)
	if entry == nil {
		return
	}
	if reason := d.blockReason(route, entry); reason != "" {
		slog.Info("Ignoring command", "trace_id", traceID, "plugin", entry.Spec.ID, "reason", reason)
		return
	}
	d.invoke(ctx, traceID, msg, entry, normalized, argsTail)
}

// dispatchMention scans body tokens in order and invokes the first
// mention that both matches the registry and passes the gate. Gated
// matches do not stop the scan; only the first actionable mention
// matters. The invoked plugin receives the entire message body so it
// keeps the full sentence for context.
func (d *Dispatcher) dispatchMention(ctx context.Context, traceID string, msg *mx.Message, body string) {
	for _, rawToken := range strings.Fields(body) {
		if !strings.Contains(rawToken, "@") {
			continue
		}
		token := strings.TrimLeft(rawToken, mentionLeadTrim)
		token = strings.TrimRight(token, mentionTrailTrim)
		if t, ok := strings.CutSuffix(token, "'s"); ok {
			token = t
		} else if t, ok := strings.CutSuffix(token, "’s"); ok {
			token = t
		}
		if !strings.HasPrefix(token, "@") {
			continue
		}

		normalized, route := routing.ClassifyMention(token, d.devID)
		entry := d.registry.ByMention(normalized)
		if entry == nil {
			continue
		}
		if reason := d.blockReason(route, entry); reason != "" {
			slog.Info("Ignoring mention", "trace_id", traceID, "plugin", entry.Spec.ID, "token", token, "reason", reason)
			continue
		}
		d.invoke(ctx, traceID, msg, entry, normalized, body)
		return
	}
}

// runPassive delivers the message to every room-listening plugin that is
// enabled and allowed in this mode. Self messages are delivered only to
// plugins that opt in to observing their own output.
func (d *Dispatcher) runPassive(ctx context.Context, msg *mx.Message, isSelf bool) {
	for _, row := range d.registry.Entries() {
		listener, ok := row.Entry.Plugin.(plugin.RoomListener)
		if !ok {
			continue
		}
		if isSelf && !wantsOwnMessages(row.Entry.Plugin) {
			continue
		}
		if plugin.IsDevOnly(&row.Entry.Spec, row.Entry.Plugin) && !d.devActive {
			continue
		}
		if !d.registry.IsEnabled(row.ID) {
			continue
		}
		pctx := d.pluginContext(msg, "")
		if err := listener.OnRoomMessage(ctx, pctx, msg, &row.Entry.Spec); err != nil {
			slog.Warn("Plugin room-message handler failed", "plugin", row.ID, "error", err)
		}
	}
}

// blockReason applies the routing gate shared by commands and mentions.
// An empty string means execute.
func (d *Dispatcher) blockReason(route routing.Decision, entry *plugin.Entry) string {
	switch {
	case route == routing.OtherDev:
		return "other-dev"
	case route == routing.Dev && !d.devActive:
		return "dev-in-prod"
	case route == routing.Prod && d.devActive:
		return "prod-in-dev"
	case plugin.IsDevOnly(&entry.Spec, entry.Plugin) && !d.devActive:
		return "dev-only-in-prod"
	case !d.registry.IsEnabled(entry.Spec.ID):
		return "disabled"
	}
	return ""
}

func (d *Dispatcher) invoke(ctx context.Context, traceID string, msg *mx.Message, entry *plugin.Entry, trigger, args string) {
	pctx := d.pluginContext(msg, trigger)
	err := entry.Plugin.Run(ctx, pctx, args, &entry.Spec)
	if err != nil {
		slog.Warn("Plugin failed", "trace_id", traceID, "plugin", entry.Spec.ID, "error", err)
	}
	if recErr := d.history.RecordDispatch(traceID, msg.Room.String(), msg.Sender.String(), entry.Spec.ID, trigger, err == nil); recErr != nil {
		slog.Warn("History write failed", "trace_id", traceID, "error", recErr)
	}
}

func (d *Dispatcher) pluginContext(msg *mx.Message, trigger string) *plugin.Context {
	return &plugin.Context{
		Client:    d.client,
		Room:      msg.Room,
		DevActive: d.devActive,
		DevID:     d.devID,
		Registry:  d.registry,
		History:   d.history,
		Trigger:   trigger,
	}
}

func wantsOwnMessages(p plugin.Plugin) bool {
	o, ok := p.(plugin.OwnMessageObserver)
	return ok && o.WantsOwnMessages()
}
