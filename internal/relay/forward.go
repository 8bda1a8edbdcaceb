package relay

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/roomclaw/roomclaw/internal/mx"
	"github.com/roomclaw/roomclaw/internal/plugin"
)

const quoteSnippetMax = 300

// Forwarder is the passive relay plugin. It resolves the fan-out plan
// lazily on the first message that needs it and mirrors every message to
// the source room's peers. Dev instances never relay.
type Forwarder struct {
	mu       sync.RWMutex
	resolved bool
	plan     *Plan // nil once resolved means relaying is off
}

// New creates a forwarder with no plan yet.
func New() *Forwarder {
	return &Forwarder{}
}

func (f *Forwarder) ID() string {
	return "relay"
}

func (f *Forwarder) Help() string {
	return "Relay messages between configured room clusters"
}

func (f *Forwarder) DefaultSpec(config any) plugin.Spec {
	return plugin.Spec{ID: "relay", Enabled: true, Config: config}
}

// Run is a no-op; the forwarder has no command triggers.
func (f *Forwarder) Run(ctx context.Context, pctx *plugin.Context, args string, spec *plugin.Spec) error {
	return nil
}

// OnRoomMessage fans the message out to the source room's peers. Each
// destination is handled independently; one failed delivery never blocks
// the rest.
func (f *Forwarder) OnRoomMessage(ctx context.Context, pctx *plugin.Context, msg *mx.Message, spec *plugin.Spec) error {
	if pctx.DevActive {
		return nil
	}

	plan, err := f.ensurePlan(ctx, pctx.Client, spec)
	if err != nil || plan == nil {
		return err
	}
	peers := plan.Peers[msg.Room]
	if len(peers) == 0 {
		return nil
	}
	opts, ok := plan.Opts[msg.Room]
	if !ok {
		opts = Options{ReuploadMedia: true, CaptionMedia: true}
	}

	displayName := f.displayName(ctx, pctx.Client, msg)
	boldName := Bold(displayName)
	formatted, isText := formatText(msg.Content, boldName)
	kind := msg.Kind()

	for _, target := range peers {
		if target == msg.Room {
			continue
		}
		var sendErr error
		if isText {
			sendErr = pctx.Client.SendText(ctx, target, formatted)
		} else {
			sendErr = forwardMedia(ctx, pctx.Client, target, msg, opts.ReuploadMedia)
		}
		if sendErr != nil {
			slog.Warn("Failed to relay message", "from", msg.Room, "to", target, "error", sendErr)
			if recErr := pctx.History.RecordRelay(msg.Room.String(), target.String(), kind.String(), false); recErr != nil {
				slog.Warn("History write failed", "from", msg.Room, "to", target, "error", recErr)
			}
			continue
		}
		slog.Info("Relayed message", "from", msg.Room, "to", target, "sender", msg.Sender)
		if recErr := pctx.History.RecordRelay(msg.Room.String(), target.String(), kind.String(), true); recErr != nil {
			slog.Warn("History write failed", "from", msg.Room, "to", target, "error", recErr)
		}

		if !isText && opts.CaptionMedia && kind.IsMedia() {
			caption := boldName + ": sent a " + kind.String()
			// Caption delivery is cosmetic; the media already arrived.
			_ = pctx.Client.SendText(ctx, target, caption)
		}
	}
	return nil
}

// ensurePlan returns the memoized plan, resolving it on first need. The
// check-compute-check pattern keeps concurrent first-callers from racing
// to build it twice. A spec without clusters resolves to no plan, and
// relaying stays off for the process lifetime; that outcome is cached
// too, so later messages never touch the write lock.
func (f *Forwarder) ensurePlan(ctx context.Context, resolver AliasResolver, spec *plugin.Spec) (*Plan, error) {
	f.mu.RLock()
	plan, resolved := f.plan, f.resolved
	f.mu.RUnlock()
	if resolved {
		return plan, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved {
		return f.plan, nil
	}

	if spec.Config == nil {
		f.resolved = true
		return nil, nil
	}
	var cfg Config
	if err := plugin.DecodeConfig(spec.Config, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Clusters) == 0 {
		f.resolved = true
		return nil, nil
	}
	f.plan = BuildPlan(ctx, resolver, &cfg)
	f.resolved = true
	return f.plan, nil
}

func (f *Forwarder) displayName(ctx context.Context, client mx.Client, msg *mx.Message) string {
	name, err := client.MemberDisplayName(ctx, msg.Room, msg.Sender)
	if err != nil || name == "" {
		return msg.Sender.Localpart()
	}
	return name
}

// formatText renders text-like content as `<bold name>: body`, with the
// quoted-reply preamble extracted into a truncated snippet line. Media
// returns ok=false and is forwarded as content instead.
func formatText(content *event.MessageEventContent, boldName string) (string, bool) {
	var actionPrefix string
	switch mx.KindOf(content) {
	case mx.KindText, mx.KindNotice:
	case mx.KindEmote:
		actionPrefix = "* "
	default:
		return "", false
	}

	quoted, main, hasQuote := splitReplyFallback(content.Body)
	var b strings.Builder
	if hasQuote {
		b.WriteString("↪ ")
		b.WriteString(plugin.Truncate(quoted, quoteSnippetMax))
		b.WriteString("\n")
	}
	b.WriteString(boldName)
	b.WriteString(": ")
	b.WriteString(actionPrefix)
	b.WriteString(strings.TrimSpace(main))
	return b.String(), true
}

// splitReplyFallback separates a quoted-reply preamble ("> " prefixed
// lines before a blank line) from the main text. Bodies without a
// recognizable quote block come back unchanged.
func splitReplyFallback(body string) (quoted, main string, hasQuote bool) {
	sep := strings.Index(body, "\n\n")
	if sep < 0 {
		return "", body, false
	}
	quotedBlock := body[:sep]
	main = strings.TrimLeft(body[sep:], "\n")

	var quotedLines []string
	for _, line := range strings.Split(quotedBlock, "\n") {
		if stripped, ok := strings.CutPrefix(line, "> "); ok {
			quotedLines = append(quotedLines, stripped)
		} else if strings.HasPrefix(line, ">") {
			quotedLines = append(quotedLines, strings.TrimSpace(strings.TrimLeft(line, ">")))
		}
	}
	if len(quotedLines) == 0 {
		return "", body, false
	}
	return strings.TrimSpace(strings.Join(quotedLines, " ")), main, true
}

// forwardMedia re-uploads the original bytes as a fresh attachment when
// reupload is on, falling back to forwarding the original content
// unchanged if the download or upload fails.
func forwardMedia(ctx context.Context, client mx.Client, target id.RoomID, msg *mx.Message, reupload bool) error {
	content := msg.Content
	if reupload && msg.Kind().IsMedia() {
		data, err := client.DownloadMedia(ctx, content)
		if err != nil {
			slog.Warn("Media download failed; forwarding original event", "kind", msg.Kind(), "error", err)
		} else {
			if err := client.SendAttachment(ctx, target, content.Body, mimeOf(content), data); err == nil {
				return nil
			}
			slog.Warn("Media reupload failed; forwarding original event", "kind", msg.Kind(), "to", target)
		}
	}
	return client.SendContent(ctx, target, content)
}

func mimeOf(content *event.MessageEventContent) string {
	if content.Info != nil && content.Info.MimeType != "" {
		return content.Info.MimeType
	}
	return "application/octet-stream"
}

// Bold maps ASCII letters and digits to their bold Unicode mathematical
// alphanumeric equivalents. Cosmetic only, not protocol-level escaping.
func Bold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune('𝐀' + (r - 'A'))
		case r >= 'a' && r <= 'z':
			b.WriteRune('𝐚' + (r - 'a'))
		case r >= '0' && r <= '9':
			b.WriteRune('𝟎' + (r - '0'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
