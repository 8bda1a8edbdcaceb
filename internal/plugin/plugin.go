// Package plugin defines the plugin contract and the concurrent trigger
// registry that routes commands and mentions to installed plugins.
package plugin

import (
	"context"
	"strings"

	"gopkg.in/yaml.v3"
	"maunium.net/go/mautrix/id"

	"github.com/roomclaw/roomclaw/internal/history"
	"github.com/roomclaw/roomclaw/internal/mx"
)

// Triggers declares the command and mention tokens that select a plugin.
// Tokens are normalized on registration: commands gain a leading "!",
// mentions gain "@" and are lowercased.
type Triggers struct {
	Commands []string `yaml:"commands"`
	Mentions []string `yaml:"mentions"`
}

// Empty reports whether no triggers are declared.
func (t Triggers) Empty() bool {
	return len(t.Commands) == 0 && len(t.Mentions) == 0
}

// Spec declares one installable plugin. Specs are replaced wholesale on
// re-registration, never partially mutated.
type Spec struct {
	ID string `yaml:"id"`
	// Enabled is the static default; runtime overrides in the registry
	// take precedence. Defaults to true when omitted from YAML.
	Enabled bool `yaml:"enabled"`
	// DevOnly restricts the plugin to dev instances. nil defers to the
	// plugin's own default.
	DevOnly  *bool    `yaml:"dev_only"`
	Triggers Triggers `yaml:"triggers"`
	// Config is the plugin-specific document, opaque to the registry.
	Config any `yaml:"config"`
}

// UnmarshalYAML decodes a spec with enabled defaulting to true.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	type rawSpec Spec
	raw := rawSpec{Enabled: true}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = Spec(raw)
	return nil
}

// Context carries per-invocation collaborators into a plugin run.
type Context struct {
	Client mx.Client
	// Room is the room the triggering message arrived in.
	Room id.RoomID
	// DevActive and DevID describe this instance's routing identity.
	DevActive bool
	DevID     string
	// Registry allows management plugins to inspect and toggle plugins.
	Registry *Registry
	// History records dispatch and relay activity. May be nil.
	History *history.Store
	// Trigger is the normalized token that selected the plugin, e.g.
	// "!echo" or "@ai". Empty for passive room-message deliveries.
	Trigger string
}

// Plugin is the closed interface every capability implements. The set of
// plugins is open; the registry stores them as shared interface handles.
type Plugin interface {
	// ID returns the stable plugin identifier.
	ID() string
	// Help returns a one-line usage description.
	Help() string
	// DefaultSpec derives the plugin's default spec from the provided
	// config document (nil for builtin defaults). Implementations may
	// derive triggers from the config.
	DefaultSpec(config any) Spec
	// Run handles a command or mention invocation. args is the command's
	// argument tail, or the full message body for mentions.
	Run(ctx context.Context, pctx *Context, args string, spec *Spec) error
}

// DevOnlyDefaulter is implemented by plugins whose dev_only default is
// not false. Spec.DevOnly, when set, wins over this.
type DevOnlyDefaulter interface {
	DevOnly() bool
}

// RoomListener is implemented by passive plugins that observe every room
// message regardless of triggers (e.g. the relay forwarder).
type RoomListener interface {
	OnRoomMessage(ctx context.Context, pctx *Context, msg *mx.Message, spec *Spec) error
}

// OwnMessageObserver is implemented by passive plugins that also want the
// bot's own outgoing messages.
type OwnMessageObserver interface {
	WantsOwnMessages() bool
}

// IsDevOnly resolves the effective dev_only flag for an entry: the spec
// override if present, else the plugin's own default.
func IsDevOnly(spec *Spec, p Plugin) bool {
	if spec.DevOnly != nil {
		return *spec.DevOnly
	}
	if d, ok := p.(DevOnlyDefaulter); ok {
		return d.DevOnly()
	}
	return false
}

// NormalizeCommand gives a raw command trigger its "!" sigil.
func NormalizeCommand(s string) string {
	if strings.HasPrefix(s, "!") {
		return s
	}
	return "!" + s
}

// NormalizeMention gives a raw mention trigger its "@" sigil and
// case-folds it; mention matching is case-insensitive.
func NormalizeMention(s string) string {
	if !strings.HasPrefix(s, "@") {
		s = "@" + s
	}
	return strings.ToLower(s)
}

// DecodeConfig converts an opaque config document into a typed struct by
// round-tripping through YAML.
func DecodeConfig(doc any, out any) error {
	if doc == nil {
		return nil
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

const devBanner = "=======DEV MODE=======\n"

// SendText sends plain text to the invocation's room. Dev instances
// prefix a loud banner so their replies are distinguishable in shared
// rooms.
func SendText(ctx context.Context, pctx *Context, text string) error {
	if pctx.DevActive {
		text = devBanner + text
	}
	return pctx.Client.SendText(ctx, pctx.Room, text)
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// SanitizeLine collapses whitespace runs into single spaces and truncates
// to max runes, for log- and caption-friendly one-liners.
func SanitizeLine(s string, max int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), max)
}
