package plugins

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"github.com/roomclaw/roomclaw/internal/plugin"
)

// Phrases is a generic phrase responder: its config maps command names
// (without the "!" sigil) to lists of candidate replies, one of which is
// picked at random. With no config it answers !ping with a classic pong.
type Phrases struct{}

func defaultPhrases() map[string][]string {
	return map[string][]string{
		"ping": {"Pong! 🏓"},
	}
}

func (Phrases) ID() string {
	return "phrases"
}

func (Phrases) Help() string {
	return "Generic phrase responder: define commands -> replies in plugin config"
}

// DefaultSpec derives the command triggers from the configured phrase
// keys, normalized and deduplicated.
func (Phrases) DefaultSpec(config any) plugin.Spec {
	phrases := decodePhrases(config)
	seen := make(map[string]bool, len(phrases))
	var commands []string
	for rawKey := range phrases {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(rawKey, "!")))
		if key == "" {
			continue
		}
		token := "!" + key
		if !seen[token] {
			seen[token] = true
			commands = append(commands, token)
		}
	}
	sort.Strings(commands)

	return plugin.Spec{
		ID:       "phrases",
		Enabled:  true,
		Triggers: plugin.Triggers{Commands: commands},
		Config:   config,
	}
}

func (Phrases) Run(ctx context.Context, pctx *plugin.Context, args string, spec *plugin.Spec) error {
	key := strings.ToLower(strings.TrimPrefix(pctx.Trigger, "!"))
	if key == "" {
		if len(spec.Triggers.Commands) == 0 {
			return nil
		}
		key = strings.ToLower(strings.TrimPrefix(spec.Triggers.Commands[0], "!"))
	}

	phrases := decodePhrases(spec.Config)
	replies, ok := phrases[key]
	if !ok {
		// Tolerate config keys written with the sigil.
		replies = phrases["!"+key]
	}
	if len(replies) == 0 {
		return nil
	}
	return plugin.SendText(ctx, pctx, replies[rand.Intn(len(replies))])
}

func decodePhrases(config any) map[string][]string {
	phrases := make(map[string][]string)
	if err := plugin.DecodeConfig(config, &phrases); err != nil || len(phrases) == 0 {
		return defaultPhrases()
	}
	return phrases
}
