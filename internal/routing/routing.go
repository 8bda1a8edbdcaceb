// Package routing classifies command and mention tokens so that one prod
// instance and any number of tagged dev instances can share rooms without
// double-handling. Routing is decided purely from the token text and the
// instance's own static identity; no coordination protocol is involved.
//
// Token grammar: "!<name>" and "@<name>" are untagged and prod-routed;
// "!<tag>.<name>" and "@<tag>.<name>" target the instance whose dev id
// equals <tag> (case-insensitive).
package routing

import "strings"

// Decision is where a token is routed relative to this instance.
type Decision int

const (
	// Prod means the token is untagged and addresses the prod instance.
	Prod Decision = iota
	// Dev means the token's tag matches this instance's dev id.
	Dev
	// OtherDev means the token targets some other instance (foreign tag,
	// malformed tag, or a tag when this instance has no dev id). Tokens
	// classified OtherDev are never executed.
	OtherDev
)

func (d Decision) String() string {
	switch d {
	case Prod:
		return "prod"
	case Dev:
		return "dev"
	default:
		return "other-dev"
	}
}

// ClassifyCommand classifies a raw "!..." command token. It returns the
// tag-stripped token suitable for registry lookup and the routing
// decision. devID may be empty when this instance has no dev identity.
func ClassifyCommand(token, devID string) (string, Decision) {
	return classify(token, '!', devID)
}

// ClassifyMention classifies a raw "@..." mention token. The returned
// token is lowercased to match the registry's mention index.
func ClassifyMention(token, devID string) (string, Decision) {
	normalized, decision := classify(token, '@', devID)
	return strings.ToLower(normalized), decision
}

func classify(token string, sigil byte, devID string) (string, Decision) {
	if len(token) == 0 || token[0] != sigil {
		return token, Prod
	}
	tag, rest, tagged := strings.Cut(token[1:], ".")
	if !tagged {
		return token, Prod
	}
	if rest == "" {
		// Malformed, e.g. "!dev." — never execute on it.
		return token, OtherDev
	}
	normalized := string(sigil) + rest
	if devID != "" && strings.EqualFold(tag, devID) {
		return normalized, Dev
	}
	return normalized, OtherDev
}
