package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomclaw/roomclaw/internal/plugin"
)

// Diag reports instance diagnostics: identity, mode, joined rooms, and
// dispatch/relay activity counts from the history store.
type Diag struct{}

func (Diag) ID() string {
	return "diag"
}

func (Diag) Help() string {
	return "Show instance and dispatch diagnostics."
}

func (Diag) DefaultSpec(config any) plugin.Spec {
	return plugin.Spec{
		ID:       "diag",
		Enabled:  true,
		Triggers: plugin.Triggers{Commands: []string{"!diag"}},
		Config:   config,
	}
}

func (Diag) Run(ctx context.Context, pctx *plugin.Context, args string, spec *plugin.Spec) error {
	mode := "prod"
	if pctx.DevActive {
		mode = "dev"
	}
	lines := []string{
		fmt.Sprintf("diag for %s", pctx.Room),
		fmt.Sprintf("user: %s", pctx.Client.UserID()),
		fmt.Sprintf("mode: %s", mode),
	}

	if rooms, err := pctx.Client.JoinedRooms(ctx); err == nil {
		lines = append(lines, fmt.Sprintf("joined_rooms: %d", len(rooms)))
	} else {
		lines = append(lines, fmt.Sprintf("joined_rooms: unavailable (%v)", err))
	}

	if counts, err := pctx.History.Counts(); err == nil {
		lines = append(lines,
			fmt.Sprintf("dispatches: %d (%d failed)", counts.Dispatches, counts.DispatchFailures),
			fmt.Sprintf("relays: %d (%d failed)", counts.Relays, counts.RelayFailures),
		)
	}

	return plugin.SendText(ctx, pctx, strings.Join(lines, "\n"))
}
