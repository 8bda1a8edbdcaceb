package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomclaw/roomclaw/internal/plugin"
)

// Mode reports whether this instance runs as dev or prod and how to
// address it.
type Mode struct{}

func (Mode) ID() string {
	return "mode"
}

func (Mode) Help() string {
	return "Show current mode (dev/prod) and how to target it."
}

func (Mode) DefaultSpec(config any) plugin.Spec {
	return plugin.Spec{
		ID:       "mode",
		Enabled:  true,
		Triggers: plugin.Triggers{Commands: []string{"!mode"}},
		Config:   config,
	}
}

func (Mode) Run(ctx context.Context, pctx *plugin.Context, args string, spec *plugin.Spec) error {
	var lines []string
	if pctx.DevActive {
		lines = append(lines, "mode: dev")
		if pctx.DevID != "" {
			lines = append(lines,
				fmt.Sprintf("this instance handles commands tagged as !%s.<command>", pctx.DevID),
				fmt.Sprintf("example: !%s.mode", pctx.DevID),
				fmt.Sprintf("mentions must use @%s.<name>", pctx.DevID),
			)
		}
	} else {
		lines = append(lines, "mode: prod")
		if pctx.DevID != "" {
			lines = append(lines,
				fmt.Sprintf("commands without the !%s. prefix run here", pctx.DevID),
				fmt.Sprintf("commands tagged !%s.<command> are ignored", pctx.DevID),
			)
		} else {
			lines = append(lines, "this instance handles commands without a dev prefix")
		}
		lines = append(lines, "example: !mode")
	}
	return plugin.SendText(ctx, pctx, strings.Join(lines, "\n"))
}
