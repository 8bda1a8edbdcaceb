package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomclaw/roomclaw/internal/plugin"
)

const managerUsage = "Usage: !plugins [list|enable <id>|disable <id>]"

// Manager administers the registry at runtime: listing plugins and
// toggling them via runtime overrides.
type Manager struct{}

func (Manager) ID() string {
	return "plugins"
}

func (Manager) Help() string {
	return "Manage plugins: !plugins list | enable <id> | disable <id>"
}

func (Manager) DefaultSpec(config any) plugin.Spec {
	return plugin.Spec{
		ID:       "plugins",
		Enabled:  true,
		Triggers: plugin.Triggers{Commands: []string{"!plugins", "!tools"}},
		Config:   config,
	}
}

func (Manager) Run(ctx context.Context, pctx *plugin.Context, args string, spec *plugin.Spec) error {
	fields := strings.Fields(args)
	verb := "list"
	if len(fields) > 0 {
		verb = fields[0]
	}

	switch verb {
	case "list":
		rows := []string{"plugins:"}
		for _, row := range pctx.Registry.Entries() {
			devOnly := plugin.IsDevOnly(&row.Entry.Spec, row.Entry.Plugin)
			rows = append(rows, fmt.Sprintf(
				"- %s: enabled=%t dev_only=%t cmds=[%s] mentions=[%s]",
				row.ID,
				pctx.Registry.IsEnabled(row.ID),
				devOnly,
				strings.Join(row.Entry.Spec.Triggers.Commands, ", "),
				strings.Join(row.Entry.Spec.Triggers.Mentions, ", "),
			))
		}
		return plugin.SendText(ctx, pctx, strings.Join(rows, "\n"))
	case "enable", "disable":
		if len(fields) < 2 {
			return plugin.SendText(ctx, pctx, managerUsage)
		}
		id := fields[1]
		if pctx.Registry.ByID(id) == nil {
			return plugin.SendText(ctx, pctx, fmt.Sprintf("unknown plugin: %s", id))
		}
		enable := verb == "enable"
		pctx.Registry.SetOverride(id, enable)
		state := "disabled"
		if enable {
			state = "enabled"
		}
		return plugin.SendText(ctx, pctx, fmt.Sprintf("%s plugin: %s", state, id))
	default:
		return plugin.SendText(ctx, pctx, managerUsage)
	}
}
