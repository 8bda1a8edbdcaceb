// Package plugins holds the builtin plugin implementations and the
// registry builder that assembles them from merged configuration.
package plugins

import (
	"context"
	"strings"

	"github.com/roomclaw/roomclaw/internal/plugin"
)

// Echo replies with the command's argument tail.
type Echo struct{}

type echoConfig struct {
	Prefix    string `yaml:"prefix"`
	Uppercase bool   `yaml:"uppercase"`
}

func (Echo) ID() string {
	return "echo"
}

func (Echo) Help() string {
	return "Echo text back. Config: prefix, uppercase"
}

func (Echo) DefaultSpec(config any) plugin.Spec {
	return plugin.Spec{
		ID:       "echo",
		Enabled:  true,
		Triggers: plugin.Triggers{Commands: []string{"!echo"}},
		Config:   config,
	}
}

func (Echo) Run(ctx context.Context, pctx *plugin.Context, args string, spec *plugin.Spec) error {
	var cfg echoConfig
	_ = plugin.DecodeConfig(spec.Config, &cfg)

	out := strings.TrimSpace(args)
	if cfg.Uppercase {
		out = strings.ToUpper(out)
	}
	if cfg.Prefix != "" {
		out = cfg.Prefix + out
	}
	if out == "" {
		out = "(nothing to echo)"
	}
	return plugin.SendText(ctx, pctx, out)
}
