package plugins

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roomclaw/roomclaw/internal/config"
	"github.com/roomclaw/roomclaw/internal/plugin"
	"github.com/roomclaw/roomclaw/internal/relay"
)

// Builtins returns one instance of every builtin plugin. Plugins are
// stateless (the relay forwarder's memoized plan aside), so a single
// shared instance per id is fine.
func Builtins() []plugin.Plugin {
	return []plugin.Plugin{
		Echo{},
		Phrases{},
		Mode{},
		Diag{},
		Manager{},
		relay.New(),
	}
}

// BuildRegistry assembles the trigger registry from configuration:
//
//  1. Explicitly configured specs come first.
//  2. A relay spec is injected from the top-level clusters when the file
//     does not configure one.
//  3. Builtins absent from configuration get their default spec.
//  4. Per-plugin file config (<plugins_dir>/<id>/config.yaml) is merged
//     over the injected spec config — file wins on scalar conflicts —
//     and the plugin recomputes its spec from the merged document.
//
// Specs referencing unknown plugin ids are warned about and skipped.
func BuildRegistry(cfg *config.Config) *plugin.Registry {
	builtins := Builtins()
	byID := make(map[string]plugin.Plugin, len(builtins))
	for _, p := range builtins {
		byID[p.ID()] = p
	}

	specs := append([]plugin.Spec(nil), cfg.Plugins...)

	if len(cfg.Clusters) > 0 && !hasSpec(specs, "relay") {
		specs = append(specs, plugin.Spec{
			ID:      "relay",
			Enabled: true,
			Config:  relayConfigDoc(cfg),
		})
	}

	for _, p := range builtins {
		mergeDefaultSpec(&specs, p.DefaultSpec(nil))
	}

	registry := plugin.NewRegistry()
	for _, spec := range specs {
		p, ok := byID[spec.ID]
		if !ok {
			slog.Warn("Unknown plugin ID", "id", spec.ID)
			continue
		}

		configDoc := spec.Config
		if fileCfg, ok := loadPluginConfig(cfg.PluginsDir, spec.ID); ok {
			configDoc = config.Merge(fileCfg, spec.Config)
		}

		// Recompute the spec from the merged config (plugins may derive
		// triggers from it), then restore the user's explicit choices.
		computed := p.DefaultSpec(configDoc)
		computed.ID = spec.ID
		computed.Enabled = spec.Enabled
		if spec.DevOnly != nil {
			computed.DevOnly = spec.DevOnly
		}
		if !spec.Triggers.Empty() {
			computed.Triggers = spec.Triggers
		}
		registry.Register(computed, p)
	}
	return registry
}

func hasSpec(specs []plugin.Spec, id string) bool {
	for _, s := range specs {
		if s.ID == id {
			return true
		}
	}
	return false
}

// relayConfigDoc lifts the top-level cluster configuration into the relay
// plugin's config document. The typed struct is round-tripped through
// YAML into a plain map document so a per-plugin config file can
// deep-merge over it; a typed value would hit the merger's
// mismatched-type branch and shadow the injected clusters entirely.
func relayConfigDoc(cfg *config.Config) any {
	rc := relay.Config{
		ReuploadMedia: cfg.ReuploadMedia,
		CaptionMedia:  cfg.CaptionMedia,
	}
	for _, cluster := range cfg.Clusters {
		rc.Clusters = append(rc.Clusters, relay.Cluster{
			Rooms:         cluster.Rooms,
			ReuploadMedia: cluster.ReuploadMedia,
			CaptionMedia:  cluster.CaptionMedia,
		})
	}

	data, err := yaml.Marshal(rc)
	if err != nil {
		slog.Warn("Failed to encode relay config", "error", err)
		return nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("Failed to decode relay config document", "error", err)
		return nil
	}
	return doc
}

// mergeDefaultSpec folds a builtin's default spec into the configured
// list. Present plugins gain the default triggers they do not already
// declare. Missing plugins are appended as a bare enabled spec with no
// triggers, so registration derives them from DefaultSpec and any plugin
// config file.
func mergeDefaultSpec(specs *[]plugin.Spec, def plugin.Spec) {
	for i := range *specs {
		existing := &(*specs)[i]
		if existing.ID != def.ID {
			continue
		}
		if existing.Triggers.Empty() {
			return
		}
		for _, cmd := range def.Triggers.Commands {
			if !containsFold(existing.Triggers.Commands, cmd) {
				existing.Triggers.Commands = append(existing.Triggers.Commands, cmd)
			}
		}
		for _, mention := range def.Triggers.Mentions {
			if !containsFold(existing.Triggers.Mentions, mention) {
				existing.Triggers.Mentions = append(existing.Triggers.Mentions, mention)
			}
		}
		return
	}
	*specs = append(*specs, plugin.Spec{ID: def.ID, Enabled: def.Enabled})
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// loadPluginConfig reads <root>/<id>/config.yaml if it exists.
func loadPluginConfig(root, id string) (any, bool) {
	path := filepath.Join(root, id, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read plugin config file", "plugin", id, "file", path, "error", err)
		}
		return nil, false
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("Failed to parse plugin config YAML", "plugin", id, "file", path, "error", err)
		return nil, false
	}
	return doc, true
}
