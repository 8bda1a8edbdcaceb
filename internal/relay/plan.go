// Package relay mirrors messages between configured room clusters. The
// fan-out plan is resolved once per process from static configuration;
// rebuilding at runtime is not supported.
package relay

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"maunium.net/go/mautrix/id"
)

// Cluster is one named set of rooms that relay to each other, with
// optional per-cluster overrides of the media options.
type Cluster struct {
	Rooms         []string `yaml:"rooms"`
	ReuploadMedia *bool    `yaml:"reupload_media"`
	CaptionMedia  *bool    `yaml:"caption_media"`
}

// Config is the relay plugin's config document: clusters plus global
// option defaults. Both levels default to on.
type Config struct {
	Clusters      []Cluster `yaml:"clusters"`
	ReuploadMedia *bool     `yaml:"reupload_media"`
	CaptionMedia  *bool     `yaml:"caption_media"`
}

// Options are the effective per-room delivery options.
type Options struct {
	ReuploadMedia bool
	CaptionMedia  bool
}

// AliasResolver resolves a room alias string to its canonical room ID.
type AliasResolver interface {
	ResolveAlias(ctx context.Context, alias string) (id.RoomID, error)
}

// Plan is the resolved fan-out map: for each source room, the peer rooms
// to forward to and the options to apply. Immutable after construction.
type Plan struct {
	Peers map[id.RoomID][]id.RoomID
	Opts  map[id.RoomID]Options
}

// BuildPlan resolves cluster configuration into a Plan. Room references
// that are neither a room ID nor a resolvable alias are dropped with a
// warning; they never fail the whole plan. A room appearing in several
// clusters accumulates peers from each (deduplicated); its options come
// from the last cluster that lists it.
func BuildPlan(ctx context.Context, resolver AliasResolver, cfg *Config) *Plan {
	plan := &Plan{
		Peers: make(map[id.RoomID][]id.RoomID),
		Opts:  make(map[id.RoomID]Options),
	}

	for _, cluster := range cfg.Clusters {
		resolved := make([]id.RoomID, 0, len(cluster.Rooms))
		for _, ref := range cluster.Rooms {
			switch {
			case strings.HasPrefix(ref, "!"):
				resolved = append(resolved, id.RoomID(ref))
			case strings.HasPrefix(ref, "#"):
				roomID, err := resolver.ResolveAlias(ctx, ref)
				if err != nil {
					slog.Warn("Failed to resolve room alias; skipping", "alias", ref, "error", err)
					continue
				}
				resolved = append(resolved, roomID)
			default:
				slog.Warn("Invalid room reference (expect !room_id or #alias); skipping", "room", ref)
			}
		}

		opts := Options{
			ReuploadMedia: resolveOption(cluster.ReuploadMedia, cfg.ReuploadMedia),
			CaptionMedia:  resolveOption(cluster.CaptionMedia, cfg.CaptionMedia),
		}

		for _, room := range resolved {
			for _, peer := range resolved {
				if peer == room || slices.Contains(plan.Peers[room], peer) {
					continue
				}
				plan.Peers[room] = append(plan.Peers[room], peer)
			}
			plan.Opts[room] = opts
		}
	}

	slog.Info("Resolved relay plan", "clusters", len(cfg.Clusters), "rooms", len(plan.Peers))
	return plan
}

// resolveOption layers cluster over global over the hard default of on.
func resolveOption(cluster, global *bool) bool {
	if cluster != nil {
		return *cluster
	}
	if global != nil {
		return *global
	}
	return true
}
