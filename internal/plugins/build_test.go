package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/roomclaw/roomclaw/internal/config"
	"github.com/roomclaw/roomclaw/internal/plugin"
	"github.com/roomclaw/roomclaw/internal/relay"
)

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Homeserver:  "https://matrix.example.org",
		UserID:      "@bot:example.org",
		AccessToken: "secret",
		PluginsDir:  t.TempDir(),
	}
}

func TestBuildRegistryDefaults(t *testing.T) {
	registry := BuildRegistry(baseConfig(t))

	for _, id := range []string{"echo", "phrases", "mode", "diag", "plugins", "relay"} {
		if registry.ByID(id) == nil {
			t.Errorf("builtin %q missing from registry", id)
		}
		if !registry.IsEnabled(id) {
			t.Errorf("builtin %q should default to enabled", id)
		}
	}
	if registry.ByCommand("!echo") == nil || registry.ByCommand("!ping") == nil {
		t.Error("default command triggers missing")
	}
}

func TestBuildRegistryExplicitSpecWins(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Plugins = []plugin.Spec{{
		ID:       "echo",
		Enabled:  false,
		Triggers: plugin.Triggers{Commands: []string{"!say"}},
	}}

	registry := BuildRegistry(cfg)

	if registry.IsEnabled("echo") {
		t.Error("explicitly disabled plugin should stay disabled")
	}
	if entry := registry.ByCommand("!say"); entry == nil || entry.Spec.ID != "echo" {
		t.Error("configured trigger missing")
	}
	// Default triggers are folded into an explicitly configured spec.
	if entry := registry.ByCommand("!echo"); entry == nil || entry.Spec.ID != "echo" {
		t.Error("default trigger should still route after configuration")
	}
}

func TestBuildRegistryRelayInjection(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Clusters = []config.RoomCluster{{Rooms: []string{"!a:x", "!b:x"}}}

	registry := BuildRegistry(cfg)
	entry := registry.ByID("relay")
	if entry == nil {
		t.Fatal("relay entry missing")
	}
	// The injected config must be a plain document so file config can
	// deep-merge over it.
	if _, ok := entry.Spec.Config.(map[string]any); !ok {
		t.Fatalf("relay config = %T, want map[string]any", entry.Spec.Config)
	}
	var rc relay.Config
	if err := plugin.DecodeConfig(entry.Spec.Config, &rc); err != nil {
		t.Fatalf("decoding relay config: %v", err)
	}
	if len(rc.Clusters) != 1 || len(rc.Clusters[0].Rooms) != 2 {
		t.Errorf("relay clusters = %#v", rc.Clusters)
	}
}

func TestBuildRegistryRelayFileConfigKeepsClusters(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Clusters = []config.RoomCluster{{Rooms: []string{"!a:x", "!b:x"}}}

	dir := filepath.Join(cfg.PluginsDir, "relay")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("caption_media: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	registry := BuildRegistry(cfg)
	entry := registry.ByID("relay")
	if entry == nil {
		t.Fatal("relay entry missing")
	}
	var rc relay.Config
	if err := plugin.DecodeConfig(entry.Spec.Config, &rc); err != nil {
		t.Fatalf("decoding relay config: %v", err)
	}
	if len(rc.Clusters) != 1 || len(rc.Clusters[0].Rooms) != 2 {
		t.Fatalf("clusters = %#v, want the injected cluster to survive the file merge", rc.Clusters)
	}
	if rc.CaptionMedia == nil || *rc.CaptionMedia {
		t.Error("caption_media from the file should apply")
	}
}

func TestBuildRegistryNoClustersNoRelayConfig(t *testing.T) {
	registry := BuildRegistry(baseConfig(t))
	entry := registry.ByID("relay")
	if entry == nil {
		t.Fatal("relay should register even without clusters")
	}
	if entry.Spec.Config != nil {
		t.Errorf("relay config = %#v, want nil without clusters", entry.Spec.Config)
	}
}

func TestBuildRegistryUnknownPluginSkipped(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Plugins = []plugin.Spec{{ID: "does-not-exist", Enabled: true}}

	registry := BuildRegistry(cfg)
	if registry.ByID("does-not-exist") != nil {
		t.Error("unknown plugin ids must be skipped")
	}
	if registry.ByID("echo") == nil {
		t.Error("known builtins should register regardless")
	}
}

func TestBuildRegistryFileConfigMerge(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Plugins = []plugin.Spec{{
		ID:      "echo",
		Enabled: true,
		Config: map[string]any{
			"prefix":    "injected: ",
			"uppercase": true,
		},
	}}

	dir := filepath.Join(cfg.PluginsDir, "echo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("prefix: \"from-file: \"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	registry := BuildRegistry(cfg)
	entry := registry.ByID("echo")
	if entry == nil {
		t.Fatal("echo entry missing")
	}

	client := &replyClient{}
	pctx := &plugin.Context{Client: client, Room: "!r:x", Registry: registry}
	if err := entry.Plugin.Run(context.Background(), pctx, "hi", &entry.Spec); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// File scalars win; injected keys the file omits still apply.
	if got := lastReply(t, client); got != "from-file: HI" {
		t.Errorf("reply = %q, want merged config in effect", got)
	}
}

func TestBuildRegistryFileConfigDerivesTriggers(t *testing.T) {
	cfg := baseConfig(t)
	dir := filepath.Join(cfg.PluginsDir, "phrases")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := "greet:\n  - hello\nfarewell:\n  - bye\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	registry := BuildRegistry(cfg)
	if registry.ByCommand("!greet") == nil || registry.ByCommand("!farewell") == nil {
		t.Error("file-configured phrase commands missing")
	}
}
