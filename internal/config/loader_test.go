package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
homeserver: https://matrix.example.org
user_id: "@bot:example.org"
access_token: secret
dev_mode: true
dev_id: bob
clusters:
  - rooms: ["!a:example.org", "!b:example.org"]
    reupload_media: false
plugins:
  - id: echo
    config:
      prefix: "echo: "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Homeserver != "https://matrix.example.org" {
		t.Errorf("Homeserver = %q", cfg.Homeserver)
	}
	if cfg.UserID != "@bot:example.org" {
		t.Errorf("UserID = %q", cfg.UserID)
	}
	if !cfg.DevMode || cfg.DevID != "bob" {
		t.Errorf("DevMode/DevID = %v/%q", cfg.DevMode, cfg.DevID)
	}
	if cfg.StateDir != "./roomclaw-state" {
		t.Errorf("StateDir default = %q", cfg.StateDir)
	}
	if cfg.PluginsDir != "./plugins" {
		t.Errorf("PluginsDir default = %q", cfg.PluginsDir)
	}
	if !cfg.AutoJoinEnabled() {
		t.Error("AutoJoin should default to enabled")
	}
	if len(cfg.Clusters) != 1 || len(cfg.Clusters[0].Rooms) != 2 {
		t.Fatalf("Clusters = %#v", cfg.Clusters)
	}
	if cfg.Clusters[0].ReuploadMedia == nil || *cfg.Clusters[0].ReuploadMedia {
		t.Error("cluster reupload_media should be explicitly false")
	}
	if len(cfg.Plugins) != 1 || cfg.Plugins[0].ID != "echo" {
		t.Fatalf("Plugins = %#v", cfg.Plugins)
	}
	if !cfg.Plugins[0].Enabled {
		t.Error("plugin enabled should default to true")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
homeserver: https://matrix.example.org
user_id: "@bot:example.org"
access_token: from-file
`)
	t.Setenv("ROOMCLAW_ACCESS_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessToken != "from-env" {
		t.Errorf("AccessToken = %q, want env value", cfg.AccessToken)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing homeserver",
			content: "user_id: \"@bot:example.org\"\naccess_token: s\n",
			wantErr: "homeserver",
		},
		{
			name:    "missing user id",
			content: "homeserver: https://x\naccess_token: s\n",
			wantErr: "user_id",
		},
		{
			name:    "missing token",
			content: "homeserver: https://x\nuser_id: \"@bot:x\"\n",
			wantErr: "access_token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load should fail on a missing file")
	}
}
