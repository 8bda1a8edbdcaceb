// Package config provides configuration types and loading for roomclaw.
package config

import "github.com/roomclaw/roomclaw/internal/plugin"

// Config is the root configuration struct, decoded from the YAML config
// file and then overlaid with ROOMCLAW_* environment variables.
type Config struct {
	// Homeserver is the Matrix homeserver base URL.
	Homeserver string `yaml:"homeserver" envconfig:"HOMESERVER"`
	// UserID is the full Matrix user ID of the bot account.
	UserID string `yaml:"user_id" envconfig:"USER_ID"`
	// AccessToken authenticates the bot's session. Login and device
	// verification are out of scope; a valid token is assumed.
	AccessToken string `yaml:"access_token" envconfig:"ACCESS_TOKEN"`

	// StateDir holds process-local state such as the history database.
	StateDir string `yaml:"state_dir" envconfig:"STATE_DIR"`
	// PluginsDir is scanned for per-plugin config files at
	// <plugins_dir>/<id>/config.yaml.
	PluginsDir string `yaml:"plugins_dir" envconfig:"PLUGINS_DIR"`
	// AutoJoin accepts room invites automatically. Defaults to on.
	AutoJoin *bool `yaml:"auto_join" envconfig:"AUTO_JOIN"`

	// DevMode permits this instance to run as a dev instance. The --dev
	// flag must also be passed; both are required, as a guard against
	// accidentally starting a second prod instance.
	DevMode bool `yaml:"dev_mode" envconfig:"DEV_MODE"`
	// DevID is the routing tag a dev instance answers to, e.g. "bob"
	// makes !bob.echo and @bob.ai target this instance.
	DevID string `yaml:"dev_id" envconfig:"DEV_ID"`

	// Clusters configure message relaying. Rooms within a cluster mirror
	// each other's messages.
	Clusters []RoomCluster `yaml:"clusters"`
	// ReuploadMedia and CaptionMedia are global defaults for the
	// per-cluster options of the same name.
	ReuploadMedia *bool `yaml:"reupload_media"`
	CaptionMedia  *bool `yaml:"caption_media"`

	// Plugins lists explicitly configured plugin specs. Builtins absent
	// from this list are registered with their default spec.
	Plugins []plugin.Spec `yaml:"plugins"`
}

// RoomCluster is one set of rooms that relay to each other. Room
// references are either literal room IDs ("!abc:server") or aliases
// ("#room:server") resolved at plan-build time.
type RoomCluster struct {
	Rooms         []string `yaml:"rooms"`
	ReuploadMedia *bool    `yaml:"reupload_media"`
	CaptionMedia  *bool    `yaml:"caption_media"`
}

// AutoJoinEnabled reports whether invite auto-join is active.
func (c *Config) AutoJoinEnabled() bool {
	return c.AutoJoin == nil || *c.AutoJoin
}
