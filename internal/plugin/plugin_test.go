package plugin

import (
	"context"
	"testing"

	"gopkg.in/yaml.v3"
	"maunium.net/go/mautrix/id"

	"github.com/roomclaw/roomclaw/internal/mx"
)

type sendRecorder struct {
	mx.Client
	room id.RoomID
	text string
}

func (s *sendRecorder) SendText(ctx context.Context, room id.RoomID, text string) error {
	s.room = room
	s.text = text
	return nil
}

func (s *sendRecorder) UserID() id.UserID { return "@bot:example.org" }

func TestSpecUnmarshalDefaults(t *testing.T) {
	var specs []Spec
	doc := `
- id: echo
- id: quiet
  enabled: false
- id: dev-tool
  dev_only: true
`
	if err := yaml.Unmarshal([]byte(doc), &specs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !specs[0].Enabled {
		t.Error("enabled should default to true when omitted")
	}
	if specs[1].Enabled {
		t.Error("explicit enabled: false must stick")
	}
	if specs[0].DevOnly != nil {
		t.Error("dev_only should default to nil, deferring to the plugin")
	}
	if specs[2].DevOnly == nil || !*specs[2].DevOnly {
		t.Error("explicit dev_only: true must stick")
	}
}

func TestIsDevOnly(t *testing.T) {
	yes, no := true, false
	defaultsOn := stubPlugin{id: "d", devOnly: true}
	defaultsOff := stubPlugin{id: "p", devOnly: false}

	tests := []struct {
		name string
		spec Spec
		p    Plugin
		want bool
	}{
		{name: "nil defers to plugin default on", spec: Spec{}, p: defaultsOn, want: true},
		{name: "nil defers to plugin default off", spec: Spec{}, p: defaultsOff, want: false},
		{name: "spec false overrides plugin true", spec: Spec{DevOnly: &no}, p: defaultsOn, want: false},
		{name: "spec true overrides plugin false", spec: Spec{DevOnly: &yes}, p: defaultsOff, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDevOnly(&tt.spec, tt.p); got != tt.want {
				t.Errorf("IsDevOnly = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeCommand("echo"); got != "!echo" {
		t.Errorf("NormalizeCommand = %q", got)
	}
	if got := NormalizeCommand("!echo"); got != "!echo" {
		t.Errorf("NormalizeCommand idempotent = %q", got)
	}
	if got := NormalizeMention("AI"); got != "@ai" {
		t.Errorf("NormalizeMention = %q", got)
	}
	if got := NormalizeMention("@Ai"); got != "@ai" {
		t.Errorf("NormalizeMention idempotent = %q", got)
	}
}

func TestDecodeConfig(t *testing.T) {
	doc := map[string]any{"prefix": "p: ", "uppercase": true}
	var out struct {
		Prefix    string `yaml:"prefix"`
		Uppercase bool   `yaml:"uppercase"`
	}
	if err := DecodeConfig(doc, &out); err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if out.Prefix != "p: " || !out.Uppercase {
		t.Errorf("DecodeConfig = %+v", out)
	}

	out.Prefix = "untouched"
	if err := DecodeConfig(nil, &out); err != nil {
		t.Fatalf("DecodeConfig(nil): %v", err)
	}
	if out.Prefix != "untouched" {
		t.Error("nil doc should leave the target untouched")
	}
}

func TestSendTextDevBanner(t *testing.T) {
	rec := &sendRecorder{}
	pctx := &Context{Client: rec, Room: "!room:example.org", DevActive: true}
	if err := SendText(context.Background(), pctx, "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if rec.text != "=======DEV MODE=======\nhello" {
		t.Errorf("dev reply = %q, want banner prefix", rec.text)
	}

	pctx.DevActive = false
	if err := SendText(context.Background(), pctx, "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if rec.text != "hello" {
		t.Errorf("prod reply = %q, want no banner", rec.text)
	}
}

func TestSanitizeLine(t *testing.T) {
	if got := SanitizeLine("  a\n\tb   c ", 100); got != "a b c" {
		t.Errorf("SanitizeLine = %q", got)
	}
	if got := SanitizeLine("héllo wörld", 4); got != "héll" {
		t.Errorf("SanitizeLine truncation = %q, want rune-safe cut", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("𝐀𝐁𝐂𝐃", 2); got != "𝐀𝐁" {
		t.Errorf("Truncate multi-byte = %q", got)
	}
}
