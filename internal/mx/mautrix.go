package mx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// MautrixClient adapts *mautrix.Client to the Client interface and owns
// the sync loop.
type MautrixClient struct {
	raw *mautrix.Client
}

// NewMautrixClient builds a client for an existing token-authenticated
// session.
func NewMautrixClient(homeserver string, userID id.UserID, accessToken string) (*MautrixClient, error) {
	raw, err := mautrix.NewClient(homeserver, userID, accessToken)
	if err != nil {
		return nil, fmt.Errorf("building matrix client: %w", err)
	}
	return &MautrixClient{raw: raw}, nil
}

func (m *MautrixClient) UserID() id.UserID {
	return m.raw.UserID
}

func (m *MautrixClient) SendText(ctx context.Context, room id.RoomID, text string) error {
	_, err := m.raw.SendText(ctx, room, text)
	return err
}

func (m *MautrixClient) SendContent(ctx context.Context, room id.RoomID, content *event.MessageEventContent) error {
	_, err := m.raw.SendMessageEvent(ctx, room, event.EventMessage, content)
	return err
}

func (m *MautrixClient) SendAttachment(ctx context.Context, room id.RoomID, filename, mimeType string, data []byte) error {
	upload, err := m.raw.UploadMedia(ctx, mautrix.ReqUploadMedia{
		ContentBytes:  data,
		ContentLength: int64(len(data)),
		ContentType:   mimeType,
		FileName:      filename,
	})
	if err != nil {
		return fmt.Errorf("uploading attachment: %w", err)
	}
	content := &event.MessageEventContent{
		MsgType: msgTypeForMime(mimeType),
		Body:    filename,
		URL:     upload.ContentURI.CUString(),
		Info: &event.FileInfo{
			MimeType: mimeType,
			Size:     len(data),
		},
	}
	return m.SendContent(ctx, room, content)
}

func (m *MautrixClient) ResolveAlias(ctx context.Context, alias string) (id.RoomID, error) {
	resp, err := m.raw.ResolveAlias(ctx, id.RoomAlias(alias))
	if err != nil {
		return "", err
	}
	return resp.RoomID, nil
}

func (m *MautrixClient) MemberDisplayName(ctx context.Context, room id.RoomID, user id.UserID) (string, error) {
	var member event.MemberEventContent
	if err := m.raw.StateEvent(ctx, room, event.StateMember, user.String(), &member); err != nil {
		return "", err
	}
	return member.Displayname, nil
}

func (m *MautrixClient) DownloadMedia(ctx context.Context, content *event.MessageEventContent) ([]byte, error) {
	uri, err := content.URL.Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing media URI: %w", err)
	}
	return m.raw.DownloadBytes(ctx, uri)
}

func (m *MautrixClient) JoinedRooms(ctx context.Context) ([]id.RoomID, error) {
	resp, err := m.raw.JoinedRooms(ctx)
	if err != nil {
		return nil, err
	}
	return resp.JoinedRooms, nil
}

// OnMessage registers the inbound message handler. Each event runs on its
// own goroutine so a slow handler never stalls the sync loop; within one
// room the transport still hands events over in order.
func (m *MautrixClient) OnMessage(handler func(ctx context.Context, msg *Message)) {
	syncer := m.raw.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, func(ctx context.Context, evt *event.Event) {
		content, ok := evt.Content.Parsed.(*event.MessageEventContent)
		if !ok {
			return
		}
		msg := &Message{
			Room:    evt.RoomID,
			Sender:  evt.Sender,
			EventID: evt.ID,
			Content: content,
		}
		go handler(ctx, msg)
	})
}

// EnableAutoJoin accepts room invites addressed to the bot, best-effort.
func (m *MautrixClient) EnableAutoJoin() {
	syncer := m.raw.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.StateMember, func(ctx context.Context, evt *event.Event) {
		if evt.GetStateKey() != m.raw.UserID.String() {
			return
		}
		if evt.Content.AsMember().Membership != event.MembershipInvite {
			return
		}
		slog.Info("Auto-joining invited room", "room_id", evt.RoomID)
		if _, err := m.raw.JoinRoomByID(ctx, evt.RoomID); err != nil {
			slog.Warn("Failed to accept invite", "room_id", evt.RoomID, "error", err)
		}
	})
}

// Run blocks on the sync loop until ctx is cancelled or sync fails.
func (m *MautrixClient) Run(ctx context.Context) error {
	return m.raw.SyncWithContext(ctx)
}

func msgTypeForMime(mimeType string) event.MessageType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return event.MsgImage
	case strings.HasPrefix(mimeType, "audio/"):
		return event.MsgAudio
	case strings.HasPrefix(mimeType, "video/"):
		return event.MsgVideo
	default:
		return event.MsgFile
	}
}
