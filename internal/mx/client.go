package mx

import (
	"context"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Client is the messaging surface the dispatch core, relay, and plugins
// consume. Implementations must be safe for concurrent use; every call
// may block on network I/O.
type Client interface {
	// UserID returns the bot's own user ID.
	UserID() id.UserID
	// SendText sends a plain text message to a room.
	SendText(ctx context.Context, room id.RoomID, text string) error
	// SendContent sends a pre-built message content unchanged, used to
	// forward an original event when re-uploading is off or failed.
	SendContent(ctx context.Context, room id.RoomID, content *event.MessageEventContent) error
	// SendAttachment uploads data and sends it as a new attachment.
	SendAttachment(ctx context.Context, room id.RoomID, filename, mimeType string, data []byte) error
	// ResolveAlias resolves a "#alias:server" string to its room ID.
	ResolveAlias(ctx context.Context, alias string) (id.RoomID, error)
	// MemberDisplayName returns the user's display name in a room. An
	// empty string with nil error means the member has no display name.
	MemberDisplayName(ctx context.Context, room id.RoomID, user id.UserID) (string, error)
	// DownloadMedia fetches the raw bytes referenced by a media message.
	DownloadMedia(ctx context.Context, content *event.MessageEventContent) ([]byte, error)
	// JoinedRooms lists the rooms the bot is currently joined to.
	JoinedRooms(ctx context.Context) ([]id.RoomID, error)
}
