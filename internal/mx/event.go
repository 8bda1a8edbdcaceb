// Package mx wraps the Matrix client library behind the narrow surface
// the bot core consumes: sending, alias resolution, member lookup, media
// transfer, and an inbound message stream. Transport, encryption, and
// session handling live entirely in the underlying library.
package mx

import (
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Kind classifies message content for dispatch and relay.
type Kind int

const (
	KindText Kind = iota
	KindNotice
	KindEmote
	KindImage
	KindFile
	KindAudio
	KindVideo
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNotice:
		return "notice"
	case KindEmote:
		return "emote"
	case KindImage:
		return "image"
	case KindFile:
		return "file"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	default:
		return "other"
	}
}

// IsMedia reports whether the kind carries downloadable bytes.
func (k Kind) IsMedia() bool {
	switch k {
	case KindImage, KindFile, KindAudio, KindVideo:
		return true
	}
	return false
}

// Message is one inbound room message event.
type Message struct {
	Room    id.RoomID
	Sender  id.UserID
	EventID id.EventID
	Content *event.MessageEventContent
}

// KindOf maps wire-level message types onto Kind.
func KindOf(content *event.MessageEventContent) Kind {
	if content == nil {
		return KindOther
	}
	switch content.MsgType {
	case event.MsgText:
		return KindText
	case event.MsgNotice:
		return KindNotice
	case event.MsgEmote:
		return KindEmote
	case event.MsgImage:
		return KindImage
	case event.MsgFile:
		return KindFile
	case event.MsgAudio:
		return KindAudio
	case event.MsgVideo:
		return KindVideo
	default:
		return KindOther
	}
}

// Kind returns the message's content classification.
func (m *Message) Kind() Kind {
	return KindOf(m.Content)
}

// Body returns the plain body for plain-text-like messages (text and
// notice). Emotes and media report false; emote bodies are only relevant
// to relay formatting, which reads Content directly.
func (m *Message) Body() (string, bool) {
	switch m.Kind() {
	case KindText, KindNotice:
		return m.Content.Body, true
	}
	return "", false
}
