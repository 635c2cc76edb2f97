// Package export implements the chat export pipeline: filtering,
// formatting, paginated fetching, media download, statistics and
// multi-chat orchestration.
package export

import (
	"strings"
	"time"
)

// ContentKind identifies the authoritative content of a message.
// Exactly one kind applies at format time, chosen by priority:
// media > text > action > empty.
type ContentKind int

const (
	ContentEmpty ContentKind = iota
	ContentText
	ContentMedia
	ContentAction
)

// MediaKind is the classification of an attachment.
type MediaKind int

const (
	MediaPhoto MediaKind = iota
	MediaVideo
	MediaVoice
	MediaAudio
	MediaDocument
)

func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	case MediaVoice:
		return "voice"
	case MediaAudio:
		return "audio"
	default:
		return "document"
	}
}

// MediaInfo describes a message attachment. The download reference
// fields are opaque to the pipeline; they are filled in by the client
// parse layer and consumed back by it when downloading bytes.
type MediaInfo struct {
	Kind     MediaKind
	MIMEType string
	FileName string // declared filename attribute, may be empty
	Size     int64

	// sticker is an independent flag on top of the document kind
	Sticker bool
	// webpage marks a link preview; it renders its text body when present
	Webpage bool

	// document download reference
	DocID         int64
	DocAccessHash int64
	DocFileRef    []byte

	// photo download reference
	PhotoID         int64
	PhotoAccessHash int64
	PhotoFileRef    []byte
	PhotoThumb      string
}

// ClassifyMedia maps a raw attachment to its category. Photos are a
// category of their own; everything else is classified by MIME type,
// with voice taking priority over generic audio and document as the
// catch-all so every attachment is classified exactly once.
func ClassifyMedia(isPhoto bool, mimeType string) MediaKind {
	switch {
	case isPhoto:
		return MediaPhoto
	case strings.HasPrefix(mimeType, "video/"):
		return MediaVideo
	case strings.HasSuffix(mimeType, "ogg"):
		return MediaVoice
	case strings.HasPrefix(mimeType, "audio/"):
		return MediaAudio
	default:
		return MediaDocument
	}
}

// ActionKind identifies a service (group-management) event.
type ActionKind int

const (
	ActionGroupCreated ActionKind = iota
	ActionMemberAdded
	ActionMemberRemoved
	ActionJoinedByLink
	ActionTitleChanged
	ActionPhotoChanged
	ActionPhotoRemoved
	ActionMessagePinned
	ActionOther
)

// ActionInfo describes a service event within a chat.
type ActionInfo struct {
	Kind     ActionKind
	NewTitle string // set for ActionTitleChanged
	Raw      string // source variant name, used for ActionOther
}

// Sender identifies who sent a message. A person sender carries
// first/last name, a group or channel sender carries a title.
type Sender struct {
	ID        int64
	FirstName string
	LastName  string
	Title     string
	Self      bool
}

// Name resolves the display name: first name (plus last name when
// present) for a person, title for a group or channel, "Unknown"
// otherwise.
func (s *Sender) Name() string {
	if s == nil {
		return "Unknown"
	}
	if s.FirstName != "" {
		if s.LastName != "" {
			return s.FirstName + " " + s.LastName
		}
		return s.FirstName
	}
	if s.Title != "" {
		return s.Title
	}
	return "Unknown"
}

// Message is one record fetched from the chat history source. Records
// are read-only to the pipeline and transient: they are discarded once
// formatting and statistics have consumed them.
type Message struct {
	ID        int
	Date      time.Time // zero value means the record has no timestamp
	EditDate  time.Time // zero value means never edited
	Sender    *Sender
	Text      string
	Media     *MediaInfo
	Action    *ActionInfo
	Forwarded bool
	ReplyTo   int // id of the replied-to message, 0 if none
}

// Content returns the authoritative content kind of the message.
func (m *Message) Content() ContentKind {
	switch {
	case m.Media != nil:
		return ContentMedia
	case m.Text != "":
		return ContentText
	case m.Action != nil:
		return ContentAction
	default:
		return ContentEmpty
	}
}

// Edited reports whether the message carries an edit timestamp.
func (m *Message) Edited() bool {
	return !m.EditDate.IsZero()
}

// ChatKind is the type of a conversation thread.
type ChatKind int

const (
	ChatUser ChatKind = iota
	ChatGroup
	ChatChannel
)

func (k ChatKind) String() string {
	switch k {
	case ChatUser:
		return "user"
	case ChatGroup:
		return "group"
	default:
		return "channel"
	}
}

// Chat is a handle to a conversation thread on the source service.
type Chat struct {
	ID         int64
	AccessHash int64
	Title      string
	Kind       ChatKind
	Unread     int
}
