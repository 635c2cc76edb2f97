package telegram

import (
	"time"

	"github.com/blockedby/chatexport/internal/export"
	"github.com/gotd/td/tg"
)

// entities indexes the users and chats attached to an api response so
// senders can be resolved by peer id.
type entities struct {
	users    map[int64]*tg.User
	chats    map[int64]*tg.Chat
	channels map[int64]*tg.Channel
}

func newEntities(users []tg.UserClass, chats []tg.ChatClass) *entities {
	e := &entities{
		users:    make(map[int64]*tg.User),
		chats:    make(map[int64]*tg.Chat),
		channels: make(map[int64]*tg.Channel),
	}
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			e.users[user.ID] = user
		}
	}
	for _, c := range chats {
		switch chat := c.(type) {
		case *tg.Chat:
			e.chats[chat.ID] = chat
		case *tg.Channel:
			e.channels[chat.ID] = chat
		}
	}
	return e
}

// chatForPeer builds a chat handle for a dialog peer.
func (e *entities) chatForPeer(peer tg.PeerClass, unread int) (export.Chat, bool) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		user, ok := e.users[p.UserID]
		if !ok {
			return export.Chat{}, false
		}
		title := user.FirstName
		if user.LastName != "" {
			title += " " + user.LastName
		}
		return export.Chat{
			ID:         user.ID,
			AccessHash: user.AccessHash,
			Title:      title,
			Kind:       export.ChatUser,
			Unread:     unread,
		}, true
	case *tg.PeerChat:
		chat, ok := e.chats[p.ChatID]
		if !ok {
			return export.Chat{}, false
		}
		return export.Chat{
			ID:     chat.ID,
			Title:  chat.Title,
			Kind:   export.ChatGroup,
			Unread: unread,
		}, true
	case *tg.PeerChannel:
		ch, ok := e.channels[p.ChannelID]
		if !ok {
			return export.Chat{}, false
		}
		return export.Chat{
			ID:         ch.ID,
			AccessHash: ch.AccessHash,
			Title:      ch.Title,
			Kind:       export.ChatChannel,
			Unread:     unread,
		}, true
	}
	return export.Chat{}, false
}

// sender resolves the sender of a message.
func (c *Client) sender(fromID tg.PeerClass, out bool, chat export.Chat, ent *entities) *export.Sender {
	selfID := c.SelfID()

	if fromID != nil {
		switch p := fromID.(type) {
		case *tg.PeerUser:
			if user, ok := ent.users[p.UserID]; ok {
				return &export.Sender{
					ID:        user.ID,
					FirstName: user.FirstName,
					LastName:  user.LastName,
					Self:      user.ID == selfID,
				}
			}
			return &export.Sender{ID: p.UserID, Self: p.UserID == selfID}
		case *tg.PeerChat:
			if grp, ok := ent.chats[p.ChatID]; ok {
				return &export.Sender{ID: grp.ID, Title: grp.Title}
			}
		case *tg.PeerChannel:
			if ch, ok := ent.channels[p.ChannelID]; ok {
				return &export.Sender{ID: ch.ID, Title: ch.Title}
			}
		}
		return nil
	}

	// no explicit sender: own outgoing message, or the peer user in a
	// one-to-one chat
	if out {
		if self := c.Self(); self != nil {
			return &export.Sender{
				ID:        self.ID,
				FirstName: self.FirstName,
				LastName:  self.LastName,
				Self:      true,
			}
		}
		return nil
	}
	if chat.Kind == export.ChatUser {
		if user, ok := ent.users[chat.ID]; ok {
			return &export.Sender{
				ID:        user.ID,
				FirstName: user.FirstName,
				LastName:  user.LastName,
			}
		}
	}
	return nil
}

// parseMessage converts one raw history entry to a pipeline record.
// Unknown variants are dropped.
func (c *Client) parseMessage(msg tg.MessageClass, chat export.Chat, ent *entities) *export.Message {
	switch m := msg.(type) {
	case *tg.Message:
		rec := &export.Message{
			ID:     m.ID,
			Date:   time.Unix(int64(m.Date), 0).UTC(),
			Text:   m.Message,
			Sender: c.sender(m.FromID, m.Out, chat, ent),
			Media:  parseMedia(m.Media),
		}
		if edit, ok := m.GetEditDate(); ok {
			rec.EditDate = time.Unix(int64(edit), 0).UTC()
		}
		if _, ok := m.GetFwdFrom(); ok {
			rec.Forwarded = true
		}
		if m.ReplyTo != nil {
			if header, ok := m.ReplyTo.(*tg.MessageReplyHeader); ok {
				rec.ReplyTo = header.ReplyToMsgID
			}
		}
		return rec
	case *tg.MessageService:
		return &export.Message{
			ID:     m.ID,
			Date:   time.Unix(int64(m.Date), 0).UTC(),
			Sender: c.sender(m.FromID, m.Out, chat, ent),
			Action: parseAction(m.Action),
		}
	}
	return nil
}

// parseMedia converts an attachment descriptor. Returns nil when the
// message carries no media.
func parseMedia(media tg.MessageMediaClass) *export.MediaInfo {
	if media == nil {
		return nil
	}

	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		info := &export.MediaInfo{Kind: export.MediaPhoto}
		if photoClass, ok := m.GetPhoto(); ok {
			if photo, ok := photoClass.(*tg.Photo); ok {
				info.PhotoID = photo.ID
				info.PhotoAccessHash = photo.AccessHash
				info.PhotoFileRef = photo.FileReference
				info.PhotoThumb = largestThumb(photo.Sizes)
			}
		}
		return info
	case *tg.MessageMediaDocument:
		info := &export.MediaInfo{Kind: export.MediaDocument}
		if docClass, ok := m.GetDocument(); ok {
			if doc, ok := docClass.(*tg.Document); ok {
				info.MIMEType = doc.MimeType
				info.Size = doc.Size
				info.DocID = doc.ID
				info.DocAccessHash = doc.AccessHash
				info.DocFileRef = doc.FileReference
				for _, attr := range doc.Attributes {
					switch a := attr.(type) {
					case *tg.DocumentAttributeFilename:
						info.FileName = a.FileName
					case *tg.DocumentAttributeSticker:
						info.Sticker = true
					}
				}
				info.Kind = export.ClassifyMedia(false, doc.MimeType)
			}
		}
		return info
	case *tg.MessageMediaWebPage:
		return &export.MediaInfo{Kind: export.MediaDocument, Webpage: true}
	default:
		// geo, contact, poll, dice and the rest classify as documents
		return &export.MediaInfo{Kind: export.MediaDocument}
	}
}

// largestThumb picks the largest photo size type for downloads.
func largestThumb(sizes []tg.PhotoSizeClass) string {
	best := ""
	bestArea := -1
	for _, s := range sizes {
		if size, ok := s.(*tg.PhotoSize); ok {
			area := size.W * size.H
			if area > bestArea {
				bestArea = area
				best = size.Type
			}
		}
	}
	return best
}

// parseAction maps a service action to the pipeline's action variants.
func parseAction(action tg.MessageActionClass) *export.ActionInfo {
	if action == nil {
		return nil
	}
	switch a := action.(type) {
	case *tg.MessageActionChatCreate:
		return &export.ActionInfo{Kind: export.ActionGroupCreated}
	case *tg.MessageActionChatAddUser:
		return &export.ActionInfo{Kind: export.ActionMemberAdded}
	case *tg.MessageActionChatDeleteUser:
		return &export.ActionInfo{Kind: export.ActionMemberRemoved}
	case *tg.MessageActionChatJoinedByLink:
		return &export.ActionInfo{Kind: export.ActionJoinedByLink}
	case *tg.MessageActionChatEditTitle:
		return &export.ActionInfo{Kind: export.ActionTitleChanged, NewTitle: a.Title}
	case *tg.MessageActionChatEditPhoto:
		return &export.ActionInfo{Kind: export.ActionPhotoChanged}
	case *tg.MessageActionChatDeletePhoto:
		return &export.ActionInfo{Kind: export.ActionPhotoRemoved}
	case *tg.MessageActionPinMessage:
		return &export.ActionInfo{Kind: export.ActionMessagePinned}
	default:
		return &export.ActionInfo{Kind: export.ActionOther, Raw: action.TypeName()}
	}
}
