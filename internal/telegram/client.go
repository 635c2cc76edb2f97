// Package telegram wraps the MTProto client and adapts raw Telegram
// objects to the export pipeline's record shape.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/blockedby/chatexport/internal/export"
	"github.com/blockedby/chatexport/internal/logger"
	"github.com/celestix/gotgproto"
	"github.com/gotd/td/tg"
)

// Client wraps a gotgproto client and provides the chat history
// operations the export pipeline consumes: dialog listing, paginated
// history fetch and media byte transfer.
type Client struct {
	proto       *gotgproto.Client
	rateLimiter *RateLimiter
	log         *logger.Logger
}

// NewClient creates a client wrapper. rps tunes the request rate
// limiter (1-2 is safe for interactive use).
func NewClient(proto *gotgproto.Client, rps float64) *Client {
	return &Client{
		proto:       proto,
		rateLimiter: NewRateLimiter(rps, 1),
		log:         logger.Get(),
	}
}

// Close stops the underlying client.
func (c *Client) Close() {
	if c.proto != nil {
		c.proto.Stop()
	}
}

// Self returns the authenticated user.
func (c *Client) Self() *tg.User {
	return c.proto.Self
}

// SelfID returns the authenticated user's id, 0 when unknown.
func (c *Client) SelfID() int64 {
	if c.proto.Self == nil {
		return 0
	}
	return c.proto.Self.ID
}

func (c *Client) api() *tg.Client {
	return c.proto.API()
}

// ListDialogs returns the user's chats with name, kind and unread
// count, most recent first.
func (c *Client) ListDialogs(ctx context.Context, limit int) ([]export.Chat, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug().Int("limit", limit).Msg("telegram: fetching dialogs")
	resp, err := c.api().MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      limit,
	})
	if err != nil {
		c.noteFloodWait(err)
		return nil, fmt.Errorf("get dialogs: %w", err)
	}

	var dialogs []tg.DialogClass
	var chats []tg.ChatClass
	var users []tg.UserClass

	switch d := resp.(type) {
	case *tg.MessagesDialogs:
		dialogs, chats, users = d.Dialogs, d.Chats, d.Users
	case *tg.MessagesDialogsSlice:
		dialogs, chats, users = d.Dialogs, d.Chats, d.Users
	default:
		return nil, fmt.Errorf("unexpected dialogs response %T", resp)
	}

	ent := newEntities(users, chats)

	var out []export.Chat
	for _, d := range dialogs {
		dialog, ok := d.(*tg.Dialog)
		if !ok {
			continue
		}
		if chat, ok := ent.chatForPeer(dialog.Peer, dialog.UnreadCount); ok {
			out = append(out, chat)
		}
	}

	return out, nil
}

// FetchMessages returns one page of chat history, newest first.
// offsetID 0 starts from the most recent message; otherwise the page
// starts strictly below offsetID.
func (c *Client) FetchMessages(ctx context.Context, chat export.Chat, offsetID, limit int) ([]*export.Message, error) {
	if limit > 100 {
		limit = 100 // api limit per history call
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug().
		Int64("chat_id", chat.ID).
		Int("offset_id", offsetID).
		Int("limit", limit).
		Msg("telegram: fetching history page")

	resp, err := c.api().MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     inputPeer(chat),
		OffsetID: offsetID,
		Limit:    limit,
	})
	if err != nil {
		c.noteFloodWait(err)
		return nil, fmt.Errorf("get history: %w", err)
	}

	var raw []tg.MessageClass
	var chats []tg.ChatClass
	var users []tg.UserClass

	switch h := resp.(type) {
	case *tg.MessagesMessages:
		raw, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesMessagesSlice:
		raw, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesChannelMessages:
		raw, chats, users = h.Messages, h.Chats, h.Users
	default:
		return nil, fmt.Errorf("unexpected history response %T", resp)
	}

	ent := newEntities(users, chats)

	var messages []*export.Message
	for _, msg := range raw {
		if m := c.parseMessage(msg, chat, ent); m != nil {
			messages = append(messages, m)
		}
	}

	return messages, nil
}

// inputPeer builds the request peer for a chat handle.
func inputPeer(chat export.Chat) tg.InputPeerClass {
	switch chat.Kind {
	case export.ChatUser:
		return &tg.InputPeerUser{UserID: chat.ID, AccessHash: chat.AccessHash}
	case export.ChatGroup:
		return &tg.InputPeerChat{ChatID: chat.ID}
	default:
		return &tg.InputPeerChannel{ChannelID: chat.ID, AccessHash: chat.AccessHash}
	}
}

// noteFloodWait inspects an api error for FLOOD_WAIT and feeds the
// wait into the rate limiter.
func (c *Client) noteFloodWait(err error) {
	if wait := parseFloodWait(err); wait > 0 {
		c.log.Warn().Int("wait_seconds", wait).Msg("telegram: FLOOD_WAIT, backing off")
		c.rateLimiter.SetFloodWait(wait)
	}
}

// parseFloodWait extracts the wait seconds from a FLOOD_WAIT error.
// Matching the error string avoids deep coupling to the protocol
// library's error types.
func parseFloodWait(err error) int {
	if err == nil {
		return 0
	}
	str := err.Error()
	if !strings.Contains(str, "FLOOD_WAIT_") {
		return 0
	}
	parts := strings.Split(str, "FLOOD_WAIT_")
	if len(parts) < 2 {
		return 0
	}
	var seconds int
	_, _ = fmt.Sscanf(strings.TrimSpace(parts[1]), "%d", &seconds)
	return seconds
}
