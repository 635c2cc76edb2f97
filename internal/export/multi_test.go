package export

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySource fails for the chats listed in failChats and serves a
// small history for everyone else.
type flakySource struct {
	failChats map[int64]bool
}

func (s *flakySource) FetchMessages(_ context.Context, chat Chat, offsetID, limit int) ([]*Message, error) {
	if s.failChats[chat.ID] {
		return nil, errors.New("connection lost")
	}
	if offsetID != 0 {
		return nil, nil
	}
	return []*Message{
		{ID: 1, Date: time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), Sender: &Sender{FirstName: "A"}, Text: "hi"},
	}, nil
}

func batchOptions() Options {
	tpl := WhatsAppTemplate()
	tpl.IncludeHeader = false
	return Options{Filter: DefaultFilter(), Template: tpl}
}

func TestBatchExporter_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()

	src := &flakySource{failChats: map[int64]bool{2: true}}
	b := NewBatchExporter(newTestExporter(src, nil))

	chats := []Chat{
		{ID: 1, Title: "First Chat"},
		{ID: 2, Title: "Broken Chat"},
		{ID: 3, Title: "Third Chat"},
	}

	res, err := b.ExportAll(context.Background(), chats, batchOptions(), filepath.Join(dir, "{chat_name}.txt"))
	require.NoError(t, err)

	require.Len(t, res.Succeeded, 2)
	require.Len(t, res.Failed, 1)

	assert.Equal(t, int64(1), res.Succeeded[0].Chat.ID)
	assert.Equal(t, int64(3), res.Succeeded[1].Chat.ID)
	assert.Equal(t, int64(2), res.Failed[0].Chat.ID)

	var transportErr *TransportError
	assert.ErrorAs(t, res.Failed[0].Err, &transportErr)
}

func TestBatchExporter_NamingPattern(t *testing.T) {
	dir := t.TempDir()

	src := &flakySource{}
	b := NewBatchExporter(newTestExporter(src, nil))
	b.now = func() time.Time { return time.Date(2023, 6, 1, 21, 10, 0, 0, time.UTC) }

	chats := []Chat{{ID: 1, Title: "My Chat!"}}
	pattern := filepath.Join(dir, "{chat_name}_{date}_{time}.txt")

	res, err := b.ExportAll(context.Background(), chats, batchOptions(), pattern)
	require.NoError(t, err)
	require.Len(t, res.Succeeded, 1)

	assert.Equal(t, filepath.Join(dir, "My_Chat_2023-06-01_21-10.txt"), res.Succeeded[0].Path)
}

func TestBatchExporter_CancelledBetweenChats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &flakySource{}
	b := NewBatchExporter(newTestExporter(src, nil))

	res, err := b.ExportAll(ctx, []Chat{{ID: 1, Title: "Chat"}}, batchOptions(), "")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Empty(t, res.Succeeded)
}

func TestSanitizeChatName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Chat", "My_Chat"},
		{"weird/name\\here", "weirdnamehere"},
		{"émojis 🎉 and dots...", "mojis_and_dots"},
		{"under_score-dash", "under_score-dash"},
		{"   spaced   out   ", "spaced_out"},
		{"!!!", "chat"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeChatName(tt.in))
		})
	}
}
