package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExporter(src MessageSource, media MediaSource) *Exporter {
	return NewExporter(src, media, 0, FetcherOptions{})
}

func headerlessOptions(path string) Options {
	tpl := WhatsAppTemplate()
	tpl.IncludeHeader = false
	return Options{
		Filter:     DefaultFilter(),
		Template:   tpl,
		OutputPath: path,
	}
}

func TestExporter_WritesChronologicalFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "export.txt")

	src := &fakeSource{messages: []*Message{
		{ID: 2, Date: time.Date(2023, 6, 2, 10, 0, 0, 0, time.UTC), Sender: johnDoe(), Text: "second"},
		{ID: 1, Date: time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), Sender: johnDoe(), Text: "first"},
	}}

	sum, err := newTestExporter(src, nil).Export(context.Background(), Chat{ID: 1, Title: "Test"}, headerlessOptions(out))
	require.NoError(t, err)

	assert.Equal(t, out, sum.OutputPath)
	assert.Equal(t, 2, sum.Exported)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}

func TestExporter_InvalidFilterFailsBeforeFetch(t *testing.T) {
	src := &fakeSource{messages: history(10)}
	opts := headerlessOptions(filepath.Join(t.TempDir(), "out.txt"))
	opts.Filter.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opts.Filter.End = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := newTestExporter(src, nil).Export(context.Background(), Chat{ID: 1}, opts)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, src.calls, "no network access on configuration error")
}

func TestExporter_EmptyOutputPathRejected(t *testing.T) {
	src := &fakeSource{messages: history(1)}
	opts := headerlessOptions("")

	_, err := newTestExporter(src, nil).Export(context.Background(), Chat{ID: 1}, opts)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestExporter_TransportErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "export.txt")

	src := &fakeSource{err: errors.New("auth expired")}
	_, err := newTestExporter(src, nil).Export(context.Background(), Chat{ID: 1}, headerlessOptions(out))

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no partial file on transport failure")
}

func TestExporter_StatsSiblingFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "export.txt")

	src := &fakeSource{messages: history(3)}
	opts := headerlessOptions(out)
	opts.WriteStats = true

	sum, err := newTestExporter(src, nil).Export(context.Background(), Chat{ID: 1, Title: "Test"}, opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "export_stats.txt"), sum.StatsPath)

	content, err := os.ReadFile(sum.StatsPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Total messages: 3")
}

func TestExporter_NoStatsForEmptyExport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "export.txt")

	src := &fakeSource{}
	opts := headerlessOptions(out)
	opts.WriteStats = true

	sum, err := newTestExporter(src, nil).Export(context.Background(), Chat{ID: 1}, opts)
	require.NoError(t, err)
	assert.Empty(t, sum.StatsPath, "stats report suppressed for an empty collection")
}

func TestExporter_MediaDownloadStage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "export.txt")

	msgs := history(3)
	msgs[0].Text = ""
	msgs[0].Media = &MediaInfo{Kind: MediaPhoto}

	src := &fakeSource{messages: msgs}
	opts := headerlessOptions(out)
	opts.DownloadMedia = true

	sum, err := newTestExporter(src, &fakeMediaSource{}).Export(context.Background(), Chat{ID: 1}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.MediaDownloaded)
	assert.Zero(t, sum.MediaFailed)

	entries, err := os.ReadDir(filepath.Join(dir, "export_media"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSiblingPath(t *testing.T) {
	assert.Equal(t, "/tmp/chat_stats.txt", siblingPath("/tmp/chat.txt", "_stats.txt"))
	assert.Equal(t, "chat_media", siblingPath("chat.txt", "_media"))
	assert.Equal(t, "noext_stats.txt", siblingPath("noext", "_stats.txt"))
}
