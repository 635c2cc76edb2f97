package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMediaSource writes a marker file for every download, failing for
// ids listed in failIDs.
type fakeMediaSource struct {
	failIDs map[int]bool
}

func (s *fakeMediaSource) DownloadMedia(_ context.Context, msg *Message, destPath string) error {
	if s.failIDs[msg.ID] {
		return errors.New("file reference expired")
	}
	return os.WriteFile(destPath, []byte("media"), 0644)
}

func mediaBatch(ids ...int) []*Message {
	msgs := make([]*Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, &Message{
			ID:    id,
			Date:  time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			Media: &MediaInfo{Kind: MediaPhoto},
		})
	}
	return msgs
}

func TestDownloader_DownloadsBatch(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&fakeMediaSource{}, 0)

	res, err := d.DownloadAll(context.Background(), mediaBatch(1, 2, 3), dir)
	require.NoError(t, err)

	assert.Len(t, res.Paths, 3)
	assert.Zero(t, res.Failed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestDownloader_PrefersDeclaredFilename(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&fakeMediaSource{}, 0)

	msgs := mediaBatch(7)
	msgs[0].Media.Kind = MediaDocument
	msgs[0].Media.FileName = "report.pdf"

	res, err := d.DownloadAll(context.Background(), msgs, dir)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), res.Paths[0])
}

func TestDownloader_FallsBackToRecordID(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&fakeMediaSource{}, 0)

	res, err := d.DownloadAll(context.Background(), mediaBatch(123), dir)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, filepath.Join(dir, "123.jpg"), res.Paths[0])
}

func TestDownloader_CollisionOnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("old"), 0644))

	d := NewDownloader(&fakeMediaSource{}, 0)
	msgs := mediaBatch(55)
	msgs[0].Media.FileName = "report.pdf"

	res, err := d.DownloadAll(context.Background(), msgs, dir)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, filepath.Join(dir, "report_55.pdf"), res.Paths[0])
}

func TestDownloader_CollisionWithinBatch(t *testing.T) {
	// two records preferring the same name are both kept, each
	// disambiguated by its own record id
	dir := t.TempDir()
	d := NewDownloader(&fakeMediaSource{}, 0)

	msgs := mediaBatch(10, 11)
	msgs[0].Media.FileName = "photo.jpg"
	msgs[1].Media.FileName = "photo.jpg"

	res, err := d.DownloadAll(context.Background(), msgs, dir)
	require.NoError(t, err)
	require.Len(t, res.Paths, 2)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "photo.jpg"),
		filepath.Join(dir, "photo_11.jpg"),
	}, res.Paths)
}

func TestDownloader_FailuresCountedNotFatal(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&fakeMediaSource{failIDs: map[int]bool{2: true}}, 0)

	res, err := d.DownloadAll(context.Background(), mediaBatch(1, 2, 3), dir)
	require.NoError(t, err)

	assert.Len(t, res.Paths, 2)
	assert.Equal(t, 1, res.Failed)
}

func TestDownloader_SkipsRecordsWithoutMedia(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&fakeMediaSource{}, 0)

	msgs := mediaBatch(1)
	msgs = append(msgs, &Message{ID: 2, Text: "no media"})

	res, err := d.DownloadAll(context.Background(), msgs, dir)
	require.NoError(t, err)
	assert.Len(t, res.Paths, 1)
}

// countingMediaSource tracks how many downloads are in flight at once.
type countingMediaSource struct {
	mu      sync.Mutex
	current int
	peak    int
}

func (s *countingMediaSource) DownloadMedia(_ context.Context, msg *Message, destPath string) error {
	s.mu.Lock()
	s.current++
	if s.current > s.peak {
		s.peak = s.current
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	s.current--
	s.mu.Unlock()

	return os.WriteFile(destPath, []byte("media"), 0644)
}

func TestDownloader_BoundsConcurrency(t *testing.T) {
	dir := t.TempDir()
	src := &countingMediaSource{}
	d := NewDownloader(src, 8)

	ids := make([]int, 200)
	for i := range ids {
		ids[i] = i + 1
	}

	res, err := d.DownloadAll(context.Background(), mediaBatch(ids...), dir)
	require.NoError(t, err)
	assert.Len(t, res.Paths, 200)

	assert.LessOrEqual(t, src.peak, 8, "in-flight downloads exceeded the parallelism bound")
}

func TestNewDownloader_DefaultBoundIsPageSize(t *testing.T) {
	d := NewDownloader(&fakeMediaSource{}, 0)
	assert.Equal(t, pageSize, d.parallel)
}
