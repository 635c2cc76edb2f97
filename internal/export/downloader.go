package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blockedby/chatexport/internal/logger"
	"golang.org/x/sync/errgroup"
)

// MediaSource is the slice of the chat history client that transfers
// attachment bytes to disk.
type MediaSource interface {
	DownloadMedia(ctx context.Context, msg *Message, destPath string) error
}

// DownloadResult accounts for one batch of media downloads.
type DownloadResult struct {
	Paths  []string // files written, in no particular order
	Failed int      // downloads that errored and were skipped
}

// Downloader writes message attachments to a destination directory.
// Downloads within one batch run concurrently up to the parallelism
// bound; individual failures are logged and counted without aborting
// the batch.
type Downloader struct {
	src      MediaSource
	parallel int
	log      *logger.Logger
}

// NewDownloader creates a downloader over the given media source.
// parallel caps in-flight downloads; values below 1 fall back to one
// fetch page's worth.
func NewDownloader(src MediaSource, parallel int) *Downloader {
	if parallel < 1 {
		parallel = pageSize
	}
	return &Downloader{src: src, parallel: parallel, log: logger.Get()}
}

// DownloadAll downloads every attachment in the batch into destDir.
// Filenames prefer the attachment's declared name, falling back to the
// record id; a name already present in destDir is disambiguated as
// <base>_<record id><ext>. Collision checks run synchronously before
// each download is issued, so two records preferring the same name are
// both kept.
func (d *Downloader) DownloadAll(ctx context.Context, msgs []*Message, destDir string) (*DownloadResult, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, &FilesystemError{Path: destDir, Err: err}
	}

	res := &DownloadResult{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallel)
	claimed := make(map[string]bool)

	for _, m := range msgs {
		if m.Media == nil {
			continue
		}

		path := d.resolvePath(destDir, m, claimed)
		claimed[path] = true

		msg := m
		g.Go(func() error {
			if err := d.src.DownloadMedia(gctx, msg, path); err != nil {
				d.log.Warn().Err(err).Int("message_id", msg.ID).Str("path", path).Msg("media download failed")
				mu.Lock()
				res.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			res.Paths = append(res.Paths, path)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}

	d.log.Info().
		Int("downloaded", len(res.Paths)).
		Int("failed", res.Failed).
		Str("dir", destDir).
		Msg("media batch finished")

	return res, nil
}

// resolvePath picks the destination filename, applying the collision
// policy against both files on disk and names claimed earlier in this
// batch.
func (d *Downloader) resolvePath(destDir string, m *Message, claimed map[string]bool) string {
	name := m.Media.FileName
	if name == "" {
		name = strconv.Itoa(m.ID) + extensionFor(m.Media)
	}
	name = filepath.Base(name) // never escape the destination directory

	path := filepath.Join(destDir, name)
	if !claimed[path] && !fileExists(path) {
		return path
	}

	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	return filepath.Join(destDir, fmt.Sprintf("%s_%d%s", base, m.ID, ext))
}

// extensionFor guesses a file extension for id-named downloads.
func extensionFor(media *MediaInfo) string {
	switch media.Kind {
	case MediaPhoto:
		return ".jpg"
	case MediaVideo:
		return ".mp4"
	case MediaVoice:
		return ".ogg"
	case MediaAudio:
		return ".mp3"
	default:
		return ".bin"
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
