package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/blockedby/chatexport/internal/logger"
)

// Options configure one export invocation. Filter and Template are
// constructed once from user input and stay immutable for the run.
type Options struct {
	Limit    int // 0 selects the default export limit
	Filter   Filter
	Template Template

	OutputPath string

	// WriteStats writes a sibling <output-basename>_stats.txt report.
	WriteStats bool

	// DownloadMedia downloads surviving attachments into MediaDir
	// (default: <output-basename>_media next to the output file).
	DownloadMedia bool
	MediaDir      string
}

// Summary reports what a single-chat export produced.
type Summary struct {
	OutputPath string
	Considered int
	Exported   int

	StatsPath string

	MediaDownloaded int
	MediaFailed     int
}

// Exporter composes fetch, format and file write for one chat, with
// optional statistics and media download stages.
type Exporter struct {
	fetcher    *Fetcher
	downloader *Downloader
	selfID     int64
	log        *logger.Logger
}

// NewExporter wires the pipeline over a message source. media may be
// nil when the client cannot transfer bytes; DownloadMedia is then
// ignored. selfID is the current user's id, used by templates that
// distinguish own messages.
func NewExporter(src MessageSource, media MediaSource, selfID int64, opts FetcherOptions) *Exporter {
	e := &Exporter{
		fetcher: NewFetcher(src, opts),
		selfID:  selfID,
		log:     logger.Get(),
	}
	if media != nil {
		// download fan-out never exceeds one fetch page's worth
		e.downloader = NewDownloader(media, e.fetcher.opts.PageSize)
	}
	return e
}

// Export runs the pipeline for one chat. The output file is assembled
// fully in memory and written in one operation, so a filesystem error
// never leaves a half-written export behind.
func (e *Exporter) Export(ctx context.Context, chat Chat, opts Options) (*Summary, error) {
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}
	if opts.OutputPath == "" {
		return nil, &ConfigError{Field: "output path", Msg: "output path is empty"}
	}

	e.log.Info().
		Int64("chat_id", chat.ID).
		Str("chat", chat.Title).
		Str("template", opts.Template.Name).
		Int("limit", opts.Limit).
		Msg("starting export")

	msgs, err := e.fetcher.Fetch(ctx, chat, opts.Filter, opts.Limit)
	if err != nil {
		return nil, err
	}

	formatter := NewFormatter(opts.Template, e.selfID)
	result := formatter.FormatMessages(msgs, chat.Title)

	content := strings.Join(result.Lines, "\n")
	if err := os.WriteFile(opts.OutputPath, []byte(content), 0644); err != nil {
		return nil, &FilesystemError{Path: opts.OutputPath, Err: err}
	}

	sum := &Summary{
		OutputPath: opts.OutputPath,
		Considered: result.Considered,
		Exported:   result.Exported,
	}

	if opts.WriteStats && len(msgs) > 0 {
		stats := Aggregate(msgs, DefaultTopSenders)
		statsPath := siblingPath(opts.OutputPath, "_stats.txt")
		statsContent := strings.Join(stats.Render(), "\n")
		if err := os.WriteFile(statsPath, []byte(statsContent), 0644); err != nil {
			return nil, &FilesystemError{Path: statsPath, Err: err}
		}
		sum.StatsPath = statsPath
	}

	if opts.DownloadMedia && e.downloader != nil {
		withMedia := make([]*Message, 0)
		for _, m := range msgs {
			if m.Media != nil && !m.Media.Webpage {
				withMedia = append(withMedia, m)
			}
		}
		if len(withMedia) > 0 {
			dir := opts.MediaDir
			if dir == "" {
				dir = siblingPath(opts.OutputPath, "_media")
			}
			dl, err := e.downloader.DownloadAll(ctx, withMedia, dir)
			if err != nil {
				return nil, err
			}
			sum.MediaDownloaded = len(dl.Paths)
			sum.MediaFailed = dl.Failed
		}
	}

	e.log.Info().
		Str("path", sum.OutputPath).
		Int("considered", sum.Considered).
		Int("exported", sum.Exported).
		Msg("export completed")

	return sum, nil
}

// siblingPath derives a path next to the output file by replacing its
// extension with the given suffix.
func siblingPath(outputPath, suffix string) string {
	ext := filepath.Ext(outputPath)
	return outputPath[:len(outputPath)-len(ext)] + suffix
}
