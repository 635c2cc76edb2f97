package export

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/blockedby/chatexport/internal/logger"
)

// DefaultNamingPattern names per-chat output files in a batch export.
const DefaultNamingPattern = "{chat_name}_{date}.txt"

// ChatResult is a successfully exported chat.
type ChatResult struct {
	Chat Chat
	Path string
}

// ChatFailure records a chat whose export failed.
type ChatFailure struct {
	Chat Chat
	Err  error
}

// BatchResult is the outcome of a multi-chat export: both lists are
// always populated, one chat's failure never halts the batch.
type BatchResult struct {
	Succeeded []ChatResult
	Failed    []ChatFailure
}

// BatchExporter drives single-chat exports across a list of selected
// chats, deriving per-chat output filenames from a naming pattern and
// isolating failures per chat.
type BatchExporter struct {
	exporter *Exporter
	now      func() time.Time
	log      *logger.Logger
}

// NewBatchExporter wraps a single-chat exporter.
func NewBatchExporter(exporter *Exporter) *BatchExporter {
	return &BatchExporter{
		exporter: exporter,
		now:      time.Now,
		log:      logger.Get(),
	}
}

// ExportAll exports every chat independently. Failed chats are
// recorded and skipped; the returned error is non-nil only when the
// context is cancelled, in which case the partial result is still
// returned and already-written files stay on disk.
func (b *BatchExporter) ExportAll(ctx context.Context, chats []Chat, opts Options, pattern string) (*BatchResult, error) {
	if pattern == "" {
		pattern = DefaultNamingPattern
	}

	res := &BatchResult{}

	for _, chat := range chats {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		chatOpts := opts
		chatOpts.OutputPath = b.outputPath(pattern, chat)

		sum, err := b.exporter.Export(ctx, chat, chatOpts)
		if err != nil {
			b.log.Error().Err(err).Str("chat", chat.Title).Msg("chat export failed")
			res.Failed = append(res.Failed, ChatFailure{Chat: chat, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, ChatResult{Chat: chat, Path: sum.OutputPath})
	}

	b.log.Info().
		Int("succeeded", len(res.Succeeded)).
		Int("failed", len(res.Failed)).
		Msg("batch export finished")

	return res, nil
}

// outputPath substitutes {chat_name}, {date} and {time} into the
// naming pattern.
func (b *BatchExporter) outputPath(pattern string, chat Chat) string {
	now := b.now()
	return strings.NewReplacer(
		"{chat_name}", SanitizeChatName(chat.Title),
		"{date}", now.Format("2006-01-02"),
		"{time}", now.Format("15-04"),
	).Replace(pattern)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9 _-]+`)

// SanitizeChatName strips a chat title down to filename-safe
// characters (alphanumerics, spaces, underscores, dashes) and
// collapses spaces to underscores.
func SanitizeChatName(name string) string {
	name = unsafeNameChars.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		name = "chat"
	}
	return name
}
