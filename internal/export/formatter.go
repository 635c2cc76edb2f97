package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/blockedby/chatexport/internal/logger"
)

// Result is the outcome of formatting one chat: the ordered output
// lines (header first when the template asks for one, then one line
// per surviving message, oldest first) plus counters.
type Result struct {
	Lines      []string
	Considered int // records handed to the formatter
	Exported   int // records that produced a line
}

// Formatter renders messages as text lines according to a template.
type Formatter struct {
	tpl    Template
	selfID int64 // current user id, for templates that mark own messages
	now    func() time.Time
	log    *logger.Logger
}

// NewFormatter creates a formatter for one export invocation. The
// template is copied and stays fixed for the formatter's lifetime.
func NewFormatter(tpl Template, selfID int64) *Formatter {
	return &Formatter{
		tpl:    tpl,
		selfID: selfID,
		now:    time.Now,
		log:    logger.Get(),
	}
}

// FormatMessage renders a single message. The second return value is
// false for a truly empty record (no text, no media, no action), which
// the caller must skip.
//
// Content resolution is best effort: a malformed record renders with
// the template's error placeholder instead of aborting the export.
func (f *Formatter) FormatMessage(m *Message) (string, bool) {
	if m == nil || m.Content() == ContentEmpty {
		return "", false
	}

	content, failed := f.resolveContent(m)

	editedSuffix := ""
	if m.Edited() && !failed {
		editedSuffix = f.tpl.EditedSuffix
	}

	line := strings.NewReplacer(
		"{date_str}", m.Date.Format(f.tpl.DateFormat),
		"{sender_name}", m.Sender.Name(),
		"{content}", content,
		"{edited_suffix}", editedSuffix,
	).Replace(f.tpl.MessageFormat)

	return line, true
}

// resolveContent picks the content string by priority: media > text >
// action > unknown placeholder. Any panic while resolving a malformed
// record is swallowed and replaced with the error placeholder.
func (f *Formatter) resolveContent(m *Message) (content string, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Warn().Int("message_id", m.ID).Interface("panic", r).Msg("formatter: content resolution failed")
			content = f.tpl.ErrorPlaceholder
			failed = true
		}
	}()

	switch m.Content() {
	case ContentMedia:
		// a link preview with a text body renders the text verbatim
		if m.Media.Webpage && m.Text != "" {
			return m.Text, false
		}
		return f.tpl.MediaPlaceholder, false
	case ContentText:
		return m.Text, false
	case ContentAction:
		return actionPhrase(m.Action), false
	default:
		return f.tpl.UnknownPlaceholder, false
	}
}

// actionPhrase renders a service event as a human-readable phrase.
func actionPhrase(a *ActionInfo) string {
	switch a.Kind {
	case ActionGroupCreated:
		return "created this group"
	case ActionMemberAdded:
		return "added a participant to the group"
	case ActionMemberRemoved:
		return "removed a participant from the group"
	case ActionJoinedByLink:
		return "joined the group by link"
	case ActionTitleChanged:
		return fmt.Sprintf("changed the group name to %s", a.NewTitle)
	case ActionPhotoChanged:
		return "changed the group photo"
	case ActionPhotoRemoved:
		return "removed the group photo"
	case ActionMessagePinned:
		return "pinned a message"
	default:
		return fmt.Sprintf("performed action: %s", a.Raw)
	}
}

// FormatHeader renders the chat header using the current wall-clock
// time.
func (f *Formatter) FormatHeader(chatTitle string) string {
	return strings.NewReplacer(
		"{date_str}", f.now().Format(f.tpl.DateFormat),
		"{chat_title}", chatTitle,
	).Replace(f.tpl.HeaderFormat)
}

// FormatMessages renders a fetched batch. Records arrive newest first
// from the source and are emitted oldest first, because the output
// convention is chronological top to bottom. One bad record never
// stops the rest.
func (f *Formatter) FormatMessages(msgs []*Message, chatTitle string) *Result {
	res := &Result{Considered: len(msgs)}

	if f.tpl.IncludeHeader {
		res.Lines = append(res.Lines, f.FormatHeader(chatTitle))
	}

	for i := len(msgs) - 1; i >= 0; i-- {
		line, ok := f.FormatMessage(msgs[i])
		if !ok {
			continue
		}
		res.Lines = append(res.Lines, line)
		res.Exported++
	}

	return res
}
