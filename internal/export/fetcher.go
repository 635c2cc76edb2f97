package export

import (
	"context"

	"github.com/blockedby/chatexport/internal/logger"
)

// MessageSource is the slice of the chat history client the fetcher
// needs: one page of records, newest first, ids monotonically
// decreasing within a chat. offsetID 0 means "most recent".
type MessageSource interface {
	FetchMessages(ctx context.Context, chat Chat, offsetID, limit int) ([]*Message, error)
}

// FetchState is the state of the pagination loop. The loop runs in
// StateFetching and stops in exactly one of the terminal states, which
// keeps the three termination conditions independently testable.
type FetchState int

const (
	StateFetching FetchState = iota
	StateLimitReached
	StateExhausted
	StateSafetyStopped
)

const (
	// pageSize is the fixed page size for history requests, matching
	// the source API's per-call maximum.
	pageSize = 100

	// DefaultExportLimit replaces a zero ("no limit") request so a
	// single export stays bounded in time.
	DefaultExportLimit = 5000

	// DefaultSafetyMultiplier bounds total examined records at
	// limit * multiplier, protecting against pathological rejection
	// rates on an effectively unbounded chat.
	DefaultSafetyMultiplier = 2
)

// FetcherOptions tune the pagination loop.
type FetcherOptions struct {
	PageSize         int
	DefaultLimit     int
	SafetyMultiplier int
}

func (o *FetcherOptions) applyDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = pageSize
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultExportLimit
	}
	if o.SafetyMultiplier <= 0 {
		o.SafetyMultiplier = DefaultSafetyMultiplier
	}
}

// Fetcher retrieves records in bounded pages, applying the filter
// incrementally and stopping once the export limit is satisfied.
type Fetcher struct {
	src  MessageSource
	opts FetcherOptions
	log  *logger.Logger
}

// NewFetcher creates a fetcher over the given source.
func NewFetcher(src MessageSource, opts FetcherOptions) *Fetcher {
	opts.applyDefaults()
	return &Fetcher{src: src, opts: opts, log: logger.Get()}
}

// cursor tracks progress through the descending-id history.
type cursor struct {
	offsetID int // lowest message id seen so far, 0 = most recent
	examined int
	retained int
	state    FetchState
}

// Fetch returns up to limit records surviving the filter, newest
// first. limit 0 selects the default export limit. A transport error
// discards everything accumulated so far: an export is all-or-nothing
// with respect to transport failures.
func (f *Fetcher) Fetch(ctx context.Context, chat Chat, filter Filter, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = f.opts.DefaultLimit
	}
	maxExamined := limit * f.opts.SafetyMultiplier

	var out []*Message
	cur := cursor{state: StateFetching}

	for cur.state == StateFetching {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.src.FetchMessages(ctx, chat, cur.offsetID, f.opts.PageSize)
		if err != nil {
			return nil, &TransportError{Op: "fetch messages", Err: err}
		}

		if len(page) == 0 {
			cur.state = StateExhausted
			break
		}

		cur.examined += len(page)
		for _, m := range page {
			if filter.Matches(m) {
				out = append(out, m)
			}
		}

		// advance past the oldest record of the page regardless of how
		// many survived, so progress is made through filtered-out runs
		cur.offsetID = page[len(page)-1].ID

		switch {
		case len(out) >= limit:
			cur.state = StateLimitReached
		case cur.examined > maxExamined:
			cur.state = StateSafetyStopped
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	cur.retained = len(out)

	f.log.Debug().
		Int64("chat_id", chat.ID).
		Int("examined", cur.examined).
		Int("retained", cur.retained).
		Str("stop", f.stateName(cur.state)).
		Msg("fetch completed")

	return out, nil
}

func (f *Fetcher) stateName(s FetchState) string {
	switch s {
	case StateLimitReached:
		return "limit_reached"
	case StateExhausted:
		return "exhausted"
	case StateSafetyStopped:
		return "safety_stopped"
	default:
		return "fetching"
	}
}
