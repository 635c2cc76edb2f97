package export

import (
	"time"
)

// Filter decides which records survive an export. Date bounds are
// inclusive and compared in UTC; the six media toggles combine by
// logical AND with the record's detected category. A record with no
// media always passes the media toggles.
type Filter struct {
	Start time.Time // zero value means no lower bound
	End   time.Time // zero value means no upper bound

	IncludePhotos    bool
	IncludeVideos    bool
	IncludeDocuments bool
	IncludeAudio     bool
	IncludeVoice     bool
	IncludeStickers  bool
}

// DefaultFilter includes everything.
func DefaultFilter() Filter {
	return Filter{
		IncludePhotos:    true,
		IncludeVideos:    true,
		IncludeDocuments: true,
		IncludeAudio:     true,
		IncludeVoice:     true,
		IncludeStickers:  true,
	}
}

// Validate checks the date bounds and normalizes them to UTC. It is
// called once at configuration time; Matches assumes a validated
// filter.
func (f *Filter) Validate() error {
	if !f.Start.IsZero() {
		f.Start = f.Start.UTC()
	}
	if !f.End.IsZero() {
		f.End = f.End.UTC()
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.Start.After(f.End) {
		return &ConfigError{Field: "date range", Msg: "start date is after end date"}
	}
	return nil
}

// Matches reports whether the record survives the filter. Pure and
// total: no side effects, well-formed input never fails.
func (f Filter) Matches(m *Message) bool {
	if m.Date.IsZero() {
		return false
	}
	if !f.Start.IsZero() && m.Date.UTC().Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && m.Date.UTC().After(f.End) {
		return false
	}
	if m.Media != nil {
		switch m.Media.Kind {
		case MediaPhoto:
			if !f.IncludePhotos {
				return false
			}
		case MediaVideo:
			if !f.IncludeVideos {
				return false
			}
		case MediaVoice:
			if !f.IncludeVoice {
				return false
			}
		case MediaAudio:
			if !f.IncludeAudio {
				return false
			}
		default:
			if !f.IncludeDocuments {
				return false
			}
		}
		if m.Media.Sticker && !f.IncludeStickers {
			return false
		}
	}
	return true
}

// dateLayout is the calendar date format accepted from user input.
const dateLayout = "2006-01-02"

// ParseDateRange builds UTC date bounds from user-supplied calendar
// dates, either of which may be empty. The end bound is advanced to
// the start of the following day so that the whole end date is
// included.
func ParseDateRange(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		start, err = time.ParseInLocation(dateLayout, startStr, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, &ConfigError{Field: "start date", Msg: "expected YYYY-MM-DD"}
		}
	}
	if endStr != "" {
		end, err = time.ParseInLocation(dateLayout, endStr, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, &ConfigError{Field: "end date", Msg: "expected YYYY-MM-DD"}
		}
		end = end.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return time.Time{}, time.Time{}, &ConfigError{Field: "date range", Msg: "start date is after end date"}
	}
	return start, end, nil
}
