package export

import (
	"fmt"
	"sort"
	"time"
)

// DefaultTopSenders is how many ranked senders a report includes.
const DefaultTopSenders = 5

// SenderCount is one entry of the sender ranking.
type SenderCount struct {
	Name  string
	Count int
}

// Stats are descriptive statistics over a finished, already filtered
// message collection.
type Stats struct {
	Total int

	TextOnly       int
	WithMedia      int
	ServiceActions int
	Edited         int

	MediaByKind map[MediaKind]int

	SenderCounts map[string]int
	TopSenders   []SenderCount

	EarliestDate time.Time
	LatestDate   time.Time
	SpanDays     int
	PerDay       float64
}

// Percent returns count as a percentage of the total, 0 for an empty
// collection.
func (s *Stats) Percent(count int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(count) * 100 / float64(s.Total)
}

// Aggregate computes statistics over the collection. An empty
// collection yields zero-valued statistics, not an error; callers
// normally skip the report in that case.
func Aggregate(msgs []*Message, topN int) *Stats {
	if topN <= 0 {
		topN = DefaultTopSenders
	}

	s := &Stats{
		MediaByKind:  make(map[MediaKind]int),
		SenderCounts: make(map[string]int),
	}

	var senderOrder []string

	for _, m := range msgs {
		s.Total++

		switch m.Content() {
		case ContentMedia:
			s.WithMedia++
			s.MediaByKind[m.Media.Kind]++
		case ContentText:
			s.TextOnly++
		case ContentAction:
			s.ServiceActions++
		}

		if m.Edited() {
			s.Edited++
		}

		name := m.Sender.Name()
		if _, seen := s.SenderCounts[name]; !seen {
			senderOrder = append(senderOrder, name)
		}
		s.SenderCounts[name]++

		if !m.Date.IsZero() {
			if s.EarliestDate.IsZero() || m.Date.Before(s.EarliestDate) {
				s.EarliestDate = m.Date
			}
			if m.Date.After(s.LatestDate) {
				s.LatestDate = m.Date
			}
		}
	}

	// rank senders by count descending; ties keep first-encountered order
	ranked := make([]SenderCount, 0, len(senderOrder))
	for _, name := range senderOrder {
		ranked = append(ranked, SenderCount{Name: name, Count: s.SenderCounts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	s.TopSenders = ranked

	if !s.EarliestDate.IsZero() {
		// span counts calendar dates, so 23:00 and 01:00 the next day
		// are a 2-day span
		s.SpanDays = int(calendarDate(s.LatestDate).Sub(calendarDate(s.EarliestDate)).Hours()/24) + 1
	}
	span := s.SpanDays
	if span < 1 {
		span = 1
	}
	s.PerDay = float64(s.Total) / float64(span)

	return s
}

// calendarDate truncates a timestamp to midnight of its UTC date.
func calendarDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Render lays the statistics out as plain text, one "label: value"
// pair per line, in a fixed field order.
func (s *Stats) Render() []string {
	lines := []string{
		fmt.Sprintf("Total messages: %d", s.Total),
		fmt.Sprintf("Text messages: %d (%.1f%%)", s.TextOnly, s.Percent(s.TextOnly)),
		fmt.Sprintf("Media messages: %d (%.1f%%)", s.WithMedia, s.Percent(s.WithMedia)),
		fmt.Sprintf("Service messages: %d (%.1f%%)", s.ServiceActions, s.Percent(s.ServiceActions)),
		fmt.Sprintf("Edited messages: %d (%.1f%%)", s.Edited, s.Percent(s.Edited)),
		fmt.Sprintf("Photos: %d", s.MediaByKind[MediaPhoto]),
		fmt.Sprintf("Videos: %d", s.MediaByKind[MediaVideo]),
		fmt.Sprintf("Documents: %d", s.MediaByKind[MediaDocument]),
		fmt.Sprintf("Audio: %d", s.MediaByKind[MediaAudio]),
	}

	for i, sc := range s.TopSenders {
		lines = append(lines, fmt.Sprintf("Top sender %d: %s (%d)", i+1, sc.Name, sc.Count))
	}

	if !s.EarliestDate.IsZero() {
		lines = append(lines,
			fmt.Sprintf("First message: %s", s.EarliestDate.Format("2006-01-02")),
			fmt.Sprintf("Last message: %s", s.LatestDate.Format("2006-01-02")),
			fmt.Sprintf("Messages per day: %.1f", s.PerDay),
		)
	}

	return lines
}
