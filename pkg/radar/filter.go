package radar

import (
	"sort"
	"strings"
	"time"
)

// InWindow reports whether an ISO date falls inside the criteria window,
// bounds inclusive. Malformed dates and malformed or inverted windows never
// match.
func InWindow(date string, criteria Criteria) bool {
	from, to, ok := criteria.Window()
	if !ok {
		return false
	}
	day, err := time.Parse(isoDate, date)
	if err != nil {
		return false
	}
	return !day.Before(from) && !day.After(to)
}

// MatchesKeywords reports whether the title contains at least one keyword,
// case-insensitively. An empty keyword list matches everything.
func MatchesKeywords(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// AcceptLocation applies the per-city location predicate: online events
// always pass, offline events with no resolvable location are dropped, and
// everything else must contain one of the city's accepted substrings. Used
// where a source's own city filter is unreliable.
func AcceptLocation(location string, online bool, accepted []string) bool {
	if online {
		return true
	}
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return false
	}
	for _, substr := range accepted {
		if substr != "" && strings.Contains(location, strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

// FilterWindowKeywords keeps only events inside the date window whose titles
// match the keywords. Applied by every deterministic adapter and re-applied
// to extraction output, which is not trusted to have honored the criteria.
func FilterWindowKeywords(events []Event, criteria Criteria) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if strings.TrimSpace(ev.Title) == "" {
			continue
		}
		if !InWindow(ev.Date, criteria) {
			continue
		}
		if !MatchesKeywords(ev.Title, criteria.Keywords) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// SortEvents orders events by date, then time, with untimed events last
// within the same date.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		ti, tj := events[i].Time, events[j].Time
		if (ti == "") != (tj == "") {
			return tj == ""
		}
		return ti < tj
	})
}
