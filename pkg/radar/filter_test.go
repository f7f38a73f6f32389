package radar

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

func TestInWindowInclusiveBounds(t *testing.T) {
	criteria := Criteria{DateFrom: "2026-03-20", DateTo: "2026-03-22"}
	for date, want := range map[string]bool{
		"2026-03-19": false,
		"2026-03-20": true,
		"2026-03-21": true,
		"2026-03-22": true,
		"2026-03-23": false,
		"garbage":    false,
		"":           false,
	} {
		if got := InWindow(date, criteria); got != want {
			t.Errorf("InWindow(%q) = %v, want %v", date, got, want)
		}
	}
}

func TestInWindowInvalidWindowsMatchNothing(t *testing.T) {
	cases := []Criteria{
		{DateFrom: "2026-03-22", DateTo: "2026-03-20"}, // inverted
		{DateFrom: "not-a-date", DateTo: "2026-03-20"},
		{DateFrom: "2026-03-20", DateTo: ""},
		{},
	}
	for _, criteria := range cases {
		if InWindow("2026-03-21", criteria) {
			t.Errorf("window %+v should match nothing", criteria)
		}
	}
}

func TestFilterWindowKeywordsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 200; round++ {
		from := base.AddDate(0, 0, rng.Intn(20))
		to := from.AddDate(0, 0, rng.Intn(10))
		criteria := Criteria{
			City:     "paris",
			DateFrom: from.Format("2006-01-02"),
			DateTo:   to.Format("2006-01-02"),
			Keywords: []string{"tech", "music"},
		}

		var events []Event
		for i := 0; i < 30; i++ {
			title := "Quiet evening"
			if rng.Intn(2) == 0 {
				title = fmt.Sprintf("Tech meetup #%d", i)
			}
			events = append(events, Event{
				Title:  title,
				Date:   base.AddDate(0, 0, rng.Intn(40)).Format("2006-01-02"),
				URL:    "https://example.com",
				Source: SourceAPI,
			})
		}

		for _, ev := range FilterWindowKeywords(events, criteria) {
			if !InWindow(ev.Date, criteria) {
				t.Fatalf("event date %s escaped window [%s, %s]", ev.Date, criteria.DateFrom, criteria.DateTo)
			}
			if !MatchesKeywords(ev.Title, criteria.Keywords) {
				t.Fatalf("event title %q escaped keyword filter", ev.Title)
			}
		}
	}
}

func TestMatchesKeywords(t *testing.T) {
	if !MatchesKeywords("Anything", nil) {
		t.Error("empty keyword list must match everything")
	}
	if !MatchesKeywords("Paris TECH night", []string{"tech"}) {
		t.Error("keyword match must be case-insensitive")
	}
	if MatchesKeywords("Jazz evening", []string{"tech", "startup"}) {
		t.Error("unrelated title must not match")
	}
	if !MatchesKeywords("Jazz evening", []string{"rock", "jazz"}) {
		t.Error("keywords are OR-matched")
	}
}

func TestAcceptLocation(t *testing.T) {
	accepted := []string{"paris", "île-de-france"}
	if !AcceptLocation("", true, accepted) {
		t.Error("online events always pass, even without a location")
	}
	if AcceptLocation("", false, accepted) {
		t.Error("offline events without a location are dropped")
	}
	if !AcceptLocation("La Bellevilloise, Paris", false, accepted) {
		t.Error("city substring should match case-insensitively")
	}
	if !AcceptLocation("Saint-Denis, Île-de-France", false, accepted) {
		t.Error("administrative region should be accepted")
	}
	if AcceptLocation("Marseille, Provence", false, accepted) {
		t.Error("other cities must not match")
	}
}

func TestSortEventsDateThenTimeNullLast(t *testing.T) {
	events := []Event{
		{Title: "d", Date: "2026-03-21", Time: "09:00"},
		{Title: "a", Date: "2026-03-20", Time: ""},
		{Title: "b", Date: "2026-03-20", Time: "10:00"},
		{Title: "c", Date: "2026-03-20", Time: "18:30"},
	}
	SortEvents(events)

	got := make([]string, len(events))
	for i, ev := range events {
		got[i] = ev.Title
	}
	want := []string{"b", "c", "a", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sort order = %v, want %v", got, want)
		}
	}
}
