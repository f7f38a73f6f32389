package radar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

const apiFixture = `{
	"events": [
		{
			"title": "Tech meetup: Go in production",
			"begins_at": "2026-03-20T19:00:00Z",
			"url": "https://events.example/go-prod",
			"venue": {"name": "La Bellevilloise", "city": "Paris", "region": "Île-de-France"}
		},
		{
			"title": "Tech conference outside the window",
			"begins_at": "2026-04-02T09:00:00Z",
			"url": "https://events.example/late",
			"venue": {"city": "Paris"}
		},
		{
			"title": "Tech drinks in the wrong city",
			"begins_at": "2026-03-20T18:00:00Z",
			"url": "https://events.example/lille",
			"venue": {"city": "Lille", "region": "Hauts-de-France"}
		},
		{
			"title": "Tech webinar",
			"begins_at": "2026-03-20T12:00:00Z",
			"url": "https://events.example/webinar",
			"online": true
		},
		{
			"title": "Cooking class",
			"begins_at": "2026-03-20T14:00:00Z",
			"url": "https://events.example/cooking",
			"venue": {"city": "Paris"}
		}
	]
}`

func newTestAPIProvider(t *testing.T, handler http.HandlerFunc) (*apiProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &apiProvider{
		cfg:    APIConfig{BaseURL: server.URL, TimeoutSecs: 2},
		cities: NewCities(zerolog.Nop()),
		log:    zerolog.Nop(),
	}, server
}

func TestAPIProviderFiltersDateLocationKeywords(t *testing.T) {
	provider, _ := newTestAPIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("city"); got != "paris" {
			t.Errorf("expected city=paris, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(apiFixture))
	})

	events := provider.Search(context.Background(), Criteria{
		City:     "paris",
		DateFrom: "2026-03-20",
		DateTo:   "2026-03-20",
		Keywords: []string{"tech"},
	})

	if len(events) != 2 {
		t.Fatalf("expected 2 events (venue match + online), got %d: %+v", len(events), events)
	}
	for _, ev := range events {
		if ev.Source != SourceAPI {
			t.Errorf("event source = %s, want %s", ev.Source, SourceAPI)
		}
		if ev.Date != "2026-03-20" {
			t.Errorf("event date %s escaped the window", ev.Date)
		}
	}
	if events[0].Time != "12:00" && events[0].Time != "19:00" {
		t.Errorf("expected HH:MM time, got %q", events[0].Time)
	}
}

func TestAPIProviderAbsorbsFailures(t *testing.T) {
	criteria := Criteria{City: "paris", DateFrom: "2026-03-20", DateTo: "2026-03-20"}

	provider, _ := newTestAPIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if events := provider.Search(context.Background(), criteria); events != nil {
		t.Errorf("non-2xx must yield an empty result, got %+v", events)
	}

	provider, _ = newTestAPIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json"))
	})
	if events := provider.Search(context.Background(), criteria); events != nil {
		t.Errorf("parse failure must yield an empty result, got %+v", events)
	}
}

func TestAPIProviderUnknownCityAndBadWindow(t *testing.T) {
	called := false
	provider, _ := newTestAPIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		_, _ = w.Write([]byte(apiFixture))
	})

	if events := provider.Search(context.Background(), Criteria{City: "atlantis", DateFrom: "2026-03-20", DateTo: "2026-03-20"}); events != nil {
		t.Errorf("unknown city must match nothing, got %+v", events)
	}
	if events := provider.Search(context.Background(), Criteria{City: "paris", DateFrom: "2026-03-22", DateTo: "2026-03-20"}); events != nil {
		t.Errorf("inverted window must match nothing, got %+v", events)
	}
	if called {
		t.Error("no upstream call should be made for an unknown city or invalid window")
	}
}

func TestSplitDateTime(t *testing.T) {
	for input, want := range map[string][2]string{
		"2026-03-20T19:30:00Z":      {"2026-03-20", "19:30"},
		"2026-03-20T19:30:00+02:00": {"2026-03-20", "19:30"},
		"2026-03-20":                {"2026-03-20", ""},
		"whenever":                  {"", ""},
		"":                          {"", ""},
	} {
		date, clock := splitDateTime(input)
		if date != want[0] || clock != want[1] {
			t.Errorf("splitDateTime(%q) = (%q, %q), want (%q, %q)", input, date, clock, want[0], want[1])
		}
	}
}
