package radar

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentlabs/radar/pkg/metrics"
	"github.com/momentlabs/radar/pkg/shared/httputil"
)

type apiProvider struct {
	cfg    APIConfig
	cities *Cities
	log    zerolog.Logger
}

func newAPIProvider(cfg *Config, cities *Cities, log zerolog.Logger) Provider {
	if cfg == nil || !isEnabled(cfg.API.Enabled, true) {
		return nil
	}
	return &apiProvider{
		cfg:    cfg.API,
		cities: cities,
		log:    log.With().Str("source", string(SourceAPI)).Logger(),
	}
}

func (p *apiProvider) Name() Source {
	return SourceAPI
}

func (p *apiProvider) Search(ctx context.Context, criteria Criteria) []Event {
	city, ok := p.cities.Lookup(criteria.City)
	if !ok || p.cfg.BaseURL == "" {
		return nil
	}
	if _, _, ok := criteria.Window(); !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSecs)*time.Second)
	defer cancel()

	searchURL, err := url.Parse(p.cfg.BaseURL + "/events")
	if err != nil {
		p.log.Warn().Err(err).Msg("Bad API base URL")
		return nil
	}
	query := searchURL.Query()
	query.Set("city", city.APICity)
	query.Set("from", criteria.DateFrom)
	query.Set("to", criteria.DateTo)
	if p.cfg.APIKey != "" {
		query.Set("key", p.cfg.APIKey)
	}
	searchURL.RawQuery = query.Encode()

	start := time.Now()
	data, _, err := httputil.GetJSON(ctx, searchURL.String(), map[string]string{
		"Accept": "application/json",
	}, p.cfg.TimeoutSecs)
	metrics.SourceDuration.WithLabelValues(string(SourceAPI)).Observe(time.Since(start).Seconds())
	if err != nil {
		p.log.Warn().Err(err).Msg("API source request failed")
		return nil
	}

	var resp struct {
		Events []struct {
			Title       string `json:"title"`
			BeginsAt    string `json:"begins_at"`
			URL         string `json:"url"`
			Online      bool   `json:"online"`
			Description string `json:"description"`
			Venue       struct {
				Name   string `json:"name"`
				City   string `json:"city"`
				Region string `json:"region"`
			} `json:"venue"`
		} `json:"events"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		p.log.Warn().Err(err).Msg("API source returned unparseable JSON")
		return nil
	}

	events := make([]Event, 0, len(resp.Events))
	for _, entry := range resp.Events {
		date, clock := splitDateTime(entry.BeginsAt)
		if date == "" {
			continue
		}
		location := joinLocation(entry.Venue.Name, entry.Venue.City, entry.Venue.Region)
		// The upstream city parameter is advisory only, so every event goes
		// through the acceptability predicate.
		if !AcceptLocation(location, entry.Online, city.Accepted) {
			continue
		}
		events = append(events, Event{
			Title:       strings.TrimSpace(entry.Title),
			Date:        date,
			Time:        clock,
			Location:    location,
			URL:         entry.URL,
			Source:      SourceAPI,
			Description: strings.TrimSpace(entry.Description),
		})
	}
	return FilterWindowKeywords(events, criteria)
}

// splitDateTime splits an upstream timestamp into an ISO date and an HH:MM
// clock. Date-only inputs yield an empty clock.
func splitDateTime(value string) (date, clock string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(isoDate), t.Format("15:04")
		}
	}
	if t, err := time.Parse(isoDate, value); err == nil {
		return t.Format(isoDate), ""
	}
	return "", ""
}

func joinLocation(parts ...string) string {
	var out []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ", ")
}
