package radar

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentlabs/radar/pkg/metrics"
	"github.com/momentlabs/radar/pkg/shared/httputil"
)

type graphqlProvider struct {
	cfg    GraphQLConfig
	cities *Cities
	log    zerolog.Logger
}

func newGraphQLProvider(cfg *Config, cities *Cities, log zerolog.Logger) Provider {
	if cfg == nil || !isEnabled(cfg.GraphQL.Enabled, true) {
		return nil
	}
	return &graphqlProvider{
		cfg:    cfg.GraphQL,
		cities: cities,
		log:    log.With().Str("source", string(SourceGraphQL)).Logger(),
	}
}

func (p *graphqlProvider) Name() Source {
	return SourceGraphQL
}

const eventSearchQuery = `query EventSearch($place: String!, $beginsOn: DateTime!, $endsOn: DateTime!) {
  searchEvents(location: $place, beginsOn: $beginsOn, endsOn: $endsOn, limit: 50) {
    elements {
      title
      beginsOn
      url
      options { isOnline }
      physicalAddress { description locality region }
    }
  }
}`

func (p *graphqlProvider) Search(ctx context.Context, criteria Criteria) []Event {
	city, ok := p.cities.Lookup(criteria.City)
	if !ok || p.cfg.Endpoint == "" {
		return nil
	}
	from, to, ok := criteria.Window()
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSecs)*time.Second)
	defer cancel()

	payload := map[string]any{
		"query": eventSearchQuery,
		"variables": map[string]any{
			"place":    city.GraphQLPlace,
			"beginsOn": from.Format(time.RFC3339),
			// The window is date-inclusive, so the upper bound is end of day.
			"endsOn": to.Add(24*time.Hour - time.Second).Format(time.RFC3339),
		},
	}

	start := time.Now()
	data, _, err := httputil.PostJSON(ctx, p.cfg.Endpoint, map[string]string{
		"Accept": "application/json",
	}, payload, p.cfg.TimeoutSecs)
	metrics.SourceDuration.WithLabelValues(string(SourceGraphQL)).Observe(time.Since(start).Seconds())
	if err != nil {
		p.log.Warn().Err(err).Msg("GraphQL source request failed")
		return nil
	}

	var resp struct {
		Data struct {
			SearchEvents struct {
				Elements []struct {
					Title    string `json:"title"`
					BeginsOn string `json:"beginsOn"`
					URL      string `json:"url"`
					Options  struct {
						IsOnline bool `json:"isOnline"`
					} `json:"options"`
					PhysicalAddress struct {
						Description string `json:"description"`
						Locality    string `json:"locality"`
						Region      string `json:"region"`
					} `json:"physicalAddress"`
				} `json:"elements"`
			} `json:"searchEvents"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		p.log.Warn().Err(err).Msg("GraphQL source returned unparseable JSON")
		return nil
	}
	if len(resp.Errors) > 0 {
		p.log.Warn().Str("error", resp.Errors[0].Message).Msg("GraphQL source returned errors")
		return nil
	}

	events := make([]Event, 0, len(resp.Data.SearchEvents.Elements))
	for _, entry := range resp.Data.SearchEvents.Elements {
		date, clock := splitDateTime(entry.BeginsOn)
		if date == "" {
			continue
		}
		location := joinLocation(entry.PhysicalAddress.Description, entry.PhysicalAddress.Locality, entry.PhysicalAddress.Region)
		if !AcceptLocation(location, entry.Options.IsOnline, city.Accepted) {
			continue
		}
		events = append(events, Event{
			Title:    strings.TrimSpace(entry.Title),
			Date:     date,
			Time:     clock,
			Location: location,
			URL:      entry.URL,
			Source:   SourceGraphQL,
		})
	}
	return FilterWindowKeywords(events, criteria)
}
