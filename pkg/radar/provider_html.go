package radar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/momentlabs/radar/pkg/metrics"
	"github.com/momentlabs/radar/pkg/shared/httputil"
	"github.com/momentlabs/radar/pkg/shared/stringutil"
)

type htmlProvider struct {
	cfg    HTMLConfig
	cities *Cities
	log    zerolog.Logger
}

func newHTMLProvider(cfg *Config, cities *Cities, log zerolog.Logger) Provider {
	if cfg == nil || !isEnabled(cfg.HTML.Enabled, true) {
		return nil
	}
	return &htmlProvider{
		cfg:    cfg.HTML,
		cities: cities,
		log:    log.With().Str("source", string(SourceHTML)).Logger(),
	}
}

func (p *htmlProvider) Name() Source {
	return SourceHTML
}

// jsonLDEvent is the subset of a schema.org Event block the adapter reads.
// location is kept raw because publishers emit both object and string forms.
type jsonLDEvent struct {
	Type           any             `json:"@type"`
	Name           string          `json:"name"`
	StartDate      string          `json:"startDate"`
	URL            string          `json:"url"`
	Description    string          `json:"description"`
	AttendanceMode string          `json:"eventAttendanceMode"`
	Location       json.RawMessage `json:"location"`
}

func (p *htmlProvider) Search(ctx context.Context, criteria Criteria) []Event {
	city, ok := p.cities.Lookup(criteria.City)
	if !ok || p.cfg.BaseURL == "" {
		return nil
	}
	if _, _, ok := criteria.Window(); !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSecs)*time.Second)
	defer cancel()

	listingURL := fmt.Sprintf("%s/d/%s/events/", strings.TrimRight(p.cfg.BaseURL, "/"), city.HTMLSlug)
	start := time.Now()
	body, _, err := httputil.GetBody(ctx, listingURL, map[string]string{
		"User-Agent": p.cfg.UserAgent,
	}, p.cfg.TimeoutSecs, 2<<20)
	metrics.SourceDuration.WithLabelValues(string(SourceHTML)).Observe(time.Since(start).Seconds())
	if err != nil {
		p.log.Warn().Err(err).Msg("HTML source request failed")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		p.log.Warn().Err(err).Msg("HTML source returned unparseable markup")
		return nil
	}

	var events []Event
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		for _, block := range decodeJSONLD(sel.Text()) {
			if ev, ok := p.normalizeJSONLD(block, city); ok {
				events = append(events, ev)
			}
		}
	})
	return FilterWindowKeywords(events, criteria)
}

// decodeJSONLD unpacks a JSON-LD script body into its event blocks,
// tolerating bare objects, top-level arrays and @graph containers.
func decodeJSONLD(text string) []jsonLDEvent {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var single jsonLDEvent
	if err := json.Unmarshal([]byte(text), &single); err == nil && isJSONLDEventType(single.Type) {
		return []jsonLDEvent{single}
	}
	var list []jsonLDEvent
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return filterJSONLDEvents(list)
	}
	var graph struct {
		Graph []jsonLDEvent `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(text), &graph); err == nil {
		return filterJSONLDEvents(graph.Graph)
	}
	return nil
}

func filterJSONLDEvents(blocks []jsonLDEvent) []jsonLDEvent {
	out := blocks[:0]
	for _, block := range blocks {
		if isJSONLDEventType(block.Type) {
			out = append(out, block)
		}
	}
	return out
}

func isJSONLDEventType(value any) bool {
	switch typed := value.(type) {
	case string:
		return strings.Contains(typed, "Event")
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok && strings.Contains(s, "Event") {
				return true
			}
		}
	}
	return false
}

func (p *htmlProvider) normalizeJSONLD(block jsonLDEvent, city CityEntry) (Event, bool) {
	date, clock := splitDateTime(block.StartDate)
	if date == "" || strings.TrimSpace(block.Name) == "" {
		return Event{}, false
	}
	location, online := parseJSONLDLocation(block.Location)
	online = online || strings.Contains(block.AttendanceMode, "Online")
	if !AcceptLocation(location, online, city.Accepted) {
		return Event{}, false
	}
	return Event{
		Title:       strings.TrimSpace(block.Name),
		Date:        date,
		Time:        clock,
		Location:    location,
		URL:         block.URL,
		Source:      SourceHTML,
		Description: stringutil.Truncate(strings.TrimSpace(block.Description), MaxScrapedDescription),
	}, true
}

// parseJSONLDLocation handles both string locations and schema.org Place /
// VirtualLocation objects.
func parseJSONLDLocation(raw json.RawMessage) (location string, online bool) {
	if len(raw) == 0 {
		return "", false
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString), false
	}
	var asObject struct {
		Type    string          `json:"@type"`
		Name    string          `json:"name"`
		Address json.RawMessage `json:"address"`
	}
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return "", false
	}
	if strings.Contains(asObject.Type, "Virtual") {
		return strings.TrimSpace(asObject.Name), true
	}
	var addrString string
	if err := json.Unmarshal(asObject.Address, &addrString); err == nil {
		return joinLocation(asObject.Name, addrString), false
	}
	var addr struct {
		Locality string `json:"addressLocality"`
		Region   string `json:"addressRegion"`
	}
	_ = json.Unmarshal(asObject.Address, &addr)
	return joinLocation(asObject.Name, addr.Locality, addr.Region), false
}
