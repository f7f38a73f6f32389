package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/momentlabs/radar/pkg/radar"
	"github.com/momentlabs/radar/pkg/shared/stringutil"
)

// Extractor turns raw listing markup into candidate events via one
// text-understanding call.
type Extractor struct {
	client *Client
}

// NewExtractor wraps a completion client.
func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

const extractSystemPrompt = "You extract public event listings from scraped web page text. " +
	"Respond with strict JSON only, no prose, no code fences. " +
	`Schema: {"events":[{"title":string,"date":"YYYY-MM-DD","time":"HH:MM" or null,` +
	`"location":string or null,"url":string,"description":string or null}]}. ` +
	"Return an empty events array when nothing matches."

// Extract implements radar.Extractor. Markup below the engine's minimum
// threshold means the source found nothing, so no call is made.
func (e *Extractor) Extract(ctx context.Context, markup string, criteria radar.Criteria) []radar.Event {
	if len(markup) < radar.MinExcerptBytes {
		return nil
	}
	markup = capTokens(markup, e.client.model, e.client.maxPromptTokens)

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "City: %s\nDates: %s to %s (inclusive)\n", criteria.City, criteria.DateFrom, criteria.DateTo)
	if len(criteria.Keywords) > 0 {
		fmt.Fprintf(&prompt, "Topics (any must appear in the title): %s\n", strings.Join(criteria.Keywords, ", "))
	}
	prompt.WriteString("\nPage text:\n")
	prompt.WriteString(markup)

	raw, err := e.client.complete(ctx, "extract", extractSystemPrompt, prompt.String())
	if err != nil {
		e.client.log.Warn().Err(err).Msg("Listing extraction call failed")
		return nil
	}

	payload, ok := recoverJSON(raw)
	if !ok {
		e.client.log.Warn().Msg("Listing extraction returned no JSON object")
		return nil
	}
	var parsed struct {
		Events []struct {
			Title       string `json:"title"`
			Date        string `json:"date"`
			Time        string `json:"time"`
			Location    string `json:"location"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"events"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		e.client.log.Warn().Err(err).Msg("Listing extraction returned unparseable JSON")
		return nil
	}

	events := make([]radar.Event, 0, len(parsed.Events))
	for _, entry := range parsed.Events {
		events = append(events, radar.Event{
			Title:       strings.TrimSpace(entry.Title),
			Date:        strings.TrimSpace(entry.Date),
			Time:        strings.TrimSpace(entry.Time),
			Location:    strings.TrimSpace(entry.Location),
			URL:         strings.TrimSpace(entry.URL),
			Source:      radar.SourceRaw,
			Description: stringutil.Truncate(strings.TrimSpace(entry.Description), radar.MaxScrapedDescription),
		})
	}
	// The model is not trusted to have honored the window or the topics.
	return radar.FilterWindowKeywords(events, criteria)
}
