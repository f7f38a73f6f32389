package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/momentlabs/radar/pkg/radar"
)

// Resolver infers {city, country, keywords} from free-text draft fields.
type Resolver struct {
	client *Client
}

// NewResolver wraps a completion client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

const resolveSystemPrompt = "You read a draft description of an event someone is planning and infer " +
	"where it takes place and what it is about. Respond with strict JSON only, no prose, no code fences. " +
	`Schema: {"city":string or null,"country":string or null,"keywords":[up to 5 short topical strings]}. ` +
	"city is the city the event happens in, lowercase, or null when the text names no identifiable place."

// Resolve implements radar.QueryResolver. Any failure or unparseable reply
// yields the zero Resolution; a nil city is the expected "no place found"
// outcome and is handled upstream, not here.
func (r *Resolver) Resolve(ctx context.Context, draft radar.Draft) radar.Resolution {
	var prompt strings.Builder
	prompt.WriteString("Event draft:\n")
	prompt.WriteString(draft.Text())
	if starts := strings.TrimSpace(draft.StartsAt); starts != "" {
		fmt.Fprintf(&prompt, "\nStarts at: %s\n", starts)
	}

	raw, err := r.client.complete(ctx, "resolve", resolveSystemPrompt, prompt.String())
	if err != nil {
		r.client.log.Warn().Err(err).Msg("Scope resolution call failed")
		return radar.Resolution{}
	}
	payload, ok := recoverJSON(raw)
	if !ok {
		r.client.log.Warn().Msg("Scope resolution returned no JSON object")
		return radar.Resolution{}
	}

	var parsed struct {
		City     *string  `json:"city"`
		Country  *string  `json:"country"`
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		r.client.log.Warn().Err(err).Msg("Scope resolution returned unparseable JSON")
		return radar.Resolution{}
	}

	resolution := radar.Resolution{Country: trimmedPtr(parsed.Country), City: trimmedPtr(parsed.City)}
	for _, kw := range parsed.Keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			resolution.Keywords = append(resolution.Keywords, kw)
		}
	}
	return resolution
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
