package radar

import (
	"strings"
	"time"

	"github.com/momentlabs/radar/pkg/shared/stringutil"
)

// Source identifies the adapter an event came from. Sources are named by
// wire format, not vendor, so swapping an upstream never changes the type.
type Source string

const (
	SourceAPI     Source = "api_source"
	SourceGraphQL Source = "graphql_source"
	SourceHTML    Source = "html_json_source"
	SourceRaw     Source = "html_raw_source"
)

// MaxScrapedDescription bounds descriptions that come from scraped markup.
const MaxScrapedDescription = 150

// Event is the normalized record every source adapter produces.
type Event struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url"`
	Source      Source `json:"source"`
	Description string `json:"description,omitempty"`
}

// Criteria are the query parameters every adapter consumes.
// Dates are ISO calendar dates (YYYY-MM-DD), DateFrom <= DateTo.
// Keywords are OR-matched against event titles.
type Criteria struct {
	City     string
	DateFrom string
	DateTo   string
	Keywords []string
}

const isoDate = "2006-01-02"

// Window returns the parsed date window. ok is false when either bound is
// malformed or the window is inverted; such a window matches nothing.
func (c Criteria) Window() (from, to time.Time, ok bool) {
	from, err := time.Parse(isoDate, c.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse(isoDate, c.DateTo)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// ParseKeywords splits a free-text keyword string on whitespace and commas.
func ParseKeywords(raw string) []string {
	return stringutil.SplitTerms(raw)
}

// Draft holds the free-text fields of a not-yet-published event, used in
// derived-input mode to infer the search scope.
type Draft struct {
	Title           string
	Description     string
	LocationName    string
	LocationAddress string
	StartsAt        string
}

// Text flattens the draft into a single block for the query resolver.
func (d Draft) Text() string {
	parts := []string{d.Title, d.Description, d.LocationName, d.LocationAddress}
	var sb strings.Builder
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(part)
	}
	return sb.String()
}

// WeekWindow returns the Monday..Sunday ISO dates of the week containing the
// draft's start time, used to scan for scheduling conflicts.
func (d Draft) WeekWindow() (from, to string, ok bool) {
	t, err := time.Parse(time.RFC3339, d.StartsAt)
	if err != nil {
		return "", "", false
	}
	monday := t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
	return monday.Format(isoDate), monday.AddDate(0, 0, 6).Format(isoDate), true
}

// TargetDate returns the draft's own calendar date, when parseable.
func (d Draft) TargetDate() string {
	t, err := time.Parse(time.RFC3339, d.StartsAt)
	if err != nil {
		return ""
	}
	return t.Format(isoDate)
}

// Resolution is the query resolver's output. A nil City is an expected
// outcome: free text does not always contain a resolvable place.
type Resolution struct {
	City     *string  `json:"city"`
	Country  *string  `json:"country"`
	Keywords []string `json:"keywords"`
}
