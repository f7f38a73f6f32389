package radar

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/rs/zerolog"

	"github.com/momentlabs/radar/pkg/metrics"
	"github.com/momentlabs/radar/pkg/shared/httputil"
)

// rawProvider fetches a listing page and returns a capped markup excerpt for
// the extraction step. It applies none of the event filters itself: filtering
// scraped listings is the extraction step's job.
type rawProvider struct {
	cfg    RawConfig
	cities *Cities
	log    zerolog.Logger
}

func newRawProvider(cfg *Config, cities *Cities, log zerolog.Logger) ExcerptFetcher {
	if cfg == nil || !isEnabled(cfg.Raw.Enabled, true) {
		return nil
	}
	return &rawProvider{
		cfg:    cfg.Raw,
		cities: cities,
		log:    log.With().Str("source", string(SourceRaw)).Logger(),
	}
}

func (p *rawProvider) Name() Source {
	return SourceRaw
}

func (p *rawProvider) FetchExcerpt(ctx context.Context, criteria Criteria) string {
	city, ok := p.cities.Lookup(criteria.City)
	if !ok || p.cfg.BaseURL == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSecs)*time.Second)
	defer cancel()

	listingURL := fmt.Sprintf("%s/find/?location=%s&source=EVENTS", strings.TrimRight(p.cfg.BaseURL, "/"), city.RawSlug)
	start := time.Now()
	body, _, err := httputil.GetBody(ctx, listingURL, map[string]string{
		"User-Agent": p.cfg.UserAgent,
	}, p.cfg.TimeoutSecs, 2<<20)
	metrics.SourceDuration.WithLabelValues(string(SourceRaw)).Observe(time.Since(start).Seconds())
	if err != nil {
		p.log.Warn().Err(err).Msg("Raw source request failed")
		return ""
	}
	return BuildExcerpt(body, listingURL, p.cfg.MaxBytes)
}

// BuildExcerpt reduces a listing page to a bounded excerpt, preferring the
// page's embedded structured-data payload, then its JSON-LD blocks, then
// stripped text. An OpenGraph header is prepended when the page carries one,
// since it usually names the listing scope.
func BuildExcerpt(body []byte, pageURL string, maxBytes int) string {
	if maxBytes <= 0 {
		maxBytes = MaxExcerptBytes
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return capBytes(stripText(string(body)), maxBytes)
	}

	header := opengraphHeader(body, pageURL)

	if payload := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text()); payload != "" {
		return capBytes(header+payload, maxBytes)
	}

	var blocks []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) > 0 {
		return capBytes(header+strings.Join(blocks, "\n"), maxBytes)
	}

	doc.Find("script, style, noscript, svg, nav, footer").Remove()
	return capBytes(header+stripText(doc.Text()), maxBytes)
}

func opengraphHeader(body []byte, pageURL string) string {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err != nil {
		return ""
	}
	var sb strings.Builder
	if og.Title != "" {
		fmt.Fprintf(&sb, "page: %s\n", og.Title)
	}
	if og.Description != "" {
		fmt.Fprintf(&sb, "about: %s\n", og.Description)
	}
	if sb.Len() > 0 {
		fmt.Fprintf(&sb, "url: %s\n\n", pageURL)
	}
	return sb.String()
}

// stripText collapses whitespace runs left behind by tag removal.
func stripText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func capBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	cut := text[:maxBytes]
	// Avoid splitting a multi-byte rune at the boundary.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
