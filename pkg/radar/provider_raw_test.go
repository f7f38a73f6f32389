package radar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

func TestBuildExcerptPrefersEmbeddedPayload(t *testing.T) {
	page := `<html><head>
<script id="__NEXT_DATA__" type="application/json">{"props":{"events":["a","b"]}}</script>
<script type="application/ld+json">{"@type":"Event","name":"ignored"}</script>
</head><body><p>visible text</p></body></html>`

	excerpt := BuildExcerpt([]byte(page), "https://raw.example/paris", 0)
	if !strings.Contains(excerpt, `"props"`) {
		t.Errorf("expected the embedded payload, got %q", excerpt)
	}
	if strings.Contains(excerpt, "visible text") {
		t.Error("stripped text must not be used when a structured payload exists")
	}
}

func TestBuildExcerptFallsBackToJSONLDThenText(t *testing.T) {
	withLD := `<html><head><script type="application/ld+json">{"@type":"Event","name":"ld block"}</script></head><body>body text</body></html>`
	excerpt := BuildExcerpt([]byte(withLD), "https://raw.example/paris", 0)
	if !strings.Contains(excerpt, "ld block") {
		t.Errorf("expected JSON-LD fallback, got %q", excerpt)
	}

	plain := `<html><head><style>.x{}</style><script>var hidden = 1;</script></head>
<body><h1>Paris events</h1><p>March   listings</p></body></html>`
	excerpt = BuildExcerpt([]byte(plain), "https://raw.example/paris", 0)
	if !strings.Contains(excerpt, "Paris events") || !strings.Contains(excerpt, "March listings") {
		t.Errorf("expected stripped text with collapsed whitespace, got %q", excerpt)
	}
	if strings.Contains(excerpt, "hidden") {
		t.Error("script bodies must be stripped")
	}
}

func TestBuildExcerptIncludesOpenGraphHeader(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="What's on in Paris"/>
<meta property="og:description" content="Weekly picks"/>
</head><body><p>listing listing listing</p></body></html>`

	excerpt := BuildExcerpt([]byte(page), "https://raw.example/paris", 0)
	if !strings.Contains(excerpt, "What's on in Paris") || !strings.Contains(excerpt, "Weekly picks") {
		t.Errorf("expected OpenGraph header, got %q", excerpt)
	}
}

func TestBuildExcerptCapsSize(t *testing.T) {
	big := "<html><body><p>" + strings.Repeat("événement ", 5000) + "</p></body></html>"
	excerpt := BuildExcerpt([]byte(big), "https://raw.example/paris", MaxExcerptBytes)
	if len(excerpt) > MaxExcerptBytes {
		t.Fatalf("excerpt is %d bytes, cap is %d", len(excerpt), MaxExcerptBytes)
	}
	if !utf8.ValidString(excerpt) {
		t.Error("excerpt must remain valid UTF-8 at the cut")
	}
}

func TestRawProviderAbsorbsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := &rawProvider{
		cfg:    RawConfig{BaseURL: server.URL, UserAgent: "test", TimeoutSecs: 2, MaxBytes: MaxExcerptBytes},
		cities: NewCities(zerolog.Nop()),
		log:    zerolog.Nop(),
	}
	if got := provider.FetchExcerpt(context.Background(), Criteria{City: "paris", DateFrom: "2026-03-20", DateTo: "2026-03-20"}); got != "" {
		t.Errorf("transport failure must yield an empty excerpt, got %q", got)
	}
	if got := provider.FetchExcerpt(context.Background(), Criteria{City: "atlantis"}); got != "" {
		t.Errorf("unknown city must yield an empty excerpt, got %q", got)
	}
}
