package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/momentlabs/radar/pkg/radar"
)

func TestResolveParsesScope(t *testing.T) {
	reply := `{"city":"berlin","country":"Germany","keywords":["techno"," warehouse ",""]}`
	srv, prompt := completionServer(t, reply)
	resolver := NewResolver(testClient(t, srv.URL))

	res := resolver.Resolve(context.Background(), radar.Draft{
		Title:       "Warehouse rave",
		Description: "All-nighter near Ostkreuz",
		StartsAt:    "2026-03-21T23:00:00Z",
	})

	if res.City == nil || *res.City != "berlin" {
		t.Fatalf("city = %v", res.City)
	}
	if res.Country == nil || *res.Country != "Germany" {
		t.Errorf("country = %v", res.Country)
	}
	if len(res.Keywords) != 2 || res.Keywords[1] != "warehouse" {
		t.Errorf("keywords = %v", res.Keywords)
	}
	if !strings.Contains(*prompt, "Warehouse rave") || !strings.Contains(*prompt, "2026-03-21") {
		t.Errorf("prompt missing draft fields: %q", *prompt)
	}
}

func TestResolveNullCity(t *testing.T) {
	srv, _ := completionServer(t, `{"city":null,"country":null,"keywords":["board games"]}`)
	resolver := NewResolver(testClient(t, srv.URL))

	res := resolver.Resolve(context.Background(), radar.Draft{Title: "Game night somewhere"})
	if res.City != nil {
		t.Fatalf("city = %q, want nil", *res.City)
	}
	if len(res.Keywords) != 1 {
		t.Errorf("keywords = %v", res.Keywords)
	}
}

func TestResolveBlankCityBecomesNil(t *testing.T) {
	srv, _ := completionServer(t, `{"city":"   ","keywords":[]}`)
	resolver := NewResolver(testClient(t, srv.URL))

	res := resolver.Resolve(context.Background(), radar.Draft{Title: "t"})
	if res.City != nil {
		t.Fatalf("city = %q, want nil", *res.City)
	}
}

func TestResolveAbsorbsGarbage(t *testing.T) {
	srv, _ := completionServer(t, "It's probably in Berlin?")
	resolver := NewResolver(testClient(t, srv.URL))

	res := resolver.Resolve(context.Background(), radar.Draft{Title: "t"})
	if res.City != nil || res.Country != nil || res.Keywords != nil {
		t.Fatalf("garbage reply must yield the zero resolution, got %+v", res)
	}
}
