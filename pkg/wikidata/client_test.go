package wikidata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wikiutils/pkg/cache"
	"wikiutils/pkg/config"
	"wikiutils/pkg/request"
	"wikiutils/pkg/tracker"
)

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *memCache) SetCache(ctx context.Context, key string, val []byte) error {
	m.data[key] = val
	return nil
}

func newTestClient(t *testing.T, serverURL string, c cache.Cacher) *Client {
	t.Helper()
	if c == nil {
		c = cache.NullCache{}
	}
	reqCfg := &config.RequestConfig{
		Retries: 1,
		Timeout: config.Duration(5 * time.Second),
		Backoff: config.BackoffConfig{BaseDelay: config.Duration(time.Millisecond)},
	}
	reqClient := request.New(reqCfg, c, tracker.New())
	wdCfg := &config.WikidataConfig{
		SPARQLEndpoint:     serverURL + "/sparql",
		APIEndpoint:        serverURL + "/w/api.php",
		EntityDataEndpoint: serverURL + "/wiki/Special:EntityData",
		CacheEntities:      true,
	}
	return NewClient(reqClient, wdCfg, slog.Default())
}

// knownQIDs mirrors real BDRC IDs and their QIDs as of May 2025.
var knownQIDs = map[string]string{
	"WA0RK0529": "Q622868",    // Heart Sutra
	"P1215":     "Q106795280", // Pendrub Zangpo Tashi (author)
}

func sparqlHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if !strings.Contains(query, "wdt:P2477") {
			t.Errorf("query missing wdt:P2477 clause: %s", query)
		}

		for workID, qid := range knownQIDs {
			if strings.Contains(query, fmt.Sprintf("%q", workID)) {
				fmt.Fprintf(w, `{"results": {"bindings": [
					{"item": {"type": "uri", "value": "http://www.wikidata.org/entity/%s"}}
				]}}`, qid)
				return
			}
		}
		fmt.Fprint(w, `{"results": {"bindings": []}}`)
	}
}

func TestResolveWorkIDKnownInputs(t *testing.T) {
	server := httptest.NewServer(sparqlHandler(t))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	tests := []struct {
		workID  string
		wantQID string
	}{
		{"WA0RK0529", "Q622868"}, // Heart Sutra
		{"P1215", "Q106795280"},  // Pendrub Zangpo Tashi (author)
		{"PR0EAP570", ""},        // Likely no QID for this collection
		{"NONEXISTENTID", ""},    // Definitely does not exist
	}

	for _, tt := range tests {
		t.Run(tt.workID, func(t *testing.T) {
			qid, err := client.ResolveWorkID(context.Background(), tt.workID)
			if tt.wantQID == "" {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got qid=%q err=%v", qid, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveWorkID failed: %v", err)
			}
			if qid != tt.wantQID {
				t.Errorf("ResolveWorkID(%s) = %s, want %s", tt.workID, qid, tt.wantQID)
			}
		})
	}
}

func TestResolveWorkIDIdempotent(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		sparqlHandler(t)(w, r)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newMemCache())

	first, err := client.ResolveWorkID(context.Background(), "WA0RK0529")
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := client.ResolveWorkID(context.Background(), "WA0RK0529")
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if first != second {
		t.Errorf("resolution not idempotent: %s vs %s", first, second)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected second resolve to be served from cache, got %d upstream hits", hits)
	}
}

func TestResolveWorkIDRejectsInjection(t *testing.T) {
	server := httptest.NewServer(sparqlHandler(t))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.ResolveWorkID(context.Background(), `X" . ?s ?p ?o . "`)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestFetchEntity(t *testing.T) {
	entityJSON := `{
		"entities": {
			"Q622868": {
				"id": "Q622868",
				"labels": {"en": {"language": "en", "value": "Heart Sutra"}},
				"claims": {
					"P747": [
						{"mainsnak": {"datavalue": {"value": {"entity-type": "item", "id": "Q19138500"}}}}
					]
				}
			}
		}
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wiki/Special:EntityData/Q622868.json":
			fmt.Fprint(w, entityJSON)
		case "/wiki/Special:EntityData/Q999999999.json":
			w.WriteHeader(http.StatusNotFound)
		case "/wiki/Special:EntityData/Q13.json":
			fmt.Fprint(w, "{invalid json}")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	raw, err := client.FetchEntity(ctx, "Q622868")
	if err != nil {
		t.Fatalf("FetchEntity failed: %v", err)
	}
	ent := Normalize("Q622868", raw)
	if ent.Labels["en"] != "Heart Sutra" {
		t.Errorf("unexpected label: %s", ent.Labels["en"])
	}
	if len(ent.Properties["has_edition"]) != 1 || ent.Properties["has_edition"][0] != "Q19138500" {
		t.Errorf("unexpected has_edition values: %v", ent.Properties["has_edition"])
	}

	if _, err := client.FetchEntity(ctx, "Q999999999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for 404, got %v", err)
	}

	if _, err := client.FetchEntity(ctx, "Q13"); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse for malformed body, got %v", err)
	}

	if _, err := client.FetchEntity(ctx, "not a qid"); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for malformed id, got %v", err)
	}
}

func TestFetchEntityFollowsRedirect(t *testing.T) {
	// A merged entity comes back under its canonical QID.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"entities": {"Q2": {"id": "Q2", "labels": {"en": {"language": "en", "value": "Canonical"}}}}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	raw, err := client.FetchEntity(context.Background(), "Q1")
	if err != nil {
		t.Fatalf("FetchEntity failed: %v", err)
	}
	if raw.ID != "Q2" {
		t.Errorf("expected canonical entity Q2, got %s", raw.ID)
	}
}

func TestSearchEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "wbsearchentities" {
			t.Errorf("expected action wbsearchentities, got %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("expected limit clamped to 50, got %s", got)
		}
		if got := r.URL.Query().Get("language"); got != "bo" {
			t.Errorf("expected language bo, got %s", got)
		}
		fmt.Fprint(w, `{"search": [
			{"id": "Q622868", "label": "Heart Sutra", "description": "Buddhist text"}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	results, err := client.SearchEntities(context.Background(), "ཤེས་རབ་སྙིང་པོ།", "bo", 100)
	if err != nil {
		t.Fatalf("SearchEntities failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "Q622868" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestEntityMetadataByQID(t *testing.T) {
	// A QID is never a valid P2477 value, so a lookup that already has the
	// QID must go straight to EntityData and skip the work-ID resolver.
	var sparqlHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/sparql":
			atomic.AddInt32(&sparqlHits, 1)
			fmt.Fprint(w, `{"results": {"bindings": []}}`)
		case strings.HasPrefix(r.URL.Path, "/wiki/Special:EntityData/Q622868"):
			fmt.Fprint(w, `{"entities": {"Q622868": {
				"id": "Q622868",
				"labels": {"en": {"language": "en", "value": "Heart Sutra"}}
			}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	ent, err := client.EntityMetadata(context.Background(), "Q622868")
	if err != nil {
		t.Fatalf("EntityMetadata failed: %v", err)
	}
	if ent.QID != "Q622868" || ent.Labels["en"] != "Heart Sutra" {
		t.Errorf("unexpected entity: %+v", ent)
	}
	if hits := atomic.LoadInt32(&sparqlHits); hits != 0 {
		t.Errorf("QID lookup consulted the work-ID resolver %d times", hits)
	}
}

func TestGetEntityMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/sparql":
			sparqlHandler(t)(w, r)
		case strings.HasPrefix(r.URL.Path, "/wiki/Special:EntityData/Q622868"):
			fmt.Fprint(w, `{"entities": {"Q622868": {
				"id": "Q622868",
				"labels": {"en": {"language": "en", "value": "Heart Sutra"}},
				"descriptions": {"en": {"language": "en", "value": "Buddhist text"}},
				"claims": {"P1476": [{"mainsnak": {"datavalue": {"value": {"text": "Heart Sutra", "language": "en"}}}}]}
			}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	ent, err := client.GetEntityMetadata(context.Background(), "WA0RK0529")
	if err != nil {
		t.Fatalf("GetEntityMetadata failed: %v", err)
	}
	if ent.QID != "Q622868" {
		t.Errorf("unexpected QID: %s", ent.QID)
	}
	if ent.Labels["en"] != "Heart Sutra" {
		t.Errorf("unexpected label: %s", ent.Labels["en"])
	}
	if len(ent.Properties["title"]) != 1 {
		t.Errorf("expected one title value, got %v", ent.Properties["title"])
	}

	if _, err := client.GetEntityMetadata(context.Background(), "NONEXISTENTID"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
