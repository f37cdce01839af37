package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"wikiutils/pkg/config"
	"wikiutils/pkg/request"
)

const (
	defaultSPARQLEndpoint     = "https://query.wikidata.org/sparql"
	defaultAPIEndpoint        = "https://www.wikidata.org/w/api.php"
	defaultEntityDataEndpoint = "https://www.wikidata.org/wiki/Special:EntityData"

	// bdrcWorkIDProperty cross-references BDRC work IDs (wdt:P2477).
	bdrcWorkIDProperty = "P2477"

	// Search API caps limit at 50 per request.
	maxSearchLimit = 50
)

// Client talks to the Wikidata SPARQL, EntityData and action API endpoints.
type Client struct {
	request            *request.Client
	SPARQLEndpoint     string
	APIEndpoint        string
	EntityDataEndpoint string
	Language           string
	CacheEntities      bool
	Logger             *slog.Logger
}

// NewClient creates a new Wikidata client.
func NewClient(r *request.Client, cfg *config.WikidataConfig, logger *slog.Logger) *Client {
	c := &Client{
		request:            r,
		SPARQLEndpoint:     defaultSPARQLEndpoint,
		APIEndpoint:        defaultAPIEndpoint,
		EntityDataEndpoint: defaultEntityDataEndpoint,
		Language:           "en",
		Logger:             logger,
	}
	if cfg != nil {
		if cfg.SPARQLEndpoint != "" {
			c.SPARQLEndpoint = cfg.SPARQLEndpoint
		}
		if cfg.APIEndpoint != "" {
			c.APIEndpoint = cfg.APIEndpoint
		}
		if cfg.EntityDataEndpoint != "" {
			c.EntityDataEndpoint = strings.TrimRight(cfg.EntityDataEndpoint, "/")
		}
		if cfg.Language != "" {
			c.Language = cfg.Language
		}
		c.CacheEntities = cfg.CacheEntities
	}
	return c
}

// ResolveWorkID resolves an external BDRC work ID to its Wikidata QID via
// SPARQL. Exactly one QID is expected per work ID; if the query returns
// several bindings the first one wins. Returns ErrNotFound if no entity
// carries the given work ID.
func (c *Client) ResolveWorkID(ctx context.Context, workID string) (string, error) {
	if workID == "" {
		return "", fmt.Errorf("%w: empty work id", ErrInvalidQuery)
	}
	if strings.ContainsAny(workID, "\"\n\\") {
		return "", fmt.Errorf("%w: work id %q", ErrInvalidQuery, workID)
	}

	query := fmt.Sprintf("SELECT ?item WHERE { ?item wdt:%s \"%s\" . }", bdrcWorkIDProperty, workID)

	u, err := url.Parse(c.SPARQLEndpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	q := u.Query()
	q.Add("query", query)
	q.Add("format", "json")
	u.RawQuery = q.Encode()

	headers := map[string]string{
		"Accept": "application/sparql-results+json",
	}

	cacheKey := ""
	if c.CacheEntities {
		cacheKey = "wd_qid_" + workID
	}

	body, err := c.request.GetWithHeaders(ctx, u.String(), headers, cacheKey)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %v", ErrNetwork, workID, err)
	}

	var result sparqlResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	bindings := result.Results.Bindings
	if len(bindings) == 0 {
		c.Logger.Warn("no QID found for work id", "work_id", workID)
		return "", fmt.Errorf("%w: work id %s", ErrNotFound, workID)
	}

	// Item value is an entity URI; the QID is its last path segment.
	itemURI := val(bindings[0], "item")
	qid := itemURI
	if idx := strings.LastIndex(itemURI, "/"); idx >= 0 {
		qid = itemURI[idx+1:]
	}
	if qid == "" {
		return "", fmt.Errorf("%w: empty item binding for %s", ErrParse, workID)
	}

	return qid, nil
}

// FetchEntity fetches the raw entity record for a QID from the EntityData
// endpoint. A missing entity (404 or absent from the response) surfaces as
// ErrNotFound; transport failures as ErrNetwork.
func (c *Client) FetchEntity(ctx context.Context, qid string) (*RawEntity, error) {
	if !IsQID(qid) {
		return nil, fmt.Errorf("%w: malformed entity id %q", ErrInvalidQuery, qid)
	}

	u := fmt.Sprintf("%s/%s.json", c.EntityDataEndpoint, qid)

	cacheKey := ""
	if c.CacheEntities {
		cacheKey = "wd_entity_" + qid
	}

	body, err := c.request.Get(ctx, u, cacheKey)
	if err != nil {
		if request.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, qid)
		}
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrNetwork, qid, err)
	}

	var result entityDataResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	rawEnt, ok := result.Entities[qid]
	if !ok {
		// EntityData follows redirects; a merged entity comes back under its
		// canonical QID instead of the requested one.
		if len(result.Entities) == 1 {
			for redirected, v := range result.Entities {
				c.Logger.Debug("entity redirected", "requested", qid, "canonical", redirected)
				rawEnt = v
				ok = true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, qid)
		}
	}

	var ent RawEntity
	if err := json.Unmarshal(rawEnt, &ent); err != nil {
		return nil, fmt.Errorf("%w: entity %s: %v", ErrParse, qid, err)
	}
	return &ent, nil
}

// EntityMetadata fetches the entity with the given QID and returns its
// normalized metadata. No work-ID resolution happens here.
func (c *Client) EntityMetadata(ctx context.Context, qid string) (*Entity, error) {
	raw, err := c.FetchEntity(ctx, qid)
	if err != nil {
		return nil, err
	}
	return Normalize(qid, raw), nil
}

// GetEntityMetadata resolves a BDRC work ID and returns the normalized
// metadata of the matching entity.
func (c *Client) GetEntityMetadata(ctx context.Context, workID string) (*Entity, error) {
	qid, err := c.ResolveWorkID(ctx, workID)
	if err != nil {
		return nil, err
	}
	return c.EntityMetadata(ctx, qid)
}

// SearchEntities searches Wikidata for items matching text in the given
// language. The limit is clamped to the API maximum of 50.
func (c *Client) SearchEntities(ctx context.Context, text, language string, limit int) ([]SearchResult, error) {
	if language == "" {
		language = c.Language
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	u, err := url.Parse(c.APIEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	q := u.Query()
	q.Add("action", "wbsearchentities")
	q.Add("format", "json")
	q.Add("language", language)
	q.Add("search", text)
	q.Add("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", ErrNetwork, text, err)
	}

	var result struct {
		Search []SearchResult `json:"search"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	return result.Search, nil
}

// -- Internal parsing structs --

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func val(binding map[string]sparqlValue, key string) string {
	if v, ok := binding[key]; ok {
		return v.Value
	}
	return ""
}
