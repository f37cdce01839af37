package wikidata

import (
	"encoding/json"
	"regexp"
)

// Relationship names used for graph edges.
const (
	RelHasEdition     = "has_edition"
	RelDerivativeWork = "derivative_work"
)

// Edge is one directed relationship between two entities. The field set is
// exactly what graph-rendering consumers expect; equality is structural.
type Edge struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Relationship string `json:"relationship"`
}

// RawEntity is the unprocessed representation of one entity as returned by
// the Special:EntityData endpoint. Per-language sections are kept as raw JSON
// so a single corrupt entry can be skipped during normalization instead of
// failing the whole record.
type RawEntity struct {
	ID           string                       `json:"id"`
	Labels       map[string]json.RawMessage   `json:"labels"`
	Descriptions map[string]json.RawMessage   `json:"descriptions"`
	Aliases      map[string][]json.RawMessage `json:"aliases"`
	Claims       map[string][]Statement       `json:"claims"`
}

// Statement is one claim attached to an entity.
type Statement struct {
	Mainsnak Snak `json:"mainsnak"`
}

// Snak carries the main value of a statement.
type Snak struct {
	Datavalue struct {
		Value json.RawMessage `json:"value"`
	} `json:"datavalue"`
}

// Entity is the normalized, flat view of a RawEntity. Properties always
// contains one entry per name in the static property table, so downstream
// consumers see a stable schema regardless of source sparsity.
type Entity struct {
	QID          string              `json:"qid"`
	Degraded     bool                `json:"degraded,omitempty"`
	Labels       map[string]string   `json:"labels"`
	Descriptions map[string]string   `json:"descriptions"`
	Aliases      map[string][]string `json:"aliases"`
	Properties   map[string][]any    `json:"properties"`
}

// SearchResult is one lightweight match from wbsearchentities.
type SearchResult struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// termValue is the wire shape of one label/description/alias entry.
type termValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// entityDataResponse is the wire shape of Special:EntityData/<qid>.json.
type entityDataResponse struct {
	Entities map[string]json.RawMessage `json:"entities"`
}

var qidPattern = regexp.MustCompile(`^[A-Z][0-9]+$`)

// IsQID reports whether s has the letter-prefix-plus-digits shape of an
// entity identifier. Only such values are traversable graph nodes.
func IsQID(s string) bool {
	return qidPattern.MatchString(s)
}
