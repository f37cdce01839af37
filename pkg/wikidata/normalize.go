package wikidata

import (
	"encoding/json"
	"log/slog"
)

// propertyNames is the static property table: every property the normalizer
// resolves, keyed by PID. The output of Normalize carries one value list per
// name listed here. Immutable; safe to share across clients.
var propertyNames = map[string]string{
	"P31":   "instance_of",
	"P50":   "author",
	"P407":  "language_of_work",
	"P747":  "has_edition",
	"P1476": "title",
	"P2477": "bdrc_id",
	"P4969": "derivative_work",
}

// PropertyName returns the semantic name for a PID from the static table.
func PropertyName(pid string) (string, bool) {
	name, ok := propertyNames[pid]
	return name, ok
}

// Normalize flattens a raw entity record into a stable-schema Entity.
// It never fails: a nil record yields a degraded Entity carrying the
// best-available identifier and empty maps, and individually corrupt
// label/description/alias entries are skipped, not fatal.
func Normalize(qid string, raw *RawEntity) *Entity {
	e := &Entity{
		QID:          qid,
		Labels:       make(map[string]string),
		Descriptions: make(map[string]string),
		Aliases:      make(map[string][]string),
		Properties:   make(map[string][]any),
	}

	// Stable schema: every table property gets a (possibly empty) list.
	for _, name := range propertyNames {
		e.Properties[name] = []any{}
	}

	if raw == nil {
		e.Degraded = true
		return e
	}
	if raw.ID != "" {
		e.QID = raw.ID
	}

	for lang, rawTerm := range raw.Labels {
		var tv termValue
		if err := json.Unmarshal(rawTerm, &tv); err != nil {
			slog.Warn("skipping malformed label", "qid", e.QID, "lang", lang, "error", err)
			continue
		}
		e.Labels[lang] = tv.Value
	}

	for lang, rawTerm := range raw.Descriptions {
		var tv termValue
		if err := json.Unmarshal(rawTerm, &tv); err != nil {
			slog.Warn("skipping malformed description", "qid", e.QID, "lang", lang, "error", err)
			continue
		}
		e.Descriptions[lang] = tv.Value
	}

	for lang, rawAliases := range raw.Aliases {
		aliases := make([]string, 0, len(rawAliases))
		for _, rawTerm := range rawAliases {
			var tv termValue
			if err := json.Unmarshal(rawTerm, &tv); err != nil {
				slog.Warn("skipping malformed alias", "qid", e.QID, "lang", lang, "error", err)
				continue
			}
			aliases = append(aliases, tv.Value)
		}
		e.Aliases[lang] = aliases
	}

	for pid, name := range propertyNames {
		statements, ok := raw.Claims[pid]
		if !ok {
			continue
		}
		values := make([]any, 0, len(statements))
		for _, st := range statements {
			values = append(values, resolveValue(st.Mainsnak.Datavalue.Value))
		}
		e.Properties[name] = values
	}

	return e
}

// resolveValue extracts the usable value from a statement's main value.
// Entity references are flattened to their bare QID string; every other
// shape (string, number, null, structured literal) passes through unchanged.
func resolveValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &ref); err == nil && ref.ID != "" {
		return ref.ID
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
