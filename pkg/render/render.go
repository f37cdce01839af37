// Package render turns walked relationship graphs into shareable artifacts:
// Graphviz DOT, a self-contained interactive HTML page, and plain JSON.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"wikiutils/pkg/wikidata"
)

// WriteJSON writes v to path as indented UTF-8 JSON without HTML escaping,
// so Tibetan labels and URLs stay readable in the output file.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadJSON reads a JSON file written by WriteJSON back into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// nodeIDs collects the distinct QIDs appearing in the edge list, sorted for
// stable output.
func nodeIDs(edges []wikidata.Edge) []string {
	seen := make(map[string]bool)
	for _, e := range edges {
		seen[e.From] = true
		seen[e.To] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// escapeDOT escapes a string for use inside a double-quoted DOT token.
func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// DOT renders the edge list as a Graphviz digraph. Labels supplies optional
// human-readable node labels keyed by QID; nodes without one are labeled by
// their QID alone.
func DOT(edges []wikidata.Edge, labels map[string]string) string {
	var b strings.Builder
	b.WriteString("digraph relationships {\n")
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=box, style=rounded];\n")

	for _, id := range nodeIDs(edges) {
		label := id
		if name := labels[id]; name != "" {
			label = fmt.Sprintf("%s\\n%s", escapeDOT(name), id)
		}
		fmt.Fprintf(&b, "\t%q [label=\"%s\"];\n", id, label)
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "\t%q -> %q [label=%q];\n", e.From, e.To, e.Relationship)
	}

	b.WriteString("}\n")
	return b.String()
}

// WriteDOT writes the DOT rendering to path.
func WriteDOT(path string, edges []wikidata.Edge, labels map[string]string) error {
	if err := os.WriteFile(path, []byte(DOT(edges, labels)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
