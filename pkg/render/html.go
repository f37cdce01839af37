package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"wikiutils/pkg/wikidata"
)

// visNode and visEdge mirror the vis-network dataset format.
type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
}

type visEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

var htmlTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
  body { margin: 0; font-family: sans-serif; }
  #graph { width: 100vw; height: 100vh; }
</style>
</head>
<body>
<div id="graph"></div>
<script>
  var nodes = new vis.DataSet({{.Nodes}});
  var edges = new vis.DataSet({{.Edges}});
  var container = document.getElementById("graph");
  var options = {
    layout: { improvedLayout: true },
    edges: { arrows: "to", font: { align: "middle" } },
    physics: { stabilization: true }
  };
  new vis.Network(container, { nodes: nodes, edges: edges }, options);
</script>
</body>
</html>
`))

// HTML renders the edge list as an interactive vis-network page. Labels
// supplies optional node labels keyed by QID.
func HTML(title string, edges []wikidata.Edge, labels map[string]string) ([]byte, error) {
	nodes := make([]visNode, 0)
	for _, id := range nodeIDs(edges) {
		label := id
		if name := labels[id]; name != "" {
			label = name
		}
		nodes = append(nodes, visNode{ID: id, Label: label, Title: id})
	}

	visEdges := make([]visEdge, 0, len(edges))
	for _, e := range edges {
		visEdges = append(visEdges, visEdge{From: e.From, To: e.To, Label: e.Relationship})
	}

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		Title string
		Nodes []visNode
		Edges []visEdge
	}{
		Title: title,
		Nodes: nodes,
		Edges: visEdges,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render graph page: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML writes the interactive graph page to path.
func WriteHTML(path, title string, edges []wikidata.Edge, labels map[string]string) error {
	data, err := HTML(title, edges, labels)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
