package wikidata

import (
	"context"
	"log/slog"
)

// EntityFetcher is the narrow fetch interface the walker depends on.
// *Client satisfies it.
type EntityFetcher interface {
	FetchEntity(ctx context.Context, qid string) (*RawEntity, error)
}

// walkProperty names one relationship the walker can follow.
type walkProperty struct {
	name string
	rel  string
}

// defaultWalkProperties are followed in expansion order: all edition targets
// of a node are explored before its derivative works.
var defaultWalkProperties = []walkProperty{
	{name: "has_edition", rel: RelHasEdition},
	{name: "derivative_work", rel: RelDerivativeWork},
}

// Walker builds a directed relationship graph by following edition and
// derivative-work links outward from a starting entity.
type Walker struct {
	fetcher EntityFetcher
	logger  *slog.Logger
	props   []walkProperty

	// Limit caps the number of distinct entities expanded in one walk.
	// Zero means unlimited.
	Limit int
}

// NewWalker creates a Walker on top of an entity fetcher.
func NewWalker(f EntityFetcher, logger *slog.Logger) *Walker {
	return &Walker{fetcher: f, logger: logger, props: defaultWalkProperties}
}

// SetProperties restricts the walk to the named relationships. Unknown names
// are logged and ignored; if none remain, the default set stays in effect.
func (w *Walker) SetProperties(names []string) {
	var props []walkProperty
	for _, n := range names {
		found := false
		for _, wp := range defaultWalkProperties {
			if wp.name == n {
				props = append(props, wp)
				found = true
				break
			}
		}
		if !found {
			w.logger.Warn("unknown walk property ignored", "name", n)
		}
	}
	if len(props) > 0 {
		w.props = props
	}
}

// target is one pending outgoing relationship of an expanded node.
type target struct {
	qid string
	rel string
}

// frame is one node whose outgoing relationships are being emitted.
type frame struct {
	qid     string
	targets []target
	next    int
}

// Walk traverses the relationship graph depth-first from start and returns
// one edge per relationship instance encountered. Each distinct entity is
// fetched at most once; revisits emit the edge but are not re-expanded, so
// the walk terminates on any finite graph, cycles included. A failed fetch
// truncates only the branch rooted at the failing entity. The traversal uses
// an explicit stack, so graph depth is not bounded by call-stack depth.
func (w *Walker) Walk(ctx context.Context, start string) []Edge {
	visited := make(map[string]bool)
	var edges []Edge
	var stack []*frame

	if f := w.expand(ctx, start, visited); f != nil {
		stack = append(stack, f)
	}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			w.logger.Warn("walk aborted", "start", start, "error", ctx.Err())
			return edges
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.targets) {
			stack = stack[:len(stack)-1]
			continue
		}

		t := top.targets[top.next]
		top.next++

		// The edge is recorded even when the target was already visited;
		// the visited set only prevents re-expansion.
		edges = append(edges, Edge{From: top.qid, To: t.qid, Relationship: t.rel})

		if visited[t.qid] {
			continue
		}
		if w.Limit > 0 && len(visited) >= w.Limit {
			w.logger.Warn("walk limit reached", "limit", w.Limit, "skipped", t.qid)
			continue
		}
		if f := w.expand(ctx, t.qid, visited); f != nil {
			stack = append(stack, f)
		}
	}

	return edges
}

// expand marks qid visited, fetches and normalizes it, and returns a frame
// holding its outgoing relationship targets in emission order. It returns
// nil when the fetch fails; the visited mark stands so the entity is never
// retried within this walk.
func (w *Walker) expand(ctx context.Context, qid string, visited map[string]bool) *frame {
	visited[qid] = true

	raw, err := w.fetcher.FetchEntity(ctx, qid)
	if err != nil {
		w.logger.Warn("walk branch truncated", "qid", qid, "error", err)
		return nil
	}

	ent := Normalize(qid, raw)

	f := &frame{qid: qid}
	for _, wp := range w.props {
		for _, v := range ent.Properties[wp.name] {
			s, ok := v.(string)
			if !ok || !IsQID(s) {
				// Scalar literals under a reference property cannot be
				// graph nodes; skip silently.
				continue
			}
			f.targets = append(f.targets, target{qid: s, rel: wp.rel})
		}
	}
	return f
}
