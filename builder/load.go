package builder

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/vk/stackgraph/dag"
	"github.com/vk/stackgraph/internal/ctxlog"
	"github.com/vk/stackgraph/refs"
	"github.com/vk/stackgraph/template"
)

// Load drives every resource in the document through the graph's lenient
// insertion path and settles the deferred queue to a fixed point. Each
// resource's dependency set is computed from its explicit declaration plus
// scanned references, as in Graph.AddWithDocument.
//
// Resources that never resolve are reported as warnings, in deferral
// order; they do not fail the call. The returned count is the total number
// of resources promoted to present. Only structural problems (duplicate
// ids, self-dependencies) return an error.
//
// The final present set and edge set do not depend on the order of the
// document's resource list; only warning order may differ.
func Load(ctx context.Context, g *dag.Graph, doc *template.Document) (int, []string, error) {
	logger := ctxlog.FromContext(ctx)
	if g == nil || doc == nil {
		return 0, nil, fmt.Errorf("graph and document must be non-nil")
	}
	logger.Debug("Load: starting document load.", "resources", len(doc.ResourceIDs()))

	added := 0
	for _, r := range doc.Resources() {
		deps := sets.List(refs.Dependencies(r, doc))
		promoted, err := g.AddLenient(r, deps)
		if err != nil {
			return added, nil, err
		}
		if promoted == 0 {
			logger.Debug("Load: resource deferred.", "id", r.ID)
		}
		added += promoted
	}

	added += g.SettleDeferred()

	var warnings []string
	for _, id := range g.DeferredIDs() {
		r, ok := doc.Resource(id)
		if !ok {
			// The entry predates this document; it is not ours to explain.
			warnings = append(warnings,
				fmt.Sprintf("resource %q was never resolved", id))
			continue
		}
		unmet := refs.Dependencies(r, doc).Difference(sets.New[string](g.Present()...))
		warnings = append(warnings,
			fmt.Sprintf("resource %q was never resolved; waiting on: %s",
				id, strings.Join(sets.List(unmet), ", ")))
	}

	logger.Debug("Load: document load complete.",
		"added", added, "deferred", g.DeferredCount())
	return added, warnings, nil
}

// ValidateAgainstDocument cross-checks the graph's present set and edges
// against what the document independently implies, surfacing divergences
// such as an edge the document implies but the graph never recorded
// because a caller drove the low-level strict path without supplying it.
// Findings only; never an error.
func ValidateAgainstDocument(g *dag.Graph, doc *template.Document) []string {
	if g == nil || doc == nil {
		return nil
	}

	deferred := sets.New[string](g.DeferredIDs()...)

	var findings []string
	for _, r := range doc.Resources() {
		if !g.Contains(r.ID) {
			if deferred.Has(r.ID) {
				findings = append(findings,
					fmt.Sprintf("resource %q from the document is still deferred in the graph", r.ID))
			} else {
				findings = append(findings,
					fmt.Sprintf("resource %q from the document is not in the graph", r.ID))
			}
			continue
		}

		expected := refs.Dependencies(r, doc)
		expected.Delete(r.ID)
		actualList, err := g.DependenciesOf(r.ID)
		if err != nil {
			continue
		}
		actual := sets.New[string](actualList...)

		for _, missing := range sets.List(expected.Difference(actual)) {
			findings = append(findings,
				fmt.Sprintf("graph is missing dependency edge %q -> %q implied by the document", r.ID, missing))
		}
		for _, extra := range sets.List(actual.Difference(expected)) {
			findings = append(findings,
				fmt.Sprintf("graph has dependency edge %q -> %q not implied by the document", r.ID, extra))
		}
	}

	for _, id := range g.Present() {
		if !doc.HasResource(id) {
			findings = append(findings,
				fmt.Sprintf("graph resource %q does not appear in the document", id))
		}
	}
	return findings
}
