package validate

import (
	"fmt"

	"github.com/vk/stackgraph/dag"
	"github.com/vk/stackgraph/refs"
	"github.com/vk/stackgraph/template"
)

// Document collects every dependency problem in the document: explicit
// declarations naming unknown ids, self-dependencies, Ref sites resolving
// to neither a resource nor a parameter, GetAttr sites resolving to no
// resource, and undeclared condition names. Findings come out in document
// order, one pass, nothing raised.
func Document(doc *template.Document) []string {
	if doc == nil {
		return nil
	}

	var findings []string
	for _, r := range doc.Resources() {
		for _, d := range dedupe(r.DependsOn) {
			if d == r.ID {
				findings = append(findings,
					fmt.Sprintf("resource %q declares a dependency on itself", r.ID))
				continue
			}
			if !doc.HasResource(d) {
				findings = append(findings,
					fmt.Sprintf("resource %q depends on non-existent identifier %q", r.ID, d))
			}
		}

		for _, ref := range refs.ExtractDetailed(r) {
			switch ref.Kind {
			case refs.KindRef:
				if !doc.HasResource(ref.Target) && !doc.HasParameter(ref.Target) {
					findings = append(findings,
						fmt.Sprintf("resource %q references undeclared identifier %q", r.ID, ref.Target))
				}
			case refs.KindGetAttr:
				if !doc.HasResource(ref.Target) {
					findings = append(findings,
						fmt.Sprintf("resource %q reads an attribute of non-existent resource %q", r.ID, ref.Target))
				}
			}
		}

		if r.Condition != "" && !doc.HasCondition(r.Condition) {
			findings = append(findings,
				fmt.Sprintf("resource %q uses undeclared condition %q", r.ID, r.Condition))
		}
	}
	return findings
}

// DetectCycles reports every dependency cycle in the document, built from
// the union of explicit declarations and scanned references across all
// resources, regardless of any insertion order. Self-dependencies are a
// separate Document finding and are not repeated here.
func DetectCycles(doc *template.Document) []string {
	if doc == nil {
		return nil
	}

	edges := make(map[string][]string)
	for _, r := range doc.Resources() {
		deps := refs.Dependencies(r, doc)
		deps.Delete(r.ID)
		edges[r.ID] = deps.UnsortedList()
	}

	var findings []string
	for _, cycle := range dag.FindCycles(edges) {
		findings = append(findings, (&dag.CycleError{Path: cycle}).Error())
	}
	return findings
}

// dedupe removes duplicate ids while preserving first-occurrence order, so
// a repeated bad declaration yields one finding, not several.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
