package refs

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/vk/stackgraph/template"
)

// Dependencies computes a resource's full dependency set against a
// document: the explicit declaration united with every scanned reference,
// narrowed to ids the document declares as resources. References to
// parameters or to undeclared ids are not dependencies; whether they are
// legal is the validator's concern, not the graph's.
//
// A scanned reference to the resource's own id is dropped, so a resolved
// dependency set never contains its owner. An explicit self-declaration is
// kept: the graph must reject it, not silently repair it.
func Dependencies(res *template.Resource, doc *template.Document) sets.Set[string] {
	out := sets.New[string]()
	if res == nil || doc == nil {
		return out
	}
	for _, d := range res.DependsOn {
		if d == res.ID || doc.HasResource(d) {
			out.Insert(d)
		}
	}
	for target := range Extract(res) {
		if target != res.ID && doc.HasResource(target) {
			out.Insert(target)
		}
	}
	return out
}
