package dag

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/vk/stackgraph/refs"
	"github.com/vk/stackgraph/template"
)

// Graph is the dependency graph for one session. Construct a fresh Graph
// per editing or import session and discard it when the session ends.
type Graph struct {
	// nodes holds the present resources, keyed by id.
	nodes map[string]*node
	// order holds present ids in submission order; it is the deterministic
	// tie-break for DeploymentOrder.
	order []string
	// seq is the next submission sequence number.
	seq int

	// deferred is the FIFO queue of resources waiting on dependencies.
	deferred     []*deferredEntry
	deferredByID map[string]*deferredEntry
	// waiters indexes deferred entries by each id they are still missing,
	// so promotion is a worklist sweep rather than a re-scan of the queue.
	waiters map[string][]*deferredEntry
}

// node is a present resource together with its edges. Edges point both
// ways: deps are what this resource needs, dependents need this resource.
type node struct {
	id         string
	resource   *template.Resource
	seq        int
	deps       map[string]*node
	dependents map[string]*node
}

// deferredEntry is a submitted resource whose dependencies are not all
// present yet. It holds the full declared dependency set plus the subset
// still missing.
type deferredEntry struct {
	resource *template.Resource
	deps     []string
	missing  sets.Set[string]
	promoted bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:        make(map[string]*node),
		deferredByID: make(map[string]*deferredEntry),
		waiters:      make(map[string][]*deferredEntry),
	}
}

// Add inserts a resource strictly: every id in deps must already be
// present. On failure nothing is mutated.
func (g *Graph) Add(res *template.Resource, deps []string) error {
	if err := g.checkStructural(res, deps); err != nil {
		return err
	}
	for _, d := range dedupe(deps) {
		if _, ok := g.nodes[d]; !ok {
			return &MissingDependencyError{Resource: res.ID, Missing: d}
		}
	}
	g.insert(res, deps)
	return nil
}

// AddLenient inserts a resource, deferring it if any dependency is not yet
// present. A deferral is a normal outcome, not an error: the return value
// is 0 and the resource waits in the queue. When every dependency is
// present the resource is admitted immediately and every deferred entry it
// (transitively) unblocks is promoted in the same call; the return value is
// the total number of resources promoted, including this one.
//
// Structural problems (duplicate id, self-dependency) still fail.
func (g *Graph) AddLenient(res *template.Resource, deps []string) (int, error) {
	if err := g.checkStructural(res, deps); err != nil {
		return 0, err
	}

	missing := sets.New[string]()
	for _, d := range deps {
		if _, ok := g.nodes[d]; !ok {
			missing.Insert(d)
		}
	}

	if missing.Len() == 0 {
		g.insert(res, deps)
		promoted := 1 + g.promoteWaiters(res.ID)
		g.compactDeferred()
		return promoted, nil
	}

	entry := &deferredEntry{
		resource: res,
		deps:     dedupe(deps),
		missing:  missing,
	}
	g.deferred = append(g.deferred, entry)
	g.deferredByID[res.ID] = entry
	for m := range missing {
		g.waiters[m] = append(g.waiters[m], entry)
	}
	return 0, nil
}

// SettleDeferred re-sweeps the whole deferred queue to a fixed point,
// promoting every entry whose dependencies have become present by any
// path, including strict Add calls that bypass the lenient bookkeeping.
// Entries that remain unresolvable simply stay deferred; that is never an
// error.
func (g *Graph) SettleDeferred() int {
	count := 0
	for _, entry := range g.deferred {
		if entry.promoted {
			continue
		}
		for _, d := range entry.missing.UnsortedList() {
			if _, ok := g.nodes[d]; ok {
				entry.missing.Delete(d)
			}
		}
		if entry.missing.Len() == 0 {
			g.promote(entry)
			count++
			count += g.promoteWaiters(entry.resource.ID)
		}
	}
	g.compactDeferred()
	return count
}

// AddWithDocument inserts a resource strictly, computing its full
// dependency set from the document: the explicit declaration united with
// every scanned reference, narrowed to ids the document actually declares
// as resources. Resources must arrive in a topologically valid order.
func (g *Graph) AddWithDocument(res *template.Resource, doc *template.Document) error {
	if res == nil {
		return fmt.Errorf("resource is nil")
	}
	return g.Add(res, sets.List(refs.Dependencies(res, doc)))
}

// Present returns the present resource ids in submission order.
func (g *Graph) Present() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Contains reports whether the id is present. Deferred ids are not present.
func (g *Graph) Contains(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of present resources.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// DeferredCount returns the number of resources waiting in the deferred
// queue.
func (g *Graph) DeferredCount() int {
	return len(g.deferredByID)
}

// DeferredIDs returns the deferred resource ids in deferral (FIFO) order.
func (g *Graph) DeferredIDs() []string {
	out := make([]string, 0, len(g.deferredByID))
	for _, entry := range g.deferred {
		if !entry.promoted {
			out = append(out, entry.resource.ID)
		}
	}
	return out
}

// DependenciesOf returns the sorted dependency ids of a present resource.
func (g *Graph) DependenciesOf(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("resource not found: %s", id)
	}
	deps := sets.New[string]()
	for depID := range n.deps {
		deps.Insert(depID)
	}
	return sets.List(deps), nil
}

// DependentsOf returns the sorted ids of present resources that depend on
// the given resource.
func (g *Graph) DependentsOf(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("resource not found: %s", id)
	}
	dependents := sets.New[string]()
	for depID := range n.dependents {
		dependents.Insert(depID)
	}
	return sets.List(dependents), nil
}

// Resource returns the present resource with the given id, if any.
func (g *Graph) Resource(id string) (*template.Resource, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return n.resource, true
}

// checkStructural rejects submissions that can never be admitted: a nil or
// unnamed resource, an id already present or deferred, or a declared
// dependency on itself.
func (g *Graph) checkStructural(res *template.Resource, deps []string) error {
	if res == nil {
		return fmt.Errorf("resource is nil")
	}
	if res.ID == "" {
		return fmt.Errorf("resource id is empty")
	}
	if _, ok := g.nodes[res.ID]; ok {
		return &DuplicateResourceError{ID: res.ID}
	}
	if _, ok := g.deferredByID[res.ID]; ok {
		return &DuplicateResourceError{ID: res.ID}
	}
	for _, d := range deps {
		if d == res.ID {
			return &SelfDependencyError{ID: res.ID}
		}
	}
	return nil
}

// insert admits a resource whose dependencies are all present, wiring the
// edges in both directions.
func (g *Graph) insert(res *template.Resource, deps []string) {
	n := &node{
		id:         res.ID,
		resource:   res,
		seq:        g.seq,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.seq++
	for _, d := range dedupe(deps) {
		depNode := g.nodes[d]
		n.deps[d] = depNode
		depNode.dependents[res.ID] = n
	}
	g.nodes[res.ID] = n
	g.order = append(g.order, res.ID)
}

// promote admits a deferred entry whose missing set has emptied.
func (g *Graph) promote(entry *deferredEntry) {
	g.insert(entry.resource, entry.deps)
	entry.promoted = true
	delete(g.deferredByID, entry.resource.ID)
}

// promoteWaiters runs the promotion worklist seeded with a newly present
// id: every deferred entry waiting on it has the id struck from its missing
// set, and entries whose missing set empties are admitted and become new
// work themselves. Returns the number of entries promoted.
func (g *Graph) promoteWaiters(id string) int {
	count := 0
	work := []string{id}
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		entries := g.waiters[cur]
		delete(g.waiters, cur)
		for _, entry := range entries {
			if entry.promoted {
				continue
			}
			entry.missing.Delete(cur)
			if entry.missing.Len() == 0 {
				g.promote(entry)
				count++
				work = append(work, entry.resource.ID)
			}
		}
	}
	return count
}

// compactDeferred drops promoted entries from the FIFO queue, preserving
// the relative order of those still waiting.
func (g *Graph) compactDeferred() {
	kept := g.deferred[:0]
	for _, entry := range g.deferred {
		if !entry.promoted {
			kept = append(kept, entry)
		}
	}
	for i := len(kept); i < len(g.deferred); i++ {
		g.deferred[i] = nil
	}
	g.deferred = kept
}

// dedupe removes duplicate ids while preserving first-occurrence order.
func dedupe(ids []string) []string {
	seen := sets.New[string]()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen.Has(id) {
			continue
		}
		seen.Insert(id)
		out = append(out, id)
	}
	return out
}
