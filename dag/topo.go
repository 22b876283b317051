package dag

import (
	"container/heap"

	"k8s.io/apimachinery/pkg/util/sets"
)

// DeploymentOrder returns a total order over the present resource ids in
// which every dependency precedes its dependents. When several valid
// orderings exist, ties are broken deterministically: among the resources
// that are ready at each step, the one submitted earliest goes first.
//
// The present subgraph is acyclic by construction, but a cycle is checked
// for defensively; if one is somehow found, a CycleError naming its path
// is returned.
func (g *Graph) DeploymentOrder() ([]string, error) {
	indeg := make(map[string]int, len(g.nodes))
	for id, n := range g.nodes {
		indeg[id] = len(n.deps)
	}

	ready := &seqHeap{}
	heap.Init(ready)
	for _, id := range g.order {
		if indeg[id] == 0 {
			heap.Push(ready, g.nodes[id])
		}
	}

	out := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		out = append(out, n.id)
		for _, dependent := range n.dependents {
			indeg[dependent.id]--
			if indeg[dependent.id] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(out) == len(g.nodes) {
		return out, nil
	}

	// Some nodes were never ready, so the present subgraph has a cycle.
	placed := sets.New[string](out...)
	residual := make(map[string][]string)
	for id, n := range g.nodes {
		if placed.Has(id) {
			continue
		}
		for depID := range n.deps {
			if !placed.Has(depID) {
				residual[id] = append(residual[id], depID)
			}
		}
	}
	cycles := FindCycles(residual)
	if len(cycles) == 0 {
		// Unreachable: leftover nodes without a cycle cannot happen.
		return nil, &CycleError{Path: sets.List(sets.KeySet(residual))}
	}
	return nil, &CycleError{Path: cycles[0]}
}

// seqHeap is a min-heap of nodes ordered by submission sequence. It makes
// the topological sort's tie-break stable and independent of map iteration
// order.
type seqHeap []*node

func (h seqHeap) Len() int           { return len(h) }
func (h seqHeap) Less(i, j int) bool { return h[i].seq < h[j].seq }
func (h seqHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *seqHeap) Push(x any) {
	*h = append(*h, x.(*node))
}

func (h *seqHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}
