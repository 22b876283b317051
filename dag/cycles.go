package dag

import (
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"
)

// colour values for the depth-first cycle scan.
const (
	white = iota // unvisited
	gray         // on the active path
	black        // settled
)

// FindCycles scans a dependency mapping (id -> ids it depends on) and
// returns every cycle found, each as its member ids in dependency order
// without the closing repeat. Disjoint cycles are all reported in one call.
//
// The scan is an iterative depth-first traversal with an explicit work
// stack, so arbitrarily deep chains cannot overflow the goroutine stack.
// Roots and neighbours are visited in sorted order, making the result
// deterministic for a given input. Edges to ids absent from the mapping
// are treated as leaves. Runs in O(nodes + edges).
func FindCycles(deps map[string][]string) [][]string {
	adjacency := make(map[string][]string, len(deps))
	for id, ds := range deps {
		sorted := sets.List(sets.New[string](ds...))
		adjacency[id] = sorted
	}

	roots := sets.List(sets.KeySet(deps))

	colours := make(map[string]int)
	var cycles [][]string

	type frame struct {
		id   string
		next int
	}

	for _, root := range roots {
		if colours[root] != white {
			continue
		}

		stack := []frame{{id: root}}
		path := []string{root}
		pathIndex := map[string]int{root: 0}
		colours[root] = gray

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			neighbours := adjacency[f.id]

			if f.next < len(neighbours) {
				n := neighbours[f.next]
				f.next++

				switch colours[n] {
				case white:
					colours[n] = gray
					stack = append(stack, frame{id: n})
					pathIndex[n] = len(path)
					path = append(path, n)
				case gray:
					// Back-edge into the active path: the cycle is the path
					// from the re-entered node down to here.
					cycle := make([]string, len(path)-pathIndex[n])
					copy(cycle, path[pathIndex[n]:])
					cycles = append(cycles, cycle)
				}
			} else {
				colours[f.id] = black
				delete(pathIndex, f.id)
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})
	return cycles
}
