package dag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGraph submits the comma-separated nodes in order through the lenient
// path, with edges written as "dep->dependent".
func buildGraph(t *testing.T, nodes, edges string) *Graph {
	t.Helper()

	deps := make(map[string][]string)
	if edges != "" {
		for _, edge := range strings.Split(edges, ",") {
			tokens := strings.SplitN(edge, "->", 2)
			deps[tokens[1]] = append(deps[tokens[1]], tokens[0])
		}
	}

	g := New()
	for _, id := range strings.Split(nodes, ",") {
		_, err := g.AddLenient(tr(id), deps[id])
		require.NoError(t, err)
	}
	require.Zero(t, g.DeferredCount(), "test graph must fully resolve")
	return g
}

func TestDeploymentOrder(t *testing.T) {
	grid := []struct {
		nodes string
		edges string
		want  string
	}{
		{nodes: "A,B", want: "A,B"},
		{nodes: "A,B", edges: "A->B", want: "A,B"},
		{nodes: "A,B", edges: "B->A", want: "B,A"},
		{nodes: "Z,Y,X", want: "Z,Y,X"},
		{nodes: "A,B,C,D", edges: "A->B,A->C,B->D,C->D", want: "A,B,C,D"},
		{nodes: "A,B,C,D,E,F", edges: "F->A,F->B,B->A", want: "C,D,E,F,B,A"},
		{nodes: "A,B,C,D,E,F", edges: "B->A,C->A,D->B,D->C,F->E,A->E", want: "D,B,C,A,F,E"},
	}

	for i, tc := range grid {
		t.Run(fmt.Sprintf("[%d] nodes=%s,edges=%s", i, tc.nodes, tc.edges), func(t *testing.T) {
			g := buildGraph(t, tc.nodes, tc.edges)

			order, err := g.DeploymentOrder()
			require.NoError(t, err)
			assert.Equal(t, tc.want, strings.Join(order, ","))
			checkValidDeploymentOrder(t, g, order)
		})
	}
}

// checkValidDeploymentOrder asserts that every dependency precedes its
// dependents and that the order is a permutation of the present set.
func checkValidDeploymentOrder(t *testing.T, g *Graph, order []string) {
	t.Helper()

	require.Len(t, order, g.Len())
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	for _, id := range order {
		deps, err := g.DependenciesOf(id)
		require.NoError(t, err)
		for _, dep := range deps {
			assert.Less(t, pos[dep], pos[id],
				"dependency %s must precede %s in %v", dep, id, order)
		}
	}
}

func TestDeploymentOrderTieBreakBySubmission(t *testing.T) {
	// Independent resources come out in submission order, not id order.
	g := New()
	for _, id := range []string{"Gamma", "Alpha", "Beta"} {
		require.NoError(t, g.Add(tr(id), nil))
	}
	order, err := g.DeploymentOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, order)
}

func TestDeploymentOrderDetectsCycleDefensively(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(tr("A"), nil))
	require.NoError(t, g.Add(tr("B"), []string{"A"}))

	// Admission order makes a cycle impossible through the public API, so
	// emulate one by wiring the edge maps directly.
	g.nodes["A"].deps["B"] = g.nodes["B"]
	g.nodes["B"].dependents["A"] = g.nodes["A"]

	_, err := g.DeploymentOrder()
	require.Error(t, err)

	cycleErr := AsCycleError(err)
	require.NotNil(t, cycleErr)
	assert.Equal(t, "Circular dependency detected: A -> B -> A", cycleErr.Error())
}

func TestDeploymentOrderEmptyGraph(t *testing.T) {
	order, err := New().DeploymentOrder()
	require.NoError(t, err)
	assert.Empty(t, order)
}
