package dag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stackgraph/template"
)

func tr(id string) *template.Resource {
	return &template.Resource{ID: id, Type: "Test::Resource"}
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Empty(t, g.Present())
	assert.Zero(t, g.DeferredCount())
	assert.Zero(t, g.Len())
}

func TestAddStrict(t *testing.T) {
	t.Run("success records edges both ways", func(t *testing.T) {
		g := New()
		require.NoError(t, g.Add(tr("A"), nil))
		require.NoError(t, g.Add(tr("B"), []string{"A"}))

		deps, err := g.DependenciesOf("B")
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, deps)

		dependents, err := g.DependentsOf("A")
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, dependents)
	})

	t.Run("missing dependency fails without mutation", func(t *testing.T) {
		g := New()
		err := g.Add(tr("B"), []string{"A"})

		var missingErr *MissingDependencyError
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, "B", missingErr.Resource)
		assert.Equal(t, "A", missingErr.Missing)

		assert.False(t, g.Contains("B"))
		assert.Zero(t, g.Len())
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		g := New()
		require.NoError(t, g.Add(tr("A"), nil))
		err := g.Add(tr("A"), nil)

		var dupErr *DuplicateResourceError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "A", dupErr.ID)
	})

	t.Run("self dependency is rejected", func(t *testing.T) {
		g := New()
		err := g.Add(tr("A"), []string{"A"})

		var selfErr *SelfDependencyError
		require.ErrorAs(t, err, &selfErr)
		assert.Equal(t, "A", selfErr.ID)
	})

	t.Run("nil and unnamed resources are rejected", func(t *testing.T) {
		g := New()
		assert.Error(t, g.Add(nil, nil))
		assert.Error(t, g.Add(&template.Resource{}, nil))
	})

	t.Run("duplicate dependency ids collapse to one edge", func(t *testing.T) {
		g := New()
		require.NoError(t, g.Add(tr("A"), nil))
		require.NoError(t, g.Add(tr("B"), []string{"A", "A"}))
		deps, err := g.DependenciesOf("B")
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, deps)
	})
}

func TestAddLenient(t *testing.T) {
	t.Run("deferral is not an error", func(t *testing.T) {
		g := New()
		promoted, err := g.AddLenient(tr("R"), []string{"A", "B"})
		require.NoError(t, err)
		assert.Zero(t, promoted)
		assert.Equal(t, 1, g.DeferredCount())
		assert.Equal(t, []string{"R"}, g.DeferredIDs())
		assert.False(t, g.Contains("R"))
	})

	t.Run("promotion once all dependencies arrive, in either order", func(t *testing.T) {
		for _, order := range [][]string{{"A", "B"}, {"B", "A"}} {
			g := New()
			promoted, err := g.AddLenient(tr("R"), []string{"A", "B"})
			require.NoError(t, err)
			require.Zero(t, promoted)

			first, err := g.AddLenient(tr(order[0]), nil)
			require.NoError(t, err)
			assert.Equal(t, 1, first, "first dependency must not unblock R yet")
			assert.Equal(t, 1, g.DeferredCount())

			second, err := g.AddLenient(tr(order[1]), nil)
			require.NoError(t, err)
			assert.Equal(t, 2, second, "second dependency promotes itself and R")

			assert.Zero(t, g.DeferredCount())
			assert.Contains(t, g.Present(), "R")

			deps, err := g.DependenciesOf("R")
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "B"}, deps)
		}
	})

	t.Run("transitive promotion in a single call", func(t *testing.T) {
		g := New()
		_, err := g.AddLenient(tr("Z"), []string{"Y"})
		require.NoError(t, err)
		_, err = g.AddLenient(tr("Y"), []string{"X"})
		require.NoError(t, err)
		assert.Equal(t, 2, g.DeferredCount())

		promoted, err := g.AddLenient(tr("X"), nil)
		require.NoError(t, err)
		assert.Equal(t, 3, promoted, "X unblocks Y which unblocks Z")
		assert.Zero(t, g.DeferredCount())
	})

	t.Run("structural problems still fail", func(t *testing.T) {
		g := New()
		_, err := g.AddLenient(tr("R"), []string{"R"})
		var selfErr *SelfDependencyError
		assert.ErrorAs(t, err, &selfErr)

		_, err = g.AddLenient(tr("R"), []string{"A"})
		require.NoError(t, err)
		_, err = g.AddLenient(tr("R"), []string{"A"})
		var dupErr *DuplicateResourceError
		assert.ErrorAs(t, err, &dupErr, "re-submitting a deferred id is a duplicate")

		require.NoError(t, g.Add(tr("P"), nil))
		_, err = g.AddLenient(tr("P"), nil)
		assert.ErrorAs(t, err, &dupErr, "re-submitting a present id is a duplicate")
	})

	t.Run("deferred ids keep FIFO order", func(t *testing.T) {
		g := New()
		for _, id := range []string{"Third", "First", "Second"} {
			_, err := g.AddLenient(tr(id), []string{"Never"})
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"Third", "First", "Second"}, g.DeferredIDs())
	})
}

func TestSettleDeferred(t *testing.T) {
	t.Run("picks up resources added through the strict path", func(t *testing.T) {
		g := New()
		_, err := g.AddLenient(tr("R"), []string{"A"})
		require.NoError(t, err)

		// Strict Add bypasses the lenient bookkeeping entirely.
		require.NoError(t, g.Add(tr("A"), nil))
		assert.Equal(t, 1, g.DeferredCount())

		assert.Equal(t, 1, g.SettleDeferred())
		assert.Zero(t, g.DeferredCount())
		assert.True(t, g.Contains("R"))
	})

	t.Run("cascades through the queue to a fixed point", func(t *testing.T) {
		g := New()
		_, err := g.AddLenient(tr("C"), []string{"B"})
		require.NoError(t, err)
		_, err = g.AddLenient(tr("B"), []string{"A"})
		require.NoError(t, err)
		require.NoError(t, g.Add(tr("A"), nil))

		assert.Equal(t, 2, g.SettleDeferred())
		assert.Zero(t, g.DeferredCount())
	})

	t.Run("unresolvable entries stay deferred forever, silently", func(t *testing.T) {
		g := New()
		// A cycle built entirely out of deferred entries never promotes
		// and never errors.
		_, err := g.AddLenient(tr("A"), []string{"B"})
		require.NoError(t, err)
		_, err = g.AddLenient(tr("B"), []string{"A"})
		require.NoError(t, err)

		assert.Zero(t, g.SettleDeferred())
		assert.Zero(t, g.SettleDeferred())
		assert.Equal(t, []string{"A", "B"}, g.DeferredIDs())
		assert.Empty(t, g.Present())
	})
}

func TestAddWithDocument(t *testing.T) {
	doc := template.NewDocument()
	require.NoError(t, doc.AddResource(&template.Resource{ID: "Bucket"}))
	require.NoError(t, doc.AddResource(&template.Resource{ID: "Role"}))
	doc.AddParameter("Environment")

	fn := &template.Resource{
		ID:        "Function",
		DependsOn: []string{"Bucket"},
		Properties: cty.ObjectVal(map[string]cty.Value{
			"RoleArn": cty.ObjectVal(map[string]cty.Value{"GetAttr": cty.StringVal("Role.Arn")}),
			"Env":     cty.ObjectVal(map[string]cty.Value{"Ref": cty.StringVal("Environment")}),
		}),
	}
	require.NoError(t, doc.AddResource(fn))

	t.Run("requires topologically valid submission order", func(t *testing.T) {
		g := New()
		err := g.AddWithDocument(fn, doc)
		var missingErr *MissingDependencyError
		assert.ErrorAs(t, err, &missingErr)
	})

	t.Run("wires explicit and scanned dependencies", func(t *testing.T) {
		g := New()
		for _, id := range []string{"Bucket", "Role"} {
			r, ok := doc.Resource(id)
			require.True(t, ok)
			require.NoError(t, g.AddWithDocument(r, doc))
		}
		require.NoError(t, g.AddWithDocument(fn, doc))

		deps, err := g.DependenciesOf("Function")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bucket", "Role"}, deps,
			"parameter references must not become edges")
	})
}

func TestPresentOrderAndIntrospection(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(tr("B"), nil))
	require.NoError(t, g.Add(tr("A"), nil))
	require.NoError(t, g.Add(tr("C"), []string{"A", "B"}))

	assert.Equal(t, []string{"B", "A", "C"}, g.Present())
	assert.Equal(t, 3, g.Len())

	_, err := g.DependenciesOf("Nope")
	assert.Error(t, err)
	_, err = g.DependentsOf("Nope")
	assert.Error(t, err)

	r, ok := g.Resource("A")
	require.True(t, ok)
	assert.Equal(t, "A", r.ID)
	_, ok = g.Resource("Nope")
	assert.False(t, ok)
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&MissingDependencyError{Resource: "B", Missing: "A"}, `resource "B" depends on missing resource "A"`},
		{&DuplicateResourceError{ID: "A"}, `resource "A" is already in the graph`},
		{&SelfDependencyError{ID: "A"}, `resource "A" declares a dependency on itself`},
		{&CycleError{Path: []string{"A", "B", "C"}}, "Circular dependency detected: A -> B -> C -> A"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%T", tc.err), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}

	t.Run("AsCycleError", func(t *testing.T) {
		err := fmt.Errorf("ordering failed: %w", &CycleError{Path: []string{"A", "B"}})
		require.NotNil(t, AsCycleError(err))
		assert.Nil(t, AsCycleError(errors.New("something else")))
	})
}
