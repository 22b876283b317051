package refs

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/vk/stackgraph/template"
)

// Kind classifies where a reference came from, which decides what it may
// legally resolve to: a Ref-site may name a resource or a parameter, a
// GetAttr-site must name a resource.
type Kind int

const (
	// KindRef is a plain reference, from a Ref marker or a bare `${Name}`
	// substitution placeholder.
	KindRef Kind = iota
	// KindGetAttr is an attribute read, from a GetAttr marker or a dotted
	// `${Name.Attr}` substitution placeholder.
	KindGetAttr
)

// String returns the kind's display name.
func (k Kind) String() string {
	switch k {
	case KindRef:
		return "Ref"
	case KindGetAttr:
		return "GetAttr"
	default:
		return "unknown"
	}
}

// Reference is a single scanned reference site, pointing at a target id.
type Reference struct {
	Target string
	Kind   Kind
}

// Extract returns the deduplicated set of ids referenced anywhere inside
// the resource's property tree. Pseudo-parameters are never included. The
// result is independent of traversal order.
func Extract(res *template.Resource) sets.Set[string] {
	out := sets.New[string]()
	for _, ref := range ExtractDetailed(res) {
		out.Insert(ref.Target)
	}
	return out
}

// ExtractDetailed is Extract with the reference kind preserved, for the
// validator. The result is deduplicated and sorted by target, then kind.
func ExtractDetailed(res *template.Resource) []Reference {
	if res == nil {
		return nil
	}

	seen := make(map[Reference]struct{})
	add := func(ref Reference) {
		seen[ref] = struct{}{}
	}
	walk(res.Properties, add)

	out := make([]Reference, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// walk recurses through a property tree, recognizing intrinsic markers and
// descending into every other collection shape.
func walk(v cty.Value, add func(Reference)) {
	if v.IsNull() || !v.IsKnown() {
		return
	}

	if key, inner, ok := singleKey(v); ok {
		handled := false
		switch key {
		case "Ref":
			handled = scanRef(inner, add)
		case "GetAttr":
			handled = scanGetAttr(inner, add)
		case "Sub":
			handled = scanSub(inner, add)
		}
		if handled {
			return
		}
		// A single-key mapping that is not a well-formed intrinsic is just
		// an ordinary mapping: fall through and recurse into it.
	}

	t := v.Type()
	if t.IsTupleType() || t.IsListType() || t.IsSetType() || t.IsMapType() || t.IsObjectType() {
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			walk(ev, add)
		}
	}
}

// singleKey returns the key and value of a single-entry mapping, the only
// shape an intrinsic marker can take.
func singleKey(v cty.Value) (string, cty.Value, bool) {
	if v.IsNull() || !v.IsKnown() {
		return "", cty.NilVal, false
	}
	t := v.Type()
	switch {
	case t.IsObjectType():
		atys := t.AttributeTypes()
		if len(atys) != 1 {
			return "", cty.NilVal, false
		}
		for name := range atys {
			return name, v.GetAttr(name), true
		}
	case t.IsMapType():
		if v.LengthInt() != 1 {
			return "", cty.NilVal, false
		}
		it := v.ElementIterator()
		it.Next()
		k, ev := it.Element()
		return k.AsString(), ev, true
	}
	return "", cty.NilVal, false
}

// isString reports whether v is a known, non-null string.
func isString(v cty.Value) bool {
	return !v.IsNull() && v.IsKnown() && v.Type() == cty.String
}
