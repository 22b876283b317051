package refs

import (
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/vk/stackgraph/template"
)

// scanRef handles `{"Ref": name}`. Pseudo-parameters resolve in the
// environment, so they never become references.
func scanRef(inner cty.Value, add func(Reference)) bool {
	if !isString(inner) {
		return false
	}
	name := inner.AsString()
	if name == "" {
		return true
	}
	if !template.IsPseudoParameter(name) {
		add(Reference{Target: name, Kind: KindRef})
	}
	return true
}

// scanGetAttr handles `{"GetAttr": [name, attribute]}` and the shorthand
// string form `"name.attribute"`.
func scanGetAttr(inner cty.Value, add func(Reference)) bool {
	if isString(inner) {
		name, _, found := strings.Cut(inner.AsString(), ".")
		if found && name != "" {
			add(Reference{Target: name, Kind: KindGetAttr})
		}
		return true
	}

	t := inner.Type()
	if inner.IsNull() || !inner.IsKnown() || !(t.IsTupleType() || t.IsListType()) {
		return false
	}
	it := inner.ElementIterator()
	if !it.Next() {
		return true
	}
	_, first := it.Element()
	if isString(first) && first.AsString() != "" {
		add(Reference{Target: first.AsString(), Kind: KindGetAttr})
	}
	return true
}

// subPlaceholder matches `${...}` placeholders inside a substitution
// template string.
var subPlaceholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// scanSub handles `{"Sub": template}` and `{"Sub": [template, varmap]}`.
// Placeholders shadowed by varmap keys are not references, but every varmap
// value is itself a property tree and is recursed in full.
func scanSub(inner cty.Value, add func(Reference)) bool {
	if isString(inner) {
		scanSubTemplate(inner.AsString(), nil, add)
		return true
	}

	t := inner.Type()
	if inner.IsNull() || !inner.IsKnown() || !(t.IsTupleType() || t.IsListType()) {
		return false
	}

	var tmpl string
	haveTmpl := false
	shadow := sets.New[string]()

	it := inner.ElementIterator()
	for i := 0; it.Next(); i++ {
		_, ev := it.Element()
		switch i {
		case 0:
			if !isString(ev) {
				return false
			}
			tmpl = ev.AsString()
			haveTmpl = true
		case 1:
			key, vals, ok := mapEntries(ev)
			if !ok {
				return false
			}
			shadow = key
			for _, val := range vals {
				walk(val, add)
			}
		default:
			return false
		}
	}
	if !haveTmpl {
		return true
	}
	scanSubTemplate(tmpl, shadow, add)
	return true
}

// scanSubTemplate scans a template string for `${Name}` / `${Name.Attr}`
// placeholders. `${!...}` is a literal escape and is skipped, as is any
// placeholder whose name (or dotted base) appears in the shadow set.
func scanSubTemplate(tmpl string, shadow sets.Set[string], add func(Reference)) {
	for _, m := range subPlaceholder.FindAllStringSubmatch(tmpl, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || strings.HasPrefix(name, "!") {
			continue
		}
		if shadow.Has(name) {
			continue
		}
		base, _, dotted := strings.Cut(name, ".")
		if base == "" || shadow.Has(base) {
			continue
		}
		if template.IsPseudoParameter(name) || template.IsPseudoParameter(base) {
			continue
		}
		kind := KindRef
		if dotted {
			kind = KindGetAttr
		}
		add(Reference{Target: base, Kind: kind})
	}
}

// mapEntries flattens an object or map value into its key set and values.
func mapEntries(v cty.Value) (sets.Set[string], []cty.Value, bool) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil, false
	}
	t := v.Type()
	if !t.IsObjectType() && !t.IsMapType() {
		return nil, nil, false
	}
	keys := sets.New[string]()
	var vals []cty.Value
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		keys.Insert(k.AsString())
		vals = append(vals, ev)
	}
	return keys, vals, true
}
