package template

import "k8s.io/apimachinery/pkg/util/sets"

// pseudoParameters are the reserved reference names resolved by the
// deployment environment rather than by anything declared in a document.
// A Ref to one of these is always considered resolvable and never becomes
// a dependency edge.
var pseudoParameters = sets.New[string](
	"AWS::AccountId",
	"AWS::NotificationARNs",
	"AWS::NoValue",
	"AWS::Partition",
	"AWS::Region",
	"AWS::StackId",
	"AWS::StackName",
	"AWS::URLSuffix",
)

// IsPseudoParameter reports whether name is one of the reserved
// pseudo-parameter names.
func IsPseudoParameter(name string) bool {
	return pseudoParameters.Has(name)
}

// PseudoParameters returns a copy of the reserved pseudo-parameter name set.
func PseudoParameters() sets.Set[string] {
	return pseudoParameters.Clone()
}
