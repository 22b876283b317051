// Package refs implements the reference scanner: a pure function over a
// resource's property tree that finds implicit cross-resource references
// embedded in intrinsic markers (Ref, GetAttr, Sub).
//
// The scanner has no side effects and no graph awareness; both the
// validator and the dependency graph build on it.
package refs
