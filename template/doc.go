// Package template defines the format-agnostic document model for an
// infrastructure template: named resources with typed property trees,
// plus the identities of declared parameters and conditions.
//
// The `template.Document` is the single source of truth for the `refs`,
// `validate` and `builder` packages. Parsing a concrete text format into
// this model is the job of an external loader and is out of scope here.
package template
