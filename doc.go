// Package ddbgen is a schema compiler and code generator for wide-column
// data models. It loads a declarative description of tables, entities,
// secondary indexes, key templates and access patterns, validates it with
// accumulate-all diagnostics, resolves it into an intermediate model, and
// renders type-safe data-access code for a selected target language.
//
// The compilation pipeline is a strict sequence:
//
//	compiler/load  →  compiler/gen (validate)  →  compiler/gen (resolve)  →  backend render
//
// The root package holds the diagnostic types threaded through every stage,
// and the sentinel errors the pipeline reports to callers. Semantic schema
// violations are never Go errors: they accumulate in a Diagnostics collection
// so a user can fix a whole schema in one pass.
package ddbgen
