// Package pkg provides the validation, repair, query, and merge engine
// behind the empd-admin contribution workflow.
//
// # Package Structure
//
//   - session: high-level API for one contribution review (recommended starting point)
//   - schema: declarative column definitions and lookup tables
//   - store: in-memory row store with tab-separated round-trip I/O
//   - validator: rule execution engine and registration system
//   - rules: concrete per-cell and cross-column rule implementations
//   - repair: targeted fix operations over selected rows
//   - query: restricted predicate language over the row store
//   - diff: cell-level comparison of two metadata tables
//   - merge: reconciliation of a working table into the canonical base
//   - report: markdown rendering of findings and query results
//   - types: core shared type definitions
//   - logger: logging abstraction layer
//
// # Getting Started
//
// For most use cases, start with the session package:
//
//	import (
//	    "github.com/empd2/empd-admin/pkg/session"
//	)
//
//	func main() {
//	    s, err := session.Open(session.Config{
//	        MetaFile:   "contribution.tsv",
//	        SchemaFile: "schema.yaml",
//	        LookupDir:  "lookups",
//	    })
//	    report := s.Validate()
//	    // Inspect findings, fix, query, finish...
//	}
package pkg
