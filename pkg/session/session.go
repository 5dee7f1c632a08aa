// Package session provides the high-level API for administering one data
// contribution: validate, repair, query, accept, and finish.
//
// # Quick Start
//
//	s, err := session.Open(session.Config{
//	    MetaFile:   "contribution.tsv",
//	    SchemaFile: "schema.yaml",
//	    LookupDir:  "lookups",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report := s.Validate()
//	for _, f := range report.Findings() {
//	    fmt.Println(f)
//	}
//
//	// Repair a cell and re-check only what was touched.
//	report, _, err = s.Fix(repair.Fix{
//	    Column:   "Country",
//	    Selector: repair.Selector{Key: "test_a1"},
//	    Value:    "Germany",
//	})
//
// A Session owns its row store and is not safe for concurrent use. The
// schema and lookup tables it references are read-only and may be shared
// across any number of concurrent sessions.
package session

import (
	"github.com/pkg/errors"

	"github.com/empd2/empd-admin/pkg/merge"
	"github.com/empd2/empd-admin/pkg/query"
	"github.com/empd2/empd-admin/pkg/repair"
	_ "github.com/empd2/empd-admin/pkg/rules"
	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
	"github.com/empd2/empd-admin/pkg/validator"
)

// Config names the files a session is loaded from.
type Config struct {
	// MetaFile is the tab-separated working contribution.
	MetaFile string
	// SchemaFile is the YAML column definition file.
	SchemaFile string
	// LookupDir holds the controlled-vocabulary tables.
	LookupDir string
}

// Session holds the state of one contribution review: the immutable
// schema and lookup tables, the mutable row store, and the report of the
// last validation pass.
type Session struct {
	schema  *schema.Schema
	lookups schema.LookupTables
	store   *store.Store
	report  *types.Report
}

// Open loads lookup tables, schema, and the working table, and fails fast
// on schema errors or duplicate row keys.
func Open(cfg Config) (*Session, error) {
	lookups, err := schema.LoadLookupTables(cfg.LookupDir)
	if err != nil {
		return nil, err
	}
	sch, err := schema.Load(cfg.SchemaFile, lookups)
	if err != nil {
		return nil, err
	}
	st, err := store.LoadFile(cfg.MetaFile, sch.KeyColumn)
	if err != nil {
		return nil, err
	}
	return New(sch, lookups, st)
}

// New builds a session from already-loaded components. The schema's
// cross-column checks must all be registered.
func New(sch *schema.Schema, lookups schema.LookupTables, st *store.Store) (*Session, error) {
	for _, check := range sch.Checks {
		if !validator.HasCross(check) {
			return nil, &schema.Error{Message: "unknown cross-column check " + check}
		}
	}
	return &Session{schema: sch, lookups: lookups, store: st}, nil
}

// Schema returns the session's schema.
func (s *Session) Schema() *schema.Schema {
	return s.schema
}

// Store returns the session's row store.
func (s *Session) Store() *store.Store {
	return s.store
}

// Report returns the report of the last validation pass, or nil if the
// session has not validated yet.
func (s *Session) Report() *types.Report {
	return s.report
}

// Validate runs a full validation pass and makes its report current.
func (s *Session) Validate() *types.Report {
	s.store.TakeDirty()
	s.report = validator.Validate(s.store, s.schema, s.lookups, nil)
	return s.report
}

// Revalidate re-checks only the given cells and merges the outcome into
// the current report. Without a prior report it falls back to a full pass.
func (s *Session) Revalidate(scope map[types.Cell]struct{}) *types.Report {
	if s.report == nil {
		return s.Validate()
	}
	partial := validator.Validate(s.store, s.schema, s.lookups, scope)
	s.report.Replace(scope, partial.Findings())
	return s.report
}

// Fix applies a repair operation and incrementally re-validates the
// touched cells. It returns the updated report and the touched set.
func (s *Session) Fix(fix repair.Fix) (*types.Report, map[types.Cell]struct{}, error) {
	touched, err := repair.Apply(s.store, s.schema, fix)
	if err != nil {
		return nil, nil, err
	}
	return s.Revalidate(touched), touched, nil
}

// Query evaluates a predicate and projection against the store. It never
// mutates session state.
func (s *Session) Query(predicate string, columns []string) (*query.Result, error) {
	return query.Evaluate(s.store, s.schema, query.Query{
		Predicate: predicate,
		Columns:   columns,
	})
}

// Finish validates the working table (full pass) and merges it into the
// given base table. The merged result is returned ready for serialization;
// the session keeps its own store untouched.
func (s *Session) Finish(base *store.Store) (*store.Store, error) {
	report := s.Validate()
	merged, err := merge.Merge(base, s.store, report)
	if err != nil {
		return nil, errors.Wrap(err, "finish failed")
	}
	return merged, nil
}
