package session

import (
	"sort"
	"strings"

	"github.com/empd2/empd-admin/pkg/query"
	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

// AllSamples is the selector value accepting a column for every row.
const AllSamples = "all"

// Accept marks the given column as accepted for the selected sample (or
// every sample when key is AllSamples) by extending the okexcept list.
// The validator then suppresses findings for that column. Accepting an
// already-accepted column is a no-op, so Accept is idempotent.
func (s *Session) Accept(key, column string) (map[types.Cell]struct{}, error) {
	keys, err := s.sampleKeys(key)
	if err != nil {
		return nil, err
	}
	return s.editOkExcept(keys, column, true)
}

// Unaccept removes a column from the okexcept list of the selected sample
// (or every sample when key is AllSamples), re-exposing its findings.
func (s *Session) Unaccept(key, column string) (map[types.Cell]struct{}, error) {
	keys, err := s.sampleKeys(key)
	if err != nil {
		return nil, err
	}
	return s.editOkExcept(keys, column, false)
}

// AcceptWhere accepts the column for every row matching a predicate in the
// query language, evaluated against the current table state.
func (s *Session) AcceptWhere(where, column string) (map[types.Cell]struct{}, error) {
	keys, err := query.Matches(s.store, s.schema, where)
	if err != nil {
		return nil, err
	}
	return s.editOkExcept(keys, column, true)
}

// UnacceptWhere removes the column from the okexcept list of every row
// matching the predicate.
func (s *Session) UnacceptWhere(where, column string) (map[types.Cell]struct{}, error) {
	keys, err := query.Matches(s.store, s.schema, where)
	if err != nil {
		return nil, err
	}
	return s.editOkExcept(keys, column, false)
}

func (s *Session) sampleKeys(key string) ([]string, error) {
	if key == AllSamples {
		return s.store.Keys(), nil
	}
	if !s.store.Has(key) {
		return nil, &store.NotFoundError{Key: key}
	}
	return []string{key}, nil
}

func (s *Session) editOkExcept(keys []string, column string, add bool) (map[types.Cell]struct{}, error) {
	if s.schema.Column(column) == nil {
		return nil, &types.UnknownColumnError{Column: column}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	s.store.EnsureColumn(schema.OkExceptColumn)
	touched := make(map[types.Cell]struct{})
	for _, k := range keys {
		old, err := s.store.Get(k, schema.OkExceptColumn)
		if err != nil {
			return nil, err
		}
		updated := editList(old, column, add)
		if updated == old {
			continue
		}
		if err := s.store.Set(k, schema.OkExceptColumn, updated); err != nil {
			return nil, err
		}
		// Re-check the whole row: suppression affects the accepted
		// column, not just the okexcept cell.
		touched[types.Cell{RowKey: k, Column: column}] = struct{}{}
		touched[types.Cell{RowKey: k, Column: schema.OkExceptColumn}] = struct{}{}
	}
	if s.report != nil && len(touched) > 0 {
		s.Revalidate(touched)
	}
	return touched, nil
}

// editList adds column to or removes it from a comma-separated list,
// returning the entries sorted and deduplicated.
func editList(raw, column string, add bool) string {
	set := make(map[string]struct{})
	for _, c := range strings.Split(raw, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			set[c] = struct{}{}
		}
	}
	if add {
		set[column] = struct{}{}
	} else {
		delete(set, column)
	}
	entries := make([]string, 0, len(set))
	for c := range set {
		entries = append(entries, c)
	}
	sort.Strings(entries)
	return strings.Join(entries, ",")
}
