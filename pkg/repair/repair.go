// Package repair applies targeted fix operations to a row store: one
// column, a selected row subset, a literal value or a named transform.
//
// The engine only mutates; it never validates. After a successful Apply
// the caller re-runs the validator with the returned touched set as scope.
package repair

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/empd2/empd-admin/pkg/query"
	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

// Selector picks the rows a fix applies to: either one explicit row key or
// a predicate in the query language, evaluated against pre-fix state.
// Exactly one field must be set.
type Selector struct {
	Key   string
	Where string
}

// Transform is a named idempotent value function.
type Transform string

const (
	// TransformTrim strips surrounding whitespace from the cell.
	TransformTrim Transform = "trim"
	// TransformClear empties the cell.
	TransformClear Transform = "clear"
)

var transforms = map[Transform]func(string) string{
	TransformTrim:  strings.TrimSpace,
	TransformClear: func(string) string { return "" },
}

// Fix is one targeted mutation: the column to change, the rows to change
// it for, and either a literal replacement value or a transform.
type Fix struct {
	Column    string
	Selector  Selector
	Value     string
	Transform Transform // takes precedence over Value when set
}

// Apply mutates the store and returns the set of touched cells. The
// target column must be declared in the schema or already present as a
// passthrough column; otherwise Apply fails with
// *types.UnknownColumnError. Predicate selectors are resolved in full
// before the first mutation, so fixes within one operation never see each
// other's effects.
func Apply(st *store.Store, sch *schema.Schema, fix Fix) (map[types.Cell]struct{}, error) {
	inSchema := sch.Column(fix.Column) != nil
	if !inSchema && !st.HasColumn(fix.Column) {
		return nil, &types.UnknownColumnError{Column: fix.Column}
	}

	var fn func(string) string
	if fix.Transform != "" {
		var ok bool
		if fn, ok = transforms[fix.Transform]; !ok {
			return nil, errors.Errorf("unknown transform %q", fix.Transform)
		}
	}

	keys, err := selectKeys(st, sch, fix.Selector)
	if err != nil {
		return nil, err
	}

	// A schema column may be absent from the submitted sheet; the fix
	// introduces it.
	if inSchema {
		st.EnsureColumn(fix.Column)
	}

	touched := make(map[types.Cell]struct{}, len(keys))
	for _, key := range keys {
		value := fix.Value
		if fn != nil {
			old, err := st.Get(key, fix.Column)
			if err != nil {
				return nil, err
			}
			value = fn(old)
		}
		if err := st.Set(key, fix.Column, value); err != nil {
			return nil, err
		}
		touched[types.Cell{RowKey: key, Column: fix.Column}] = struct{}{}
	}
	return touched, nil
}

func selectKeys(st *store.Store, sch *schema.Schema, sel Selector) ([]string, error) {
	switch {
	case sel.Key != "" && sel.Where != "":
		return nil, errors.New("selector must name a row key or a predicate, not both")
	case sel.Key != "":
		if !st.Has(sel.Key) {
			return nil, &store.NotFoundError{Key: sel.Key}
		}
		return []string{sel.Key}, nil
	case sel.Where != "":
		return query.Matches(st, sch, sel.Where)
	default:
		return nil, errors.New("empty selector")
	}
}
