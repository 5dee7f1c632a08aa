// Package query evaluates a restricted predicate language against a row
// store and projects the matching rows onto a column subset.
//
// The grammar covers boolean combinations (AND, OR, parentheses) of
// column comparisons `column OP literal` with OP one of =, !=, <, <=, >,
// >= and LIKE (SQL-style % and _ wildcards). Columns whose schema kind is
// numeric compare numerically; everything else compares lexically.
// Evaluation never mutates the store and preserves store row order.
package query

import (
	"strconv"
	"strings"

	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

// Query is a predicate plus an ordered column projection. An empty
// projection selects all columns.
type Query struct {
	Predicate string
	Columns   []string
}

// Result is a derived table: the projected column names and the matching
// rows in store order.
type Result struct {
	Columns []string
	Rows    [][]string
}

// TSV renders the result in the canonical tab-separated text format.
func (r *Result) TSV() []byte {
	var sb strings.Builder
	sb.WriteString(strings.Join(r.Columns, "\t"))
	sb.WriteByte('\n')
	for _, row := range r.Rows {
		sb.WriteString(strings.Join(row, "\t"))
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// Evaluate runs the query against the store. Unknown predicate or
// projection columns fail with *types.UnknownColumnError; a column is
// known if it exists in the store or is declared in the schema.
func Evaluate(st *store.Store, sch *schema.Schema, q Query) (*Result, error) {
	expr, err := Parse(q.Predicate)
	if err != nil {
		return nil, err
	}
	known := func(name string) bool {
		return st.HasColumn(name) || sch.Column(name) != nil
	}
	for _, col := range expr.Columns() {
		if !known(col) {
			return nil, &types.UnknownColumnError{Column: col}
		}
	}

	columns := q.Columns
	if len(columns) == 0 {
		columns = st.Columns()
	} else {
		for _, col := range columns {
			if !known(col) {
				return nil, &types.UnknownColumnError{Column: col}
			}
		}
	}

	numeric := func(column string) bool {
		spec := sch.Column(column)
		return spec != nil && spec.Kind == schema.KindNumeric
	}

	res := &Result{Columns: columns}
	for i := 0; i < st.Len(); i++ {
		row := st.RowAt(i)
		if !expr.eval(row, numeric) {
			continue
		}
		values := make([]string, len(columns))
		for j, col := range columns {
			values[j] = row.Value(col)
		}
		res.Rows = append(res.Rows, values)
	}
	return res, nil
}

// Matches returns the keys of the rows satisfying the predicate, in store
// order. Used by the repair engine to resolve predicate selectors against
// pre-fix state.
func Matches(st *store.Store, sch *schema.Schema, predicate string) ([]string, error) {
	expr, err := Parse(predicate)
	if err != nil {
		return nil, err
	}
	for _, col := range expr.Columns() {
		if !st.HasColumn(col) && sch.Column(col) == nil {
			return nil, &types.UnknownColumnError{Column: col}
		}
	}
	numeric := func(column string) bool {
		spec := sch.Column(column)
		return spec != nil && spec.Kind == schema.KindNumeric
	}
	var keys []string
	for i := 0; i < st.Len(); i++ {
		row := st.RowAt(i)
		if expr.eval(row, numeric) {
			keys = append(keys, row.Key())
		}
	}
	return keys, nil
}

func (e *compareExpr) eval(row valueSource, numeric func(string) bool) bool {
	raw := row.Value(e.column)
	if e.like != nil {
		return e.like.MatchString(raw)
	}
	if numeric(e.column) {
		return evalNumeric(raw, e.op, e.literal)
	}
	return evalLexical(raw, e.op, e.literal)
}

// evalNumeric compares cell and literal as floats. A cell that does not
// parse never matches; the format rule reports it during validation.
func evalNumeric(raw, op, literal string) bool {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false
	}
	lit, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return false
	}
	switch op {
	case "=":
		return v == lit
	case "!=":
		return v != lit
	case "<":
		return v < lit
	case "<=":
		return v <= lit
	case ">":
		return v > lit
	case ">=":
		return v >= lit
	}
	return false
}

func evalLexical(raw, op, literal string) bool {
	c := strings.Compare(raw, literal)
	switch op {
	case "=":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}
