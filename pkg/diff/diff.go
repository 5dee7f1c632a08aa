// Package diff compares two metadata tables cell by cell and reports the
// rows that differ: which columns changed, which rows exist only on one
// side, and the values the left table holds for the changed columns.
//
// The comparison is data-level only; loading the tables and persisting the
// result are the caller's job. Numeric columns compare within an absolute
// tolerance so formatting churn (52.52 vs 52.5200001) does not show up as a
// change.
package diff

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

// Mode selects which rows the diff covers.
type Mode string

const (
	// ModeInner compares only rows present in both tables.
	ModeInner Mode = "inner"
	// ModeLeft additionally reports left rows missing from the right table.
	ModeLeft Mode = "left"
	// ModeRight additionally reports right rows missing from the left table.
	ModeRight Mode = "right"
	// ModeOuter reports rows missing from either side.
	ModeOuter Mode = "outer"
)

// Markers used in a row's change list when it has no counterpart.
const (
	MissingInRight = "missing in right"
	MissingInLeft  = "missing in left"
)

// DefaultAtol is the default absolute tolerance for numeric columns.
const DefaultAtol = 1e-3

// Options controls a comparison. The zero value compares the column
// intersection of both tables for rows present in both, with exact cell
// equality.
type Options struct {
	// Mode selects the row coverage; empty means ModeInner.
	Mode Mode
	// On names the columns to compare. Empty means every column present in
	// both tables (except the key column).
	On []string
	// Exclude names columns to leave out of the comparison.
	Exclude []string
	// Atol is the absolute tolerance for columns of numeric kind. Zero
	// means exact string equality for them too.
	Atol float64
}

// Row is one differing row of the result.
type Row struct {
	Key string
	// Values holds the left table's cells for Result.Columns; for a row
	// missing in the left table they come from the right instead.
	Values []string
	// Changed names the differing columns, or carries a single missing
	// marker for a row without a counterpart.
	Changed []string
}

// Result is the outcome of a comparison: the columns that differ anywhere,
// in left column order, and the differing rows in table order.
type Result struct {
	KeyColumn string
	Columns   []string
	Rows      []Row
}

// Empty reports whether the two tables matched on every compared cell.
func (r *Result) Empty() bool {
	return len(r.Rows) == 0
}

// Table returns the result in displayable form: the key column, the
// differing columns, and a trailing diff column naming each row's changes.
func (r *Result) Table() ([]string, [][]string) {
	header := make([]string, 0, len(r.Columns)+2)
	header = append(header, r.KeyColumn)
	header = append(header, r.Columns...)
	header = append(header, "diff")

	rows := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, 0, len(header))
		cells = append(cells, row.Key)
		cells = append(cells, row.Values...)
		cells = append(cells, strings.Join(row.Changed, ","))
		rows[i] = cells
	}
	return header, rows
}

// TSV renders the result in the canonical tab-separated text format.
func (r *Result) TSV() []byte {
	header, rows := r.Table()
	var sb strings.Builder
	sb.WriteString(strings.Join(header, "\t"))
	sb.WriteByte('\n')
	for _, row := range rows {
		sb.WriteString(strings.Join(row, "\t"))
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// Compute compares the right table against the left one. The schema (which
// may be nil) supplies the numeric column kinds for tolerance comparison.
// An explicit On column unknown to both tables fails with
// *types.UnknownColumnError. Neither input is mutated.
func Compute(left, right *store.Store, sch *schema.Schema, opts Options) (*Result, error) {
	if left.KeyColumn() != right.KeyColumn() {
		return nil, errors.Errorf("key column mismatch: left %q vs right %q",
			left.KeyColumn(), right.KeyColumn())
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeInner
	}
	switch mode {
	case ModeInner, ModeLeft, ModeRight, ModeOuter:
	default:
		return nil, errors.Errorf("unknown diff mode %q", mode)
	}

	excluded := make(map[string]struct{}, len(opts.Exclude)+1)
	excluded[left.KeyColumn()] = struct{}{}
	for _, col := range opts.Exclude {
		excluded[col] = struct{}{}
	}

	var on []string
	if len(opts.On) > 0 {
		for _, col := range opts.On {
			if !left.HasColumn(col) && !right.HasColumn(col) {
				return nil, &types.UnknownColumnError{Column: col}
			}
			if _, skip := excluded[col]; skip {
				continue
			}
			on = append(on, col)
		}
	} else {
		for _, col := range left.Columns() {
			if !right.HasColumn(col) {
				continue
			}
			if _, skip := excluded[col]; skip {
				continue
			}
			on = append(on, col)
		}
	}

	numeric := func(column string) bool {
		if sch == nil {
			return false
		}
		spec := sch.Column(column)
		return spec != nil && spec.Kind == schema.KindNumeric
	}
	equal := func(column, a, b string) bool {
		if a == b {
			return true
		}
		if opts.Atol > 0 && numeric(column) {
			av, errA := strconv.ParseFloat(a, 64)
			bv, errB := strconv.ParseFloat(b, 64)
			if errA == nil && errB == nil {
				return math.Abs(av-bv) <= opts.Atol
			}
		}
		return false
	}

	changedAnywhere := make(map[string]struct{})
	type hit struct {
		row     store.Row
		changed []string
	}
	var hits []hit

	for _, key := range left.Keys() {
		lrow, _ := left.RowByKey(key)
		rrow, ok := right.RowByKey(key)
		if !ok {
			if mode == ModeLeft || mode == ModeOuter {
				hits = append(hits, hit{row: lrow, changed: []string{MissingInRight}})
			}
			continue
		}
		var changed []string
		for _, col := range on {
			if !equal(col, lrow.Value(col), rrow.Value(col)) {
				changed = append(changed, col)
				changedAnywhere[col] = struct{}{}
			}
		}
		if len(changed) > 0 {
			hits = append(hits, hit{row: lrow, changed: changed})
		}
	}
	if mode == ModeRight || mode == ModeOuter {
		for _, key := range right.Keys() {
			if left.Has(key) {
				continue
			}
			rrow, _ := right.RowByKey(key)
			hits = append(hits, hit{row: rrow, changed: []string{MissingInLeft}})
		}
	}

	res := &Result{KeyColumn: left.KeyColumn()}
	for _, col := range on {
		if _, ok := changedAnywhere[col]; ok {
			res.Columns = append(res.Columns, col)
		}
	}
	for _, h := range hits {
		values := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			values[i] = h.row.Value(col)
		}
		res.Rows = append(res.Rows, Row{Key: h.row.Key(), Values: values, Changed: h.changed})
	}
	return res, nil
}
