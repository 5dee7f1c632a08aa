// Package merge reconciles a validated working table into the canonical
// base table.
package merge

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

// ConflictError refuses a merge while any row being merged still has
// unresolved validation findings. Nothing is merged partially.
type ConflictError struct {
	Keys []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot merge: %d row(s) still have validation findings: %s",
		len(e.Keys), strings.Join(e.Keys, ", "))
}

// Merge produces a consolidated store: working rows overwrite base rows in
// place by key (repairs win over stale base data, base ordering preserved),
// new rows append in working order, and working columns absent from the
// base are appended after the base columns. Neither input is mutated.
//
// The report must be a validation of the working table; Merge fails with
// *ConflictError listing the failing keys if any working row has findings.
func Merge(base, working *store.Store, report *types.Report) (*store.Store, error) {
	if base.KeyColumn() != working.KeyColumn() {
		return nil, errors.Errorf("key column mismatch: base %q vs working %q",
			base.KeyColumn(), working.KeyColumn())
	}
	if report == nil {
		return nil, errors.New("merge requires a validation report for the working table")
	}

	var failing []string
	for _, key := range working.Keys() {
		if len(report.ForRow(key)) > 0 {
			failing = append(failing, key)
		}
	}
	if len(failing) > 0 {
		return nil, &ConflictError{Keys: failing}
	}

	result := base.Clone()
	for _, col := range working.Columns() {
		result.EnsureColumn(col)
	}

	keyColumn := working.KeyColumn()
	for _, key := range working.Keys() {
		row, _ := working.RowByKey(key)
		if result.Has(key) {
			for _, col := range working.Columns() {
				if col == keyColumn {
					continue
				}
				if err := result.Set(key, col, row.Value(col)); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := result.Append(key, row.Value); err != nil {
			return nil, err
		}
	}
	result.TakeDirty()
	return result, nil
}
