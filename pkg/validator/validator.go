// Package validator runs the registered schema rules against a row store
// and produces a validation report.
//
// Per-cell rules fire in a fixed fail-fast order (required, format,
// reference, range): only the first failure per cell is reported.
// Cross-column rules run afterwards and skip cells that already carry a
// per-cell finding, so a single bad value never cascades into noise.
package validator

import (
	"strings"

	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

// Validate runs every applicable rule and returns the findings.
//
// With a nil scope the whole table is validated. With a non-nil scope only
// the rows containing scoped cells are re-checked and only findings whose
// cell lies in scope are returned; merging the result into a prior report
// is the caller's job (see types.Report.Replace). For any scope the
// returned findings for a scoped cell equal the ones a full pass would
// produce for it.
func Validate(st *store.Store, sch *schema.Schema, lookups schema.LookupTables, scope map[types.Cell]struct{}) *types.Report {
	var findings []types.Finding

	if scope == nil {
		for i := 0; i < st.Len(); i++ {
			findings = append(findings, validateRow(st.RowAt(i), sch, lookups)...)
		}
		return types.NewReport(findings)
	}

	rows := make(map[string]struct{})
	for cell := range scope {
		rows[cell.RowKey] = struct{}{}
	}
	for i := 0; i < st.Len(); i++ {
		row := st.RowAt(i)
		if _, ok := rows[row.Key()]; !ok {
			continue
		}
		for _, f := range validateRow(row, sch, lookups) {
			if _, ok := scope[f.Cell()]; ok {
				findings = append(findings, f)
			}
		}
	}
	return types.NewReport(findings)
}

// validateRow runs the per-cell rules over every declared column of one
// row, then the enabled cross-column rules, honoring the row's okexcept
// list.
func validateRow(row store.Row, sch *schema.Schema, lookups schema.LookupTables) []types.Finding {
	accepted := acceptedColumns(row)
	failed := make(map[string]struct{})
	var findings []types.Finding

	for _, spec := range sch.Columns {
		msg, kind, ok := checkCell(row.Value(spec.Name), spec, lookups)
		if ok {
			continue
		}
		failed[spec.Name] = struct{}{}
		if _, skip := accepted[spec.Name]; skip {
			continue
		}
		findings = append(findings, types.Finding{
			RowKey:  row.Key(),
			Column:  spec.Name,
			Rule:    kind,
			Message: msg,
		})
	}

	for _, name := range sch.Checks {
		rule := crossRule(name)
		if rule == nil {
			continue
		}
		for _, f := range rule.Check(row, sch, lookups) {
			if _, dup := failed[f.Column]; dup {
				continue
			}
			if _, skip := accepted[f.Column]; skip {
				continue
			}
			findings = append(findings, f)
		}
	}
	return findings
}

// checkCell evaluates the per-cell rules in fail-fast order. A missing
// value is only subject to the required rule; the remaining rules never see
// empty cells.
func checkCell(value string, spec *schema.ColumnSpec, lookups schema.LookupTables) (string, types.RuleKind, bool) {
	for _, kind := range types.CellRuleOrder() {
		rule := cellRule(kind)
		if rule == nil {
			continue
		}
		if msg, ok := rule.Check(value, spec, lookups); !ok {
			return msg, kind, false
		}
		if value == "" {
			break
		}
	}
	return "", "", true
}

// acceptedColumns parses the row's okexcept cell into the set of column
// names whose findings the maintainers have accepted.
func acceptedColumns(row store.Row) map[string]struct{} {
	raw := row.Value(schema.OkExceptColumn)
	if raw == "" {
		return nil
	}
	out := make(map[string]struct{})
	for _, col := range strings.Split(raw, ",") {
		col = strings.TrimSpace(col)
		if col != "" {
			out[col] = struct{}{}
		}
	}
	return out
}
