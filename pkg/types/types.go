// Package types holds the core data structures shared across the
// empd-admin packages: rule kinds, validation findings, and reports.
package types

import (
	"fmt"
	"sort"
)

// RuleKind identifies the class of validation rule that produced a finding.
type RuleKind string

const (
	// RuleRequired reports a required column with a missing value.
	RuleRequired RuleKind = "required"
	// RuleFormat reports a value that does not match the column's type or pattern.
	RuleFormat RuleKind = "format"
	// RuleReference reports a value outside a controlled vocabulary or lookup table.
	RuleReference RuleKind = "reference"
	// RuleRange reports a numeric value outside the allowed range.
	RuleRange RuleKind = "range"
	// RuleConsistency reports a cross-column consistency violation.
	RuleConsistency RuleKind = "consistency"
)

// cellRuleOrder is the fail-fast evaluation order for per-cell rules.
// Only the first failing rule per cell is reported.
var cellRuleOrder = []RuleKind{RuleRequired, RuleFormat, RuleReference, RuleRange}

// CellRuleOrder returns the fixed per-cell rule evaluation order.
func CellRuleOrder() []RuleKind {
	out := make([]RuleKind, len(cellRuleOrder))
	copy(out, cellRuleOrder)
	return out
}

// Cell addresses a single value in the metadata table by row key and column.
type Cell struct {
	RowKey string
	Column string
}

func (c Cell) String() string {
	return c.RowKey + ":" + c.Column
}

// Finding is a single validation failure tied to one row and column.
// Findings are data, not errors: a validation pass always succeeds and
// returns its findings in a Report.
type Finding struct {
	RowKey  string   `json:"rowKey"  yaml:"rowKey"`
	Column  string   `json:"column"  yaml:"column"`
	Rule    RuleKind `json:"rule"    yaml:"rule"`
	Message string   `json:"message" yaml:"message"`
}

// Cell returns the cell the finding refers to.
func (f Finding) Cell() Cell {
	return Cell{RowKey: f.RowKey, Column: f.Column}
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s.%s: %s", f.Rule, f.RowKey, f.Column, f.Message)
}

// Report is the outcome of a validation pass. An empty report means every
// row passed every applicable rule. Callers must not rely on finding order;
// only set membership is guaranteed stable across runs.
type Report struct {
	findings []Finding
}

// NewReport builds a report from the given findings.
func NewReport(findings []Finding) *Report {
	r := &Report{}
	r.findings = append(r.findings, findings...)
	return r
}

// Findings returns a copy of all findings in the report.
func (r *Report) Findings() []Finding {
	out := make([]Finding, len(r.findings))
	copy(out, r.findings)
	return out
}

// Len returns the number of findings.
func (r *Report) Len() int {
	return len(r.findings)
}

// Empty reports whether the report has no findings.
func (r *Report) Empty() bool {
	return len(r.findings) == 0
}

// ForRow returns the findings for the given row key.
func (r *Report) ForRow(key string) []Finding {
	var out []Finding
	for _, f := range r.findings {
		if f.RowKey == key {
			out = append(out, f)
		}
	}
	return out
}

// ForCell returns the findings for the given cell.
func (r *Report) ForCell(cell Cell) []Finding {
	var out []Finding
	for _, f := range r.findings {
		if f.Cell() == cell {
			out = append(out, f)
		}
	}
	return out
}

// FailingKeys returns the sorted set of row keys with at least one finding.
func (r *Report) FailingKeys() []string {
	seen := make(map[string]struct{})
	for _, f := range r.findings {
		seen[f.RowKey] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Replace merges the findings of an incremental re-validation into the
// report: prior findings for cells in scope are dropped and the new
// findings take their place. Findings outside the scope are untouched.
func (r *Report) Replace(scope map[Cell]struct{}, findings []Finding) {
	kept := r.findings[:0]
	for _, f := range r.findings {
		if _, ok := scope[f.Cell()]; !ok {
			kept = append(kept, f)
		}
	}
	r.findings = append(kept, findings...)
}

// UnknownColumnError reports a column name that is neither declared in the
// schema nor present as a passthrough column.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}
