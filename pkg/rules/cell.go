package rules

import (
	"fmt"
	"strconv"

	"github.com/empd2/empd-admin/pkg/schema"
)

// RequiredRule reports required columns with a missing value. It is the
// only rule that sees empty cells.
type RequiredRule struct{}

// Check implements validator.CellRule.
func (*RequiredRule) Check(value string, spec *schema.ColumnSpec, _ schema.LookupTables) (string, bool) {
	if value == "" && spec.Required {
		return fmt.Sprintf("missing value for required column %s", spec.Name), false
	}
	return "", true
}

// FormatRule reports values that cannot be parsed as the column's kind or
// that fail the column's pattern.
type FormatRule struct{}

// Check implements validator.CellRule.
func (*FormatRule) Check(value string, spec *schema.ColumnSpec, _ schema.LookupTables) (string, bool) {
	if value == "" {
		return "", true
	}
	if spec.Kind == schema.KindNumeric {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Sprintf("%q is not a number", value), false
		}
	}
	if !spec.MatchesPattern(value) {
		return fmt.Sprintf("%q does not match pattern %q", value, spec.Pattern), false
	}
	return "", true
}

// ReferenceRule reports values outside the column's controlled vocabulary:
// either the inline values list of a categorical column or the lookup
// table of a reference column.
type ReferenceRule struct{}

// Check implements validator.CellRule.
func (*ReferenceRule) Check(value string, spec *schema.ColumnSpec, lookups schema.LookupTables) (string, bool) {
	if value == "" {
		return "", true
	}
	switch spec.Kind {
	case schema.KindCategorical:
		if len(spec.Values) > 0 && !spec.AllowsValue(value) {
			return fmt.Sprintf("%q is not one of the allowed values for %s", value, spec.Name), false
		}
	case schema.KindReference:
		if !lookups[spec.Lookup].Contains(value) {
			return fmt.Sprintf("%q is not in lookup table %q", value, spec.Lookup), false
		}
	}
	return "", true
}

// RangeRule reports numeric values outside the column's declared range.
// It never fires on unparsable values; the format rule owns those.
type RangeRule struct{}

// Check implements validator.CellRule.
func (*RangeRule) Check(value string, spec *schema.ColumnSpec, _ schema.LookupTables) (string, bool) {
	if value == "" || spec.Kind != schema.KindNumeric || spec.Range == nil {
		return "", true
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", true
	}
	if !spec.Range.Contains(v) {
		return fmt.Sprintf("%g is outside the allowed range %s", v, spec.Range), false
	}
	return "", true
}
